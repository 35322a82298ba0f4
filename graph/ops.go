package graph

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/internal/optypes"
	"github.com/gomlx/sramslicer/shapeinference"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/pkg/errors"
)

// addNode adds a new node to the graph, creating one output tensor per output shape.
func (g *Graph) addNode(opType optypes.OpType, outputShapes []shapes.Shape, inputs ...*Tensor) *Node {
	node := &Node{
		ID:     len(g.nodes),
		Name:   fmt.Sprintf("%s_%d", opType.Name(), len(g.nodes)),
		OpType: opType,
		Inputs: inputs,
	}
	node.Outputs = make([]*Tensor, len(outputShapes))
	for i, shape := range outputShapes {
		t := g.newTensor("", shape)
		node.Outputs[i] = t
		g.producers[t] = node
	}
	for _, input := range inputs {
		g.consumers[input] = append(g.consumers[input], node)
	}
	g.nodes = append(g.nodes, node)
	return node
}

// binaryOp adds a new binary elementwise operation to the graph.
func binaryOp(op optypes.OpType, lhs, rhs *Tensor) (*Tensor, error) {
	if lhs == nil {
		return nil, errors.Errorf("nil lhs operand given to %s", op)
	}
	g := lhs.graph
	if err := g.checkOwned(op, rhs); err != nil {
		return nil, err
	}
	outputShape, err := shapeinference.BinaryOp(op, lhs.shape, rhs.shape)
	if err != nil {
		return nil, err
	}
	return g.addNode(op, []shapes.Shape{outputShape}, lhs, rhs).Outputs[0], nil
}

// unaryOp adds a new unary operation to the graph.
func unaryOp(op optypes.OpType, operand *Tensor) (*Tensor, error) {
	if operand == nil {
		return nil, errors.Errorf("nil operand given to %s", op)
	}
	outputShape, err := shapeinference.UnaryOp(op, operand.shape)
	if err != nil {
		return nil, err
	}
	return operand.graph.addNode(op, []shapes.Shape{outputShape}, operand).Outputs[0], nil
}

// Add returns the elementwise lhs + rhs, with broadcasting of axes of dimension 1.
func Add(lhs, rhs *Tensor) (*Tensor, error) { return binaryOp(optypes.Add, lhs, rhs) }

// Sub returns the elementwise lhs - rhs.
func Sub(lhs, rhs *Tensor) (*Tensor, error) { return binaryOp(optypes.Sub, lhs, rhs) }

// Mul returns the elementwise lhs * rhs.
func Mul(lhs, rhs *Tensor) (*Tensor, error) { return binaryOp(optypes.Mul, lhs, rhs) }

// Max returns the elementwise maximum of lhs and rhs.
func Max(lhs, rhs *Tensor) (*Tensor, error) { return binaryOp(optypes.Max, lhs, rhs) }

// Relu returns max(operand, 0).
func Relu(operand *Tensor) (*Tensor, error) { return unaryOp(optypes.Relu, operand) }

// Exp returns the elementwise exponential.
func Exp(operand *Tensor) (*Tensor, error) { return unaryOp(optypes.Exp, operand) }

// Tanh returns the elementwise hyperbolic tangent.
func Tanh(operand *Tensor) (*Tensor, error) { return unaryOp(optypes.Tanh, operand) }

// Copy returns a copy of the operand, executed by the DMA engine.
func Copy(operand *Tensor) (*Tensor, error) { return unaryOp(optypes.Copy, operand) }

// ConvertDType returns the operand converted to dtype.
func ConvertDType(operand *Tensor, dtype dtypes.DType) (*Tensor, error) {
	if operand == nil {
		return nil, errors.New("nil operand given to ConvertDType")
	}
	outputShape, err := shapeinference.ConvertDType(operand.shape, dtype)
	if err != nil {
		return nil, err
	}
	return operand.graph.addNode(optypes.ConvertDType, []shapes.Shape{outputShape}, operand).Outputs[0], nil
}

// Dropout returns the operand with some elements zeroed, and the boolean mask applied.
// It is the node with more than one output in the op set.
func Dropout(operand *Tensor) (output, mask *Tensor, err error) {
	if operand == nil {
		err = errors.New("nil operand given to Dropout")
		return
	}
	outputShape, maskShape, err := shapeinference.Dropout(operand.shape)
	if err != nil {
		return
	}
	node := operand.graph.addNode(optypes.Dropout, []shapes.Shape{outputShape, maskShape}, operand)
	return node.Outputs[0], node.Outputs[1], nil
}

// MatMul returns lhs[..., M, K] x rhs[..., K, N] -> [..., M, N], executed by the matrix engine.
//
// If either operand has a batch (leading axes), the node is a BatchMatMul.
func MatMul(lhs, rhs *Tensor) (*Tensor, error) {
	return MatMulWithDType(lhs, rhs, dtypes.InvalidDType)
}

// MatMulWithDType is like MatMul, but the output has the given dtype, usually a higher precision one
// for the accumulation.
func MatMulWithDType(lhs, rhs *Tensor, outputDType dtypes.DType) (*Tensor, error) {
	if lhs == nil {
		return nil, errors.New("nil lhs operand given to MatMul")
	}
	g := lhs.graph
	if err := g.checkOwned(optypes.MatMul, rhs); err != nil {
		return nil, err
	}
	outputShape, err := shapeinference.MatMul(lhs.shape, rhs.shape, outputDType)
	if err != nil {
		return nil, errors.WithMessagef(err, "while building MatMul(%s, %s)", lhs, rhs)
	}
	op := optypes.MatMul
	if lhs.shape.Rank() > 2 || rhs.shape.Rank() > 2 {
		op = optypes.BatchMatMul
	}
	return g.addNode(op, []shapes.Shape{outputShape}, lhs, rhs).Outputs[0], nil
}
