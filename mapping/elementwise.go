package mapping

import (
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/pkg/errors"
)

// ElementwiseBackward maps output slices of an elementwise node (including unary ops, copies, dtype
// conversions and multi-output nodes like Dropout) to its input slices.
//
// Each input takes the output's coordinate on the axes where it has the same extent as the output, and
// coordinate 0 on broadcast axes.
type ElementwiseBackward struct {
	node    *graph.Node
	inputs  []*slicing.SlicedOperand
	outputs []*slicing.SlicedOperand
}

var _ Backward = (*ElementwiseBackward)(nil)

// NewElementwiseBackward creates the mapping for node, whose operands must have been sliced in arena.
//
// Inputs must be sliced like the output on every axis they don't broadcast, and all outputs must be
// sliced the same.
func NewElementwiseBackward(arena *slicing.Arena, node *graph.Node) (*ElementwiseBackward, error) {
	if !node.OpType.IsElementwise() {
		return nil, errors.Errorf("node %q is a %s, which is not elementwise", node.Name, node.OpType)
	}
	inputs, missing := operandsOf(arena, node.Inputs)
	if missing == nil {
		var outputs []*slicing.SlicedOperand
		outputs, missing = operandsOf(arena, node.Outputs)
		if missing == nil {
			e := &ElementwiseBackward{node: node, inputs: inputs, outputs: outputs}
			if err := e.validate(); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, errors.Errorf("tensor %q of node %q is not sliced", missing.Name(), node.Name)
}

func (e *ElementwiseBackward) validate() error {
	key := e.outputs[0]
	for _, output := range e.outputs[1:] {
		if !output.Shape().EqualDimensions(key.Shape()) {
			return errors.Errorf("node %q: outputs %q and %q have different dimensions", e.node.Name, key.Name(), output.Name())
		}
		for axis := range key.Rank() {
			if output.ChunkDimensions[axis] != key.ChunkDimensions[axis] {
				return errors.Errorf("node %q: outputs %q and %q sliced differently along axis %d",
					e.node.Name, key.Name(), output.Name(), axis)
			}
		}
	}
	keyDims := key.Shape().Dimensions
	for _, input := range e.inputs {
		if input.Rank() == 0 {
			continue
		}
		if input.Rank() != key.Rank() {
			return errors.Errorf("node %q: input %q has rank %d, output %q has rank %d",
				e.node.Name, input.Name(), input.Rank(), key.Name(), key.Rank())
		}
		for axis, dim := range input.Shape().Dimensions {
			if dim == keyDims[axis] && input.ChunkDimensions[axis] != key.ChunkDimensions[axis] {
				return errors.Errorf("node %q: input %q must be sliced like output %q along axis %d (chunks %d != %d)",
					e.node.Name, input.Name(), key.Name(), axis, input.ChunkDimensions[axis], key.ChunkDimensions[axis])
			}
		}
	}
	return nil
}

// Node implements Backward.
func (e *ElementwiseBackward) Node() *graph.Node { return e.node }

// Inputs implements Backward.
func (e *ElementwiseBackward) Inputs() []*slicing.SlicedOperand { return e.inputs }

// Outputs implements Backward.
func (e *ElementwiseBackward) Outputs() []*slicing.SlicedOperand { return e.outputs }

// NumCommonDimSlices implements Backward: elementwise ops don't reduce.
func (e *ElementwiseBackward) NumCommonDimSlices() int { return 1 }

// MapInputs implements Backward.
func (e *ElementwiseBackward) MapInputs(pair slicing.SliceRefCommonDimIdxPair) []slicing.SliceReference {
	keyDims := e.outputs[0].Shape().Dimensions
	refs := make([]slicing.SliceReference, len(e.inputs))
	for i, input := range e.inputs {
		refs[i].Operand = input.ID
		for axis, dim := range input.Shape().Dimensions {
			if dim == keyDims[axis] {
				refs[i].Coord[axis] = pair.Ref.Coord[axis]
			}
		}
	}
	return refs
}

// MapOutputs implements Backward.
func (e *ElementwiseBackward) MapOutputs(ref slicing.SliceReference) []slicing.SliceReference {
	refs := make([]slicing.SliceReference, len(e.outputs))
	for i, output := range e.outputs {
		refs[i] = slicing.SliceReference{Operand: output.ID, Coord: ref.Coord}
	}
	return refs
}
