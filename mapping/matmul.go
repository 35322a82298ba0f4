package mapping

import (
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/internal/optypes"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/pkg/errors"
)

// MatMulBackward maps output slices of a (batch) matrix multiplication out[..., m, n] to the slices
// lhs[..., m, p] and rhs[..., p, n], where p is the index of the slice of the common dimension.
//
// Batch coordinates are copied to the operands that have a batch, operands of rank 2 are broadcast.
type MatMulBackward struct {
	node          *graph.Node
	lhs, rhs, out *slicing.SlicedOperand
}

var _ Backward = (*MatMulBackward)(nil)

// NewMatMulBackward creates the mapping for node, whose operands must have been sliced in arena.
//
// It returns an error if the slicing of the operands is not consistent: the common dimension must be
// sliced the same in both inputs, and the output must be sliced like the inputs along m, n and the batch.
func NewMatMulBackward(arena *slicing.Arena, node *graph.Node) (*MatMulBackward, error) {
	if node.OpType != optypes.MatMul && node.OpType != optypes.BatchMatMul {
		return nil, errors.Errorf("node %q is a %s, not a matrix multiplication", node.Name, node.OpType)
	}
	inputs, missing := operandsOf(arena, node.Inputs)
	if missing == nil {
		var outputs []*slicing.SlicedOperand
		outputs, missing = operandsOf(arena, node.Outputs)
		if missing == nil {
			m := &MatMulBackward{node: node, lhs: inputs[0], rhs: inputs[1], out: outputs[0]}
			if err := m.validate(); err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return nil, errors.Errorf("tensor %q of node %q is not sliced", missing.Name(), node.Name)
}

func (m *MatMulBackward) validate() error {
	lhsRank, rhsRank, outRank := m.lhs.Rank(), m.rhs.Rank(), m.out.Rank()
	if m.lhs.ChunkDimensions[lhsRank-1] != m.rhs.ChunkDimensions[rhsRank-2] {
		return errors.Errorf("node %q: common dimension sliced differently in %q (chunk %d) and %q (chunk %d)",
			m.node.Name, m.lhs.Name(), m.lhs.ChunkDimensions[lhsRank-1], m.rhs.Name(), m.rhs.ChunkDimensions[rhsRank-2])
	}
	if m.out.ChunkDimensions[outRank-2] != m.lhs.ChunkDimensions[lhsRank-2] {
		return errors.Errorf("node %q: output %q and %q must be sliced the same along the height",
			m.node.Name, m.out.Name(), m.lhs.Name())
	}
	if m.out.ChunkDimensions[outRank-1] != m.rhs.ChunkDimensions[rhsRank-1] {
		return errors.Errorf("node %q: output %q and %q must be sliced the same along the width",
			m.node.Name, m.out.Name(), m.rhs.Name())
	}
	for _, in := range []*slicing.SlicedOperand{m.lhs, m.rhs} {
		for axis := range in.Rank() - 2 {
			if in.ChunkDimensions[axis] != m.out.ChunkDimensions[axis] {
				return errors.Errorf("node %q: output %q and %q must be sliced the same along batch axis %d",
					m.node.Name, m.out.Name(), in.Name(), axis)
			}
		}
	}
	return nil
}

// Node implements Backward.
func (m *MatMulBackward) Node() *graph.Node { return m.node }

// Inputs implements Backward.
func (m *MatMulBackward) Inputs() []*slicing.SlicedOperand {
	return []*slicing.SlicedOperand{m.lhs, m.rhs}
}

// Outputs implements Backward.
func (m *MatMulBackward) Outputs() []*slicing.SlicedOperand {
	return []*slicing.SlicedOperand{m.out}
}

// NumCommonDimSlices implements Backward.
func (m *MatMulBackward) NumCommonDimSlices() int {
	return slicing.NumSlices(m.lhs, m.lhs.Rank()-1)
}

// MapInputs implements Backward.
func (m *MatMulBackward) MapInputs(pair slicing.SliceRefCommonDimIdxPair) []slicing.SliceReference {
	out := pair.Ref.Coord
	outRank := m.out.Rank()
	height, width := out[outRank-2], out[outRank-1]

	lhsRef := slicing.SliceReference{Operand: m.lhs.ID}
	lhsRank := m.lhs.Rank()
	copy(lhsRef.Coord[:lhsRank-2], out[:lhsRank-2])
	lhsRef.Coord[lhsRank-2] = height
	lhsRef.Coord[lhsRank-1] = pair.CommonDimIdx

	rhsRef := slicing.SliceReference{Operand: m.rhs.ID}
	rhsRank := m.rhs.Rank()
	copy(rhsRef.Coord[:rhsRank-2], out[:rhsRank-2])
	rhsRef.Coord[rhsRank-2] = pair.CommonDimIdx
	rhsRef.Coord[rhsRank-1] = width
	return []slicing.SliceReference{lhsRef, rhsRef}
}

// MapOutputs implements Backward.
func (m *MatMulBackward) MapOutputs(ref slicing.SliceReference) []slicing.SliceReference {
	return []slicing.SliceReference{ref}
}
