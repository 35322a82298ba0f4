// Package slicing models how tensors are cut into grids of chunks ("slices") that fit in scratch memory,
// and how those grids are traversed.
//
// SlicedOperand records live in an Arena and are addressed by OperandID, so a SliceReference is a
// plain comparable value: it can be copied freely and used as a map key.
//
// OperandSliceIterator walks the grid of one operand following a TraversalPattern, and
// MultiOperandSliceIterator drives several of them in lockstep, so that operands consumed together
// only move to a new wide slice at the same time.
package slicing

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/pkg/errors"
)

// MaxRank is the maximum rank of a sliced tensor.
const MaxRank = 8

// Coordinate is the position of a slice in the grid of slices of an operand, one entry per axis.
// Axes beyond the rank of the operand are always 0.
type Coordinate [MaxRank]int

// Format prints the first rank entries of the coordinate.
func (c Coordinate) Format(rank int) string {
	parts := make([]string, rank)
	for axis := range rank {
		parts[axis] = fmt.Sprint(c[axis])
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// OperandID identifies a SlicedOperand in its Arena.
type OperandID int

// SlicedOperand describes the slicing of one tensor.
type SlicedOperand struct {
	ID     OperandID
	Tensor *graph.Tensor

	// ChunkDimensions is the extent of a slice along each axis. A chunk equal to the tensor
	// dimension means the axis is not sliced.
	ChunkDimensions []int

	// NumOfBuffers is 1 for single buffering, 2 for double buffering.
	NumOfBuffers int

	// ResideInSRAM is set when the slices of the operand are placed in scratch memory.
	ResideInSRAM bool

	// FinalElementType is the dtype of the slices, which may differ from the tensor's dtype when
	// slicing the accumulation requires higher precision partials.
	FinalElementType dtypes.DType

	// CacheLineAlignment, if > 0, pads the innermost axis of each slice to a multiple of this many bytes.
	CacheLineAlignment int
}

// Shape of the original tensor.
func (op *SlicedOperand) Shape() shapes.Shape { return op.Tensor.Shape() }

// Rank of the original tensor.
func (op *SlicedOperand) Rank() int { return op.Tensor.Shape().Rank() }

// Name of the original tensor.
func (op *SlicedOperand) Name() string { return op.Tensor.Name() }

// OriginalElementType is the dtype of the original tensor.
func (op *SlicedOperand) OriginalElementType() dtypes.DType { return op.Tensor.Shape().DType }

// String implements fmt.Stringer.
func (op *SlicedOperand) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s%v/%v", op.Name(), op.Shape().Dimensions, op.ChunkDimensions)
	if op.NumOfBuffers > 1 {
		_, _ = fmt.Fprintf(&sb, " x%d", op.NumOfBuffers)
	}
	if op.ResideInSRAM {
		sb.WriteString(" sram")
	}
	if op.FinalElementType != op.OriginalElementType() {
		_, _ = fmt.Fprintf(&sb, " as %s", utils.DTypeShortName(op.FinalElementType))
	}
	return sb.String()
}

// SetChunkDimensions sets the extent of the slices along every axis.
func (op *SlicedOperand) SetChunkDimensions(chunks ...int) error {
	if len(chunks) != op.Rank() {
		return errors.Errorf("operand %q has rank %d, got %d chunk dimensions", op.Name(), op.Rank(), len(chunks))
	}
	for axis, chunk := range chunks {
		if chunk <= 0 || chunk > op.Shape().Dimensions[axis] {
			return errors.Errorf("operand %q: invalid chunk %d for axis %d of dimension %d",
				op.Name(), chunk, axis, op.Shape().Dimensions[axis])
		}
	}
	copy(op.ChunkDimensions, chunks)
	return nil
}

// SetNumSlices cuts the axis in numSlices chunks of equal extent, rounded up.
// The number of slices actually obtained (see NumSlices) can be smaller when numSlices doesn't divide
// the dimension.
func (op *SlicedOperand) SetNumSlices(axis, numSlices int) error {
	if axis < 0 || axis >= op.Rank() {
		return errors.Errorf("operand %q: axis %d out of range for rank %d", op.Name(), axis, op.Rank())
	}
	dim := op.Shape().Dimensions[axis]
	if numSlices <= 0 || numSlices > dim {
		return errors.Errorf("operand %q: cannot cut axis %d of dimension %d in %d slices", op.Name(), axis, dim, numSlices)
	}
	op.ChunkDimensions[axis] = utils.CeilDiv(dim, numSlices)
	return nil
}

// Arena owns the SlicedOperand records of one strategy.
type Arena struct {
	operands []*SlicedOperand
	byTensor map[*graph.Tensor]OperandID
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{byTensor: make(map[*graph.Tensor]OperandID)}
}

// NewOperand creates a trivially sliced (one slice), single buffered operand for t.
// There can be only one operand per tensor.
func (a *Arena) NewOperand(t *graph.Tensor) (*SlicedOperand, error) {
	if t == nil {
		return nil, errors.New("cannot slice a nil tensor")
	}
	if _, found := a.byTensor[t]; found {
		return nil, errors.Errorf("tensor %q already has a sliced operand", t.Name())
	}
	shape := t.Shape()
	if shape.Rank() > MaxRank {
		return nil, errors.Errorf("tensor %q has rank %d, at most %d is supported", t.Name(), shape.Rank(), MaxRank)
	}
	op := &SlicedOperand{
		ID:               OperandID(len(a.operands)),
		Tensor:           t,
		ChunkDimensions:  shape.Clone().Dimensions,
		NumOfBuffers:     1,
		FinalElementType: shape.DType,
	}
	if op.ChunkDimensions == nil {
		op.ChunkDimensions = []int{}
	}
	a.operands = append(a.operands, op)
	a.byTensor[t] = op.ID
	return op, nil
}

// Operand returns the operand with the given id. It panics for an unknown id.
func (a *Arena) Operand(id OperandID) *SlicedOperand {
	if id < 0 || int(id) >= len(a.operands) {
		exceptions.Panicf("unknown sliced operand #%d, arena has %d operands", id, len(a.operands))
	}
	return a.operands[id]
}

// OperandFor returns the operand slicing t, if any.
func (a *Arena) OperandFor(t *graph.Tensor) (*SlicedOperand, bool) {
	id, found := a.byTensor[t]
	if !found {
		return nil, false
	}
	return a.operands[id], true
}

// Operands returns all operands, in creation order.
func (a *Arena) Operands() []*SlicedOperand {
	return append([]*SlicedOperand(nil), a.operands...)
}

// Len returns the number of operands.
func (a *Arena) Len() int { return len(a.operands) }

// Format renders ref as "name(c0,c1,...)".
func (a *Arena) Format(ref SliceReference) string {
	op := a.Operand(ref.Operand)
	return op.Name() + ref.Coord.Format(op.Rank())
}

// FormatList renders a list of references separated by commas.
func (a *Arena) FormatList(refs []SliceReference) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = a.Format(ref)
	}
	return strings.Join(parts, ", ")
}

// SliceReference identifies one slice of one operand.
type SliceReference struct {
	Operand OperandID
	Coord   Coordinate
}

// SliceRefCommonDimIdxPair is a slice of an operand that accumulates partial sums, plus the index of
// the slice of the common (accumulation) dimension being added.
type SliceRefCommonDimIdxPair struct {
	Ref          SliceReference
	CommonDimIdx int
}
