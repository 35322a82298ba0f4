package slicing

import (
	"slices"

	"github.com/pkg/errors"
)

// NoSliceChangeDim is the TraversalPattern.SliceChangeDim of patterns that never signal a new wide slice
// from their traversal axes.
const NoSliceChangeDim = -1

// TraversalPattern defines the order in which the slices of an operand are visited.
type TraversalPattern struct {
	Operand *SlicedOperand

	// DimOrder lists the axes to traverse, the first one varying fastest.
	DimOrder []int

	// Snake reverses the direction of the first axis of DimOrder every time it cycles.
	Snake bool

	// NumCommonDimSlices is the number of slices of the accumulation dimension visited for every
	// position of the traversal axes.
	NumCommonDimSlices int

	// SliceChangeDim is the axis whose advance signals a new wide slice. By default the second axis of
	// DimOrder, or NoSliceChangeDim if there is only one.
	SliceChangeDim int
}

// NewTraversalPattern validates and creates a TraversalPattern for op.
//
// It returns an error naming the tensor if dimOrder has more axes than the tensor rank, repeats an
// axis, or names an axis out of range.
func NewTraversalPattern(op *SlicedOperand, dimOrder []int, snake bool, numCommonDimSlices int) (*TraversalPattern, error) {
	if op == nil {
		return nil, errors.New("traversal pattern requires an operand")
	}
	rank := op.Rank()
	if len(dimOrder) > rank {
		return nil, errors.Errorf("traversal pattern of tensor %q has %d dimensions, but the tensor has rank %d",
			op.Name(), len(dimOrder), rank)
	}
	for i, axis := range dimOrder {
		if axis < 0 || axis >= rank {
			return nil, errors.Errorf("traversal pattern of tensor %q has dimension %d, out of range for rank %d",
				op.Name(), axis, rank)
		}
		if slices.Contains(dimOrder[:i], axis) {
			return nil, errors.Errorf("traversal pattern of tensor %q has duplicate dimension %d: %v",
				op.Name(), axis, dimOrder)
		}
	}
	if numCommonDimSlices < 1 {
		return nil, errors.Errorf("traversal pattern of tensor %q has %d common dimension slices, it must be at least 1",
			op.Name(), numCommonDimSlices)
	}
	p := &TraversalPattern{
		Operand:            op,
		DimOrder:           slices.Clone(dimOrder),
		Snake:              snake,
		NumCommonDimSlices: numCommonDimSlices,
		SliceChangeDim:     NoSliceChangeDim,
	}
	if len(dimOrder) > 1 {
		p.SliceChangeDim = dimOrder[1]
	}
	return p, nil
}

// WithSliceChangeDim returns a copy of the pattern with a different axis signaling new wide slices.
// The axis must be part of DimOrder, or NoSliceChangeDim.
func (p *TraversalPattern) WithSliceChangeDim(axis int) (*TraversalPattern, error) {
	if axis != NoSliceChangeDim && !slices.Contains(p.DimOrder, axis) {
		return nil, errors.Errorf("traversal pattern of tensor %q: slice change dimension %d is not traversed (%v)",
			p.Operand.Name(), axis, p.DimOrder)
	}
	p2 := *p
	p2.DimOrder = slices.Clone(p.DimOrder)
	p2.SliceChangeDim = axis
	return &p2, nil
}

// NumPositions is the number of states visited by an iterator from Begin to End.
func (p *TraversalPattern) NumPositions() int {
	n := p.NumCommonDimSlices
	for _, axis := range p.DimOrder {
		n *= NumSlices(p.Operand, axis)
	}
	return n
}

// Begin returns an iterator at the first slice.
func (p *TraversalPattern) Begin() *OperandSliceIterator {
	return newOperandSliceIterator(p)
}

// End returns the past-the-end iterator.
func (p *TraversalPattern) End() *OperandSliceIterator {
	return p.Begin().EndIterator()
}
