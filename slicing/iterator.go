package slicing

import (
	"github.com/gomlx/exceptions"
)

// OperandSliceIterator enumerates the slices of an operand following a TraversalPattern, paired with
// the index of the common (accumulation) dimension slice.
//
// The common dimension varies fastest, then the axes of the pattern in order, like an odometer.
// Create it with TraversalPattern.Begin, move it with Advance and read it with Current.
type OperandSliceIterator struct {
	pattern  *TraversalPattern
	counters []coordCyclicCounter
	common   coordCyclicCounter

	inputSliceChanged bool
}

func newOperandSliceIterator(p *TraversalPattern) *OperandSliceIterator {
	it := &OperandSliceIterator{
		pattern:  p,
		counters: make([]coordCyclicCounter, len(p.DimOrder)),
		common:   newCoordCyclicCounter(commonDim, p.NumCommonDimSlices, false),
	}
	for i, axis := range p.DimOrder {
		// Only the first traversal axis may snake.
		it.counters[i] = newCoordCyclicCounter(axis, NumSlices(p.Operand, axis), p.Snake && i == 0)
	}
	return it
}

// Pattern returns the traversal pattern of the iterator.
func (it *OperandSliceIterator) Pattern() *TraversalPattern { return it.pattern }

// Operand being iterated.
func (it *OperandSliceIterator) Operand() *SlicedOperand { return it.pattern.Operand }

// AtEnd returns whether the iterator is past the last slice.
func (it *OperandSliceIterator) AtEnd() bool {
	return it.common.coord == it.common.limit
}

// InputSliceChanged returns whether the last Advance started a new wide slice: either the
// accumulation dimension is sliced, or the pattern's slice change axis moved.
func (it *OperandSliceIterator) InputSliceChanged() bool { return it.inputSliceChanged }

// Advance moves to the next slice and returns false if it reached the end.
// It panics if called on an iterator already at the end.
func (it *OperandSliceIterator) Advance() bool {
	if it.AtEnd() {
		exceptions.Panicf("advancing slice iterator of %q past its end", it.pattern.Operand.Name())
	}
	it.inputSliceChanged = it.pattern.NumCommonDimSlices > 1
	if !it.common.advance() {
		return true
	}
	for i := range it.counters {
		counter := &it.counters[i]
		wrapped := counter.advance()
		if counter.axis == it.pattern.SliceChangeDim {
			it.inputSliceChanged = true
		}
		if !wrapped {
			return true
		}
	}
	it.setEnd()
	return false
}

func (it *OperandSliceIterator) setEnd() {
	for i := range it.counters {
		it.counters[i].setToLimit()
	}
	it.common.setToLimit()
}

// Current returns the slice the iterator points to. It panics if the iterator is at the end.
func (it *OperandSliceIterator) Current() SliceRefCommonDimIdxPair {
	if it.AtEnd() {
		exceptions.Panicf("dereferencing slice iterator of %q at its end", it.pattern.Operand.Name())
	}
	return SliceRefCommonDimIdxPair{
		Ref:          SliceReference{Operand: it.pattern.Operand.ID, Coord: it.coordinate()},
		CommonDimIdx: it.common.coord,
	}
}

func (it *OperandSliceIterator) coordinate() Coordinate {
	var coord Coordinate
	for _, counter := range it.counters {
		coord[counter.axis] = counter.coord
	}
	return coord
}

// Clone returns an independent copy of the iterator.
func (it *OperandSliceIterator) Clone() *OperandSliceIterator {
	it2 := *it
	it2.counters = append([]coordCyclicCounter(nil), it.counters...)
	return &it2
}

// EndIterator returns the past-the-end iterator over the same operand and pattern.
func (it *OperandSliceIterator) EndIterator() *OperandSliceIterator {
	end := it.Clone()
	end.setEnd()
	end.inputSliceChanged = false
	return end
}

// Equal returns whether both iterators point to the same slice of the same operand.
// Iterators over different operands are never equal. It panics if the iterators traverse the same
// operand with different snake settings.
func (it *OperandSliceIterator) Equal(other *OperandSliceIterator) bool {
	if it.pattern.Operand != other.pattern.Operand {
		return false
	}
	if it.pattern.Snake != other.pattern.Snake {
		exceptions.Panicf("comparing slice iterators of %q with different snake settings", it.pattern.Operand.Name())
	}
	return it.common.coord == other.common.coord && it.coordinate() == other.coordinate()
}
