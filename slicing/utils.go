package slicing

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/internal/utils"
)

// NumSlices returns the number of slices of op along axis. A chunk of 0 counts as a single slice.
func NumSlices(op *SlicedOperand, axis int) int {
	chunk := op.ChunkDimensions[axis]
	if chunk == 0 {
		return 1
	}
	return utils.CeilDiv(op.Shape().Dimensions[axis], chunk)
}

// NumSlicesOnAxes returns the product of the number of slices along the given axes.
func NumSlicesOnAxes(op *SlicedOperand, axes ...int) int {
	n := 1
	for _, axis := range axes {
		n *= NumSlices(op, axis)
	}
	return n
}

// TotalSlices returns the number of slices of op, along all axes.
func TotalSlices(op *SlicedOperand) int {
	n := 1
	for axis := range op.Rank() {
		n *= NumSlices(op, axis)
	}
	return n
}

// Grid returns the number of slices along each axis.
func Grid(op *SlicedOperand) []int {
	grid := make([]int, op.Rank())
	for axis := range grid {
		grid[axis] = NumSlices(op, axis)
	}
	return grid
}

// IsValidCoordinate returns whether every axis of coord is within the grid of op, and axes beyond the
// rank are 0.
func IsValidCoordinate(op *SlicedOperand, coord Coordinate) bool {
	for axis, c := range coord {
		if axis >= op.Rank() {
			if c != 0 {
				return false
			}
			continue
		}
		if c < 0 || c >= NumSlices(op, axis) {
			return false
		}
	}
	return true
}

// SliceSizes returns the extent of the slice at coord along each axis: the chunk size, except for
// the last slice of an axis that is clipped at the tensor edge.
func SliceSizes(op *SlicedOperand, coord Coordinate) []int {
	dims := op.Shape().Dimensions
	sizes := make([]int, len(dims))
	for axis, dim := range dims {
		chunk := op.ChunkDimensions[axis]
		if chunk == 0 {
			chunk = dim
		}
		sizes[axis] = min(chunk, dim-coord[axis]*chunk)
	}
	return sizes
}

// SliceSizeInElements returns the number of elements of the slice at coord.
func SliceSizeInElements(op *SlicedOperand, coord Coordinate) int {
	return utils.Product(SliceSizes(op, coord)...)
}

// SliceSizeInBytes returns the size of the slice at coord, using the operand's final element type, or
// the original tensor's if useOriginalType is set.
//
// For operands aligned to the cache line, the innermost axis (the row) of the slice is padded.
func SliceSizeInBytes(op *SlicedOperand, coord Coordinate, useOriginalType bool) uint64 {
	dtype := op.FinalElementType
	if useOriginalType {
		dtype = op.OriginalElementType()
	}
	elementSize := uint64(utils.DTypeBytes(dtype))
	sizes := SliceSizes(op, coord)
	if len(sizes) == 0 {
		return elementSize
	}
	rowBytes := uint64(sizes[len(sizes)-1]) * elementSize
	if op.CacheLineAlignment > 0 {
		rowBytes = utils.RoundUp(rowBytes, uint64(op.CacheLineAlignment))
	}
	return rowBytes * uint64(utils.Product(sizes[:len(sizes)-1]...))
}

// IsTriviallySliced returns whether op has a single slice covering the whole tensor.
func IsTriviallySliced(op *SlicedOperand) bool {
	for axis := range op.Rank() {
		if IsSlicedOnDimension(op, axis) {
			return false
		}
	}
	return true
}

// IsSlicedOnDimension returns whether op has more than one slice along axis.
func IsSlicedOnDimension(op *SlicedOperand, axis int) bool {
	return NumSlices(op, axis) > 1
}

// SlicedDims returns the axes along which op has more than one slice.
func SlicedDims(op *SlicedOperand) []int {
	var axes []int
	for axis := range op.Rank() {
		if IsSlicedOnDimension(op, axis) {
			axes = append(axes, axis)
		}
	}
	return axes
}

// PartialsDType returns the dtype to accumulate partial sums of outputs of the given dtype: high
// precision floats are kept, others are promoted to highPrecision.
func PartialsDType(dtype, highPrecision dtypes.DType) dtypes.DType {
	if utils.IsHighPrecisionFloat(dtype) {
		return dtype
	}
	return highPrecision
}
