package slicing

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
)

func TestSliceGeometry(t *testing.T) {
	arena := NewArena()
	// 1000 rows in chunks of 77 leave an edge slice of 1000 - 12*77 = 76 rows.
	op := newOperand(t, arena, "x", dtypes.BFloat16, []int{1000, 256}, 77, 256)
	assert.Equal(t, 13, NumSlices(op, 0))
	assert.Equal(t, 1, NumSlices(op, 1))
	assert.Equal(t, 13, TotalSlices(op))
	assert.Equal(t, 13, NumSlicesOnAxes(op, 0, 1))
	assert.Equal(t, []int{0}, SlicedDims(op))
	assert.True(t, IsSlicedOnDimension(op, 0))
	assert.False(t, IsSlicedOnDimension(op, 1))
	assert.False(t, IsTriviallySliced(op))

	assert.Equal(t, []int{77, 256}, SliceSizes(op, coord(0, 0)))
	assert.Equal(t, []int{76, 256}, SliceSizes(op, coord(12, 0)))
	assert.Equal(t, 76*256, SliceSizeInElements(op, coord(12, 0)))
	assert.Equal(t, uint64(77*256*2), SliceSizeInBytes(op, coord(3, 0), false))

	assert.True(t, IsValidCoordinate(op, coord(12, 0)))
	assert.False(t, IsValidCoordinate(op, coord(13, 0)))
	assert.False(t, IsValidCoordinate(op, coord(0, 1)))
	assert.False(t, IsValidCoordinate(op, coord(0, 0, 1)))

	// The sum of all slices is the tensor.
	var total uint64
	for i := range NumSlices(op, 0) {
		total += SliceSizeInBytes(op, coord(i, 0), false)
	}
	assert.Equal(t, op.Shape().Memory(), total)
}

func TestSliceSizeInBytes_ElementTypeAndAlignment(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "partials", dtypes.BFloat16, []int{64, 100}, 32, 50)
	op.FinalElementType = dtypes.Float32
	assert.Equal(t, uint64(32*50*4), SliceSizeInBytes(op, coord(1, 1), false))
	assert.Equal(t, uint64(32*50*2), SliceSizeInBytes(op, coord(1, 1), true))

	// Rows of 50 f32 (200 bytes) are padded to 256 bytes.
	op.CacheLineAlignment = 128
	assert.Equal(t, uint64(32*256), SliceSizeInBytes(op, coord(0, 0), false))

	scalar := newOperand(t, arena, "s", dtypes.Float64, nil)
	assert.Equal(t, uint64(8), SliceSizeInBytes(scalar, coord(), false))
	assert.True(t, IsTriviallySliced(scalar))
}

func TestPartialsDType(t *testing.T) {
	assert.Equal(t, dtypes.Float32, PartialsDType(dtypes.BFloat16, dtypes.Float32))
	assert.Equal(t, dtypes.Float32, PartialsDType(dtypes.Float16, dtypes.Float32))
	assert.Equal(t, dtypes.Float64, PartialsDType(dtypes.Float64, dtypes.Float32))
	assert.Equal(t, dtypes.Float32, PartialsDType(dtypes.Float32, dtypes.Float64))
}
