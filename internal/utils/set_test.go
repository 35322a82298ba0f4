package utils

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := MakeSet[int](10)
	require.Len(t, s, 0)

	// Check inserting and recovery.
	s.Insert(3, 7)
	require.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	s2 := SetWith(5, 7)
	require.Len(t, s2, 2)
	assert.True(t, s2.Has(5))
	assert.False(t, s2.Has(3))

	s3 := s.Sub(s2)
	require.Len(t, s3, 1)
	assert.True(t, s3.Has(3))

	delete(s, 7)
	assert.True(t, s.Equal(s3))
	assert.False(t, s.Equal(s2))
	assert.False(t, s.Equal(SetWith(-3)))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []int{-1, 2, 9}, SortedKeys(SetWith(9, -1, 2, 9)))
	assert.Empty(t, SortedKeys(MakeSet[string]()))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 4))
	assert.Equal(t, 1, CeilDiv(1, 4))
	assert.Equal(t, 2, CeilDiv(8, 4))
	assert.Equal(t, 3, CeilDiv(9, 4))
	assert.Equal(t, uint64(5), CeilDiv(uint64(1025), uint64(256)))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "mat_mul", ToSnakeCase("MatMul"))
	assert.Equal(t, "batch_mat_mul", ToSnakeCase("BatchMatMul"))
	assert.Equal(t, "dma_copy", ToSnakeCase("DMACopy"))
	assert.Equal(t, "relu", ToSnakeCase("relu"))
	assert.Equal(t, "convert_d_type", ToSnakeCase("ConvertDType"))
	assert.Equal(t, "already_snake", ToSnakeCase("already_Snake"))
}

func TestDTypeShortName(t *testing.T) {
	assert.Equal(t, "bf16", DTypeShortName(dtypes.BFloat16))
	assert.Equal(t, "f32", DTypeShortName(dtypes.Float32))
	assert.Equal(t, "complex64", DTypeShortName(dtypes.Complex64))
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "gemm_out_0", NormalizeIdentifier("gemm/out:0"))
	assert.Equal(t, "_1st", NormalizeIdentifier("1st"))
	assert.Equal(t, "", NormalizeIdentifier(""))
}
