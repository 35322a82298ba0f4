package optypes

import (
	"testing"

	"github.com/gomlx/sramslicer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpTypes(t *testing.T) {
	for op := Invalid; op < Last; op++ {
		assert.NotContains(t, op.String(), "OpType(", "op %d has no name", int(op))
	}
	assert.Equal(t, "batch_mat_mul", BatchMatMul.Name())
	assert.Equal(t, types.MatrixEngine, MatMul.Engine())
	assert.Equal(t, types.VectorEngine, Dropout.Engine())
	assert.Equal(t, types.DMAEngine, Copy.Engine())
	assert.Equal(t, types.InvalidEngine, Invalid.Engine())
	assert.True(t, Relu.IsElementwise())
	assert.False(t, MatMul.IsElementwise())
}

func TestOpTypeString(t *testing.T) {
	op, err := OpTypeString("ConvertDType")
	require.NoError(t, err)
	assert.Equal(t, ConvertDType, op)
	op, err = OpTypeString("batchmatmul")
	require.NoError(t, err)
	assert.Equal(t, BatchMatMul, op)
	_, err = OpTypeString("Conv")
	require.Error(t, err)
	assert.Equal(t, "OpType(99)", OpType(99).String())
	assert.Len(t, OpTypeValues(), int(Last)+1)
}
