package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineNames(t *testing.T) {
	assert.Equal(t, "MatrixEngine", MatrixEngine.String())
	assert.Equal(t, "DMA", DMAEngine.ShortName())
	assert.Equal(t, "Engine(17)", Engine(17).String())
	assert.Len(t, Engines, 3)
	assert.Equal(t, "scratch", ScratchMemory.String())
}

func TestMemoryLocationString(t *testing.T) {
	assert.Equal(t, []string{"main", "scratch"}, MemoryLocationStrings())
	l, err := MemoryLocationString("Scratch")
	require.NoError(t, err)
	assert.Equal(t, ScratchMemory, l)
	assert.False(t, MemoryLocation(5).IsAMemoryLocation())
	e, err := EngineString("VectorEngine")
	require.NoError(t, err)
	assert.Equal(t, VectorEngine, e)
}
