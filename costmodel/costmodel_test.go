package costmodel

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStrategy(t *testing.T, c scheduler.GemmConfig) *scheduler.Strategy {
	t.Helper()
	s, err := scheduler.NewGemmStrategy(c)
	require.NoError(t, err)
	return s
}

func accumulate(t *testing.T, s *scheduler.Strategy) *StrategyCostAccumulator {
	t.Helper()
	acc := NewStrategyCostAccumulator(hal.Default(), s)
	require.NoError(t, scheduler.HandleEachStrategyOperation(s, acc))
	return acc
}

// firstOperation returns the first operation of the strategy.
func firstOperation(t *testing.T, s *scheduler.Strategy) scheduler.Operation {
	t.Helper()
	sol, err := scheduler.NewSolutionGenerator(s).FillSolution()
	require.NoError(t, err)
	require.NotEmpty(t, sol.Operations)
	return sol.Operations[0]
}

func TestMatrixEngineCostModel_Traffic(t *testing.T) {
	// Inputs in scratch memory: only the output crosses to main memory.
	s := newStrategy(t, scheduler.GemmConfig{M: 1024, K: 512, N: 256, SlicesM: 4, SlicesN: 2, InputsInSRAM: true})
	acc := accumulate(t, s)
	assert.Equal(t, 8, acc.Matrix.NumOperations)
	assert.Equal(t, uint64(1024*256*2), acc.Matrix.Total.HBMTrafficBytes)

	// Single buffered: a's slice changes at every step, b's only once per column.
	aSlice, bSlice := uint64(256*512*2), uint64(512*128*2)
	assert.Equal(t, 8*aSlice+2*bSlice, acc.Fetch.Total.HBMTrafficBytes)

	// Everything in scratch memory: nothing crosses.
	s = newStrategy(t, scheduler.GemmConfig{M: 1024, K: 512, N: 256, SlicesM: 4, SlicesN: 2,
		Producer: true, Epilogue: true})
	for _, op := range s.Arena.Operands() {
		op.ResideInSRAM = true
	}
	acc = accumulate(t, s)
	assert.Zero(t, acc.Matrix.Total.HBMTrafficBytes)
	assert.Zero(t, acc.Vector.Total.HBMTrafficBytes)
	assert.Positive(t, acc.Vector.Total.TimeNano)
}

func TestMatrixEngineCostModel_Time(t *testing.T) {
	h := hal.Default()
	testCases := []struct {
		name      string
		k, n      int
		alignment int
		want      float64
	}{
		// 2 activations of 128 cycles (the minimum) at 1.6GHz.
		{"aligned", 64, 256, 0, 160},
		// Rows of a are 120 bytes, and a is not the reused operand.
		{"lhs_misaligned", 60, 256, 0, 320},
		// Rows of b are 500 bytes, b is reused across the 2 height tiles.
		{"rhs_misaligned", 64, 250, 0, 240},
		{"padded", 60, 250, 128, 160},
		// 2 activations of 1024 cycles.
		{"large_k", 1024, 256, 0, 1280},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStrategy(t, scheduler.GemmConfig{M: 512, K: tc.k, N: tc.n, CacheLineAlignment: tc.alignment})
			op := firstOperation(t, s)
			cost := NewMatrixEngineCostModel(h, s.Arena).CalcCost(op.Node, op.Inputs, op.Outputs)
			assert.Equal(t, types.MatrixEngine, cost.Engine)
			assert.InDelta(t, tc.want, cost.TimeNano, 1e-9)
		})
	}
}

func TestVectorEngineCostModel(t *testing.T) {
	g := graph.New("relu")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 1024, 1024))
	y, err := graph.Relu(x)
	require.NoError(t, err)
	arena := slicing.NewArena()
	xOp, err := arena.NewOperand(x)
	require.NoError(t, err)
	yOp, err := arena.NewOperand(y)
	require.NoError(t, err)
	inputs := []slicing.SliceReference{{Operand: xOp.ID}}
	outputs := []slicing.SliceReference{{Operand: yOp.ID}}
	model := NewVectorEngineCostModel(hal.Default(), arena)
	node := g.Producer(y)
	const size = 1024 * 1024 * 4

	cost := model.CalcCost(node, inputs, outputs)
	assert.Equal(t, uint64(2*size), cost.HBMTrafficBytes)
	assert.Equal(t, 8389.0, cost.TimeNano)

	yOp.ResideInSRAM = true
	cost = model.CalcCost(node, inputs, outputs)
	assert.Equal(t, uint64(size), cost.HBMTrafficBytes)
	assert.Equal(t, 5243.0, cost.TimeNano)

	x.SetInSRAM(true)
	cost = model.CalcCost(node, inputs, outputs)
	assert.Zero(t, cost.HBMTrafficBytes)
	assert.Equal(t, 2098.0, cost.TimeNano)
}

func TestDMAFetchCostModel(t *testing.T) {
	g := graph.New("fetch")
	x := g.Parameter("x", shapes.Make(dtypes.BFloat16, 64, 64))
	y, err := graph.Copy(x)
	require.NoError(t, err)
	arena := slicing.NewArena()
	xOp, err := arena.NewOperand(x)
	require.NoError(t, err)
	require.NoError(t, xOp.SetChunkDimensions(16, 64))
	_, err = arena.NewOperand(y)
	require.NoError(t, err)
	node := g.Producer(y)
	model := NewDMAFetchCostModel(hal.Default(), arena)
	fetch := func(row int) uint64 {
		ref := slicing.SliceReference{Operand: xOp.ID}
		ref.Coord[0] = row
		return model.CalcCost(node, []slicing.SliceReference{ref}, nil).HBMTrafficBytes
	}
	const sliceBytes = 16 * 64 * 2

	// Not placed in scratch memory: never fetched.
	assert.Zero(t, fetch(0))

	xOp.ResideInSRAM = true
	assert.Equal(t, uint64(sliceBytes), fetch(0))
	assert.Zero(t, fetch(0))
	assert.Equal(t, uint64(sliceBytes), fetch(1))
	assert.Equal(t, uint64(sliceBytes), fetch(0))

	// Double buffered: the last 2 slices stay.
	xOp.NumOfBuffers = 2
	assert.Zero(t, fetch(0))
	assert.Equal(t, uint64(sliceBytes), fetch(1))
	assert.Zero(t, fetch(0))
	assert.Equal(t, uint64(sliceBytes), fetch(2))
	assert.Zero(t, fetch(1))
	assert.Equal(t, uint64(sliceBytes), fetch(0))

	// A fresh model has fresh caches.
	model = NewDMAFetchCostModel(hal.Default(), arena)
	assert.Equal(t, uint64(sliceBytes), fetch(1))
}

func TestDMAFetchCostModel_Snake(t *testing.T) {
	config := scheduler.GemmConfig{M: 768, K: 256, N: 384, SlicesM: 3, SlicesN: 3, InputsInSRAM: true, DoubleBuffer: true}
	aSlice, bSlice := uint64(256*256*2), uint64(256*128*2)

	// Going back to the first row evicts the 2 buffered slices of a every time.
	acc := accumulate(t, newStrategy(t, config))
	assert.Equal(t, 9*aSlice+3*bSlice, acc.Fetch.Total.HBMTrafficBytes)

	// Turning around reuses the 2 buffered slices of a.
	config.Snake = true
	acc = accumulate(t, newStrategy(t, config))
	assert.Equal(t, 6*aSlice+3*bSlice, acc.Fetch.Total.HBMTrafficBytes)
}

func TestDMAEvictionCostModel(t *testing.T) {
	// Partial sums are kept in float32 and cast back to bfloat16 while evicted, once per slice.
	s := newStrategy(t, scheduler.GemmConfig{M: 512, K: 512, N: 256, SlicesM: 2, SlicesK: 2})
	out := s.Master.Operand
	require.Equal(t, dtypes.Float32, out.FinalElementType)
	acc := accumulate(t, s)
	assert.Equal(t, uint64(512*256*2), acc.Evict.Total.HBMTrafficBytes)

	model := NewDMAEvictionCostModel(hal.Default(), s)
	outputs := []slicing.SliceReference{{Operand: out.ID}}
	cost := model.CalcCost(nil, nil, outputs)
	assert.Equal(t, types.VectorEngine, cost.Engine)
	assert.Equal(t, uint64(256*256*2), cost.HBMTrafficBytes)
	assert.Zero(t, model.CalcCost(nil, nil, outputs).HBMTrafficBytes)

	// Consumed within the bundle only: not evicted.
	s = newStrategy(t, scheduler.GemmConfig{M: 512, K: 512, N: 256, SlicesM: 2, Epilogue: true})
	require.True(t, s.Master.Operand.ResideInSRAM)
	acc = accumulate(t, s)
	assert.Zero(t, acc.Evict.Total.HBMTrafficBytes)
}

// fixedCosts returns the given times, one per operation.
type fixedCosts []float64

func (f *fixedCosts) CalcCost(*graph.Node, []slicing.SliceReference, []slicing.SliceReference) Cost {
	c := Cost{TimeNano: (*f)[0], HBMTrafficBytes: 10}
	*f = (*f)[1:]
	return c
}

func TestPerEngineAccumulator(t *testing.T) {
	model := &fixedCosts{0, 5, 7, 3, 0}
	acc := NewPerEngineAccumulator(types.VectorEngine, model, 2)
	for range 5 {
		acc.HandleOperation(nil, nil, nil)
	}
	assert.Equal(t, 5, acc.NumOperations)
	assert.Equal(t, Cost{Engine: types.VectorEngine, TimeNano: 15, HBMTrafficBytes: 50}, acc.Total)
	assert.Equal(t, Cost{Engine: types.VectorEngine, TimeNano: 12, HBMTrafficBytes: 20}, acc.Prefix)
	assert.Equal(t, Cost{Engine: types.VectorEngine, TimeNano: 3, HBMTrafficBytes: 10}, acc.Suffix)
	assert.Equal(t, "VEC: 15.0ns, 50 B", acc.Total.String())
}

func TestStrategyCostModel(t *testing.T) {
	model, err := NewStrategyCostModel(hal.Default())
	require.NoError(t, err)
	const overhead = 1000 / 1.6

	// Single matrix multiplication from main memory: bandwidth bound.
	cost, err := model.Model(newStrategy(t, scheduler.GemmConfig{M: 256, K: 128, N: 256}))
	require.NoError(t, err)
	assert.Equal(t, MatrixComputeBound, cost.ExecutionType)
	assert.True(t, cost.BandwidthBound)
	assert.Equal(t, uint64(256*128*2+128*256*2+256*256*2), cost.HBMTrafficBytes)
	assert.InDelta(t, 80, cost.Matrix.TimeNano, 1e-9)
	assert.InDelta(t, 262.144+overhead, cost.TimeNano, 1e-9)

	// The producer of a takes longer than the multiplication, which is only added at the end.
	cost, err = model.Model(newStrategy(t, scheduler.GemmConfig{M: 256, K: 8192, N: 64, Producer: true}))
	require.NoError(t, err)
	assert.Equal(t, VectorComputeBound, cost.ExecutionType)
	assert.Equal(t, "VectorComputeBound", cost.ExecutionType.String())
	assert.False(t, cost.BandwidthBound)
	assert.InDelta(t, 5120, cost.Matrix.TimeNano, 1e-9)
	assert.InDelta(t, 5243, cost.Vector.TimeNano, 1e-9)
	assert.InDelta(t, 5243+5120+overhead, cost.TimeNano, 1e-9)
	assert.Equal(t, 2, cost.NumOperations)

	// Invalid strategies are reported.
	s := newStrategy(t, scheduler.GemmConfig{M: 256, K: 128, N: 256})
	s.Master = nil
	_, err = model.Model(s)
	require.Error(t, err)

	_, err = NewStrategyCostModel(hal.Description{})
	require.Error(t, err)
}

func TestStrategyCost_Less(t *testing.T) {
	a := StrategyCost{TimeNano: 10, HBMTrafficBytes: 100}
	b := StrategyCost{TimeNano: 10, HBMTrafficBytes: 50}
	c := StrategyCost{TimeNano: 5, HBMTrafficBytes: 500}
	assert.True(t, b.Less(a))
	assert.False(t, a.Less(b))
	assert.True(t, c.Less(b))
	assert.False(t, a.Less(a))
}
