package sramslicer

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/gomlx/sramslicer/costmodel"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []*scheduler.Strategy {
	var strategies []*scheduler.Strategy
	for _, snake := range []bool{false, true} {
		for slicesM := 1; slicesM <= 4; slicesM++ {
			strategies = append(strategies, must.M1(scheduler.NewGemmStrategy(scheduler.GemmConfig{
				M: 1024, K: 512, N: 768, SlicesM: slicesM, SlicesN: 3, Snake: snake,
				InputsInSRAM: true, DoubleBuffer: true, Epilogue: true,
			})))
		}
	}
	return strategies
}

func TestGenerateSolution(t *testing.T) {
	s := candidates()[1]
	sol, err := GenerateSolution(s)
	require.NoError(t, err)
	assert.Equal(t, s, sol.Strategy)
	// 2x3 slices of the output, each followed by the epilogue.
	assert.Len(t, sol.Operations, 12)
}

func TestEvaluateStrategies(t *testing.T) {
	strategies := candidates()
	invalid := must.M1(scheduler.NewGemmStrategy(scheduler.GemmConfig{M: 64, K: 64, N: 64}))
	invalid.Master = nil
	strategies = append(strategies, invalid)

	var numEvaluated atomic.Int32
	evaluations, err := EvaluateStrategies(context.Background(), hal.Default(), strategies, EvaluateOptions{
		Parallelism: 3,
		OnEvaluated: func(Evaluation) { numEvaluated.Add(1) },
	})
	require.NoError(t, err)
	require.Len(t, evaluations, len(strategies))
	assert.Equal(t, int32(len(strategies)), numEvaluated.Load())

	// Same results as evaluating sequentially.
	model := must.M1(costmodel.NewStrategyCostModel(hal.Default()))
	for i, e := range evaluations[:len(evaluations)-1] {
		require.NoError(t, e.Err)
		assert.Equal(t, i, e.Index)
		assert.Equal(t, strategies[i], e.Strategy)
		assert.Equal(t, must.M1(model.Model(strategies[i])), e.Cost)
	}
	require.Error(t, evaluations[len(evaluations)-1].Err)

	best, err := BestStrategy(evaluations)
	require.NoError(t, err)
	for _, e := range evaluations {
		if e.Err == nil {
			assert.False(t, e.Cost.Less(evaluations[best].Cost))
		}
	}

	// Invalid hardware.
	_, err = EvaluateStrategies(context.Background(), hal.Description{}, strategies, EvaluateOptions{})
	require.Error(t, err)

	// Cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EvaluateStrategies(ctx, hal.Default(), strategies, EvaluateOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBestStrategy(t *testing.T) {
	evaluations := []Evaluation{
		{Index: 0, Cost: costmodel.StrategyCost{TimeNano: 10, HBMTrafficBytes: 100}},
		{Index: 1, Err: errors.New("invalid")},
		{Index: 2, Cost: costmodel.StrategyCost{TimeNano: 10, HBMTrafficBytes: 50}},
		{Index: 3, Cost: costmodel.StrategyCost{TimeNano: 10, HBMTrafficBytes: 50}},
		{Index: 4, Cost: costmodel.StrategyCost{TimeNano: 20, HBMTrafficBytes: 1}},
	}
	best, err := BestStrategy(evaluations)
	require.NoError(t, err)
	assert.Equal(t, 2, best)

	_, err = BestStrategy(evaluations[1:2])
	require.Error(t, err)
	_, err = BestStrategy(nil)
	require.Error(t, err)
}
