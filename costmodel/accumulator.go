package costmodel

import (
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
)

// PerEngineAccumulator sums the costs of the operations given by a model for one engine.
//
// Besides the total, it keeps the prefix (the first operations taking time, before the engine's
// pipeline is full) and the suffix (the last operation taking time, draining it).
type PerEngineAccumulator struct {
	model      CostModel
	prefixSize int
	numPrefix  int

	Total, Prefix, Suffix Cost
	NumOperations         int
}

var _ scheduler.OperationHandler = (*PerEngineAccumulator)(nil)

// NewPerEngineAccumulator creates an accumulator for engine, whose prefix holds prefixSize operations.
func NewPerEngineAccumulator(engine types.Engine, model CostModel, prefixSize int) *PerEngineAccumulator {
	zero := Cost{Engine: engine}
	return &PerEngineAccumulator{model: model, prefixSize: prefixSize, Total: zero, Prefix: zero, Suffix: zero}
}

// HandleOperation implements scheduler.OperationHandler.
func (a *PerEngineAccumulator) HandleOperation(node *graph.Node, inputs, outputs []slicing.SliceReference) {
	cost := a.model.CalcCost(node, inputs, outputs)
	a.NumOperations++
	a.Total = a.Total.Add(cost)
	if cost.TimeNano <= 0 {
		return
	}
	if a.numPrefix < a.prefixSize {
		a.Prefix = a.Prefix.Add(cost)
		a.numPrefix++
	}
	a.Suffix = cost
	a.Suffix.Engine = a.Total.Engine
}

// StrategyCostAccumulator routes each operation of a strategy to the model of the engine executing it,
// and to the models of the DMA transfers around it.
type StrategyCostAccumulator struct {
	Matrix, Vector, Fetch, Evict *PerEngineAccumulator
}

var _ scheduler.OperationHandler = (*StrategyCostAccumulator)(nil)

// NewStrategyCostAccumulator creates fresh models for the strategy.
func NewStrategyCostAccumulator(h hal.Description, s *scheduler.Strategy) *StrategyCostAccumulator {
	// Producers of each matrix engine input fill the pipeline before the first multiplication.
	vectorPrefix := min(max(len(s.ProducedInputs()), 1), 2)
	return &StrategyCostAccumulator{
		Matrix: NewPerEngineAccumulator(types.MatrixEngine, NewMatrixEngineCostModel(h, s.Arena), 1),
		Vector: NewPerEngineAccumulator(types.VectorEngine, NewVectorEngineCostModel(h, s.Arena), vectorPrefix),
		Fetch:  NewPerEngineAccumulator(types.DMAEngine, NewDMAFetchCostModel(h, s.Arena), 1),
		Evict:  NewPerEngineAccumulator(types.DMAEngine, NewDMAEvictionCostModel(h, s), 1),
	}
}

// HandleOperation implements scheduler.OperationHandler.
func (a *StrategyCostAccumulator) HandleOperation(node *graph.Node, inputs, outputs []slicing.SliceReference) {
	if node.Engine() == types.MatrixEngine {
		a.Matrix.HandleOperation(node, inputs, outputs)
	} else {
		// Copies are bandwidth bound, like the elementwise kernels.
		a.Vector.HandleOperation(node, inputs, outputs)
	}
	a.Fetch.HandleOperation(node, inputs, outputs)
	a.Evict.HandleOperation(node, inputs, outputs)
}

// Accumulators returns all the accumulators, in a stable order.
func (a *StrategyCostAccumulator) Accumulators() []*PerEngineAccumulator {
	return []*PerEngineAccumulator{a.Matrix, a.Vector, a.Fetch, a.Evict}
}
