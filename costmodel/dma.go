package costmodel

import (
	"slices"

	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
)

// DMAFetchCostModel counts the copies of input slices from main memory into scratch memory.
//
// Each operand has a simulated FIFO cache of its last NumOfBuffers slices: a slice still in one of
// the buffers is not fetched again.
type DMAFetchCostModel struct {
	hal    hal.Description
	arena  *slicing.Arena
	caches map[slicing.OperandID][]slicing.Coordinate
}

var _ CostModel = (*DMAFetchCostModel)(nil)

// NewDMAFetchCostModel creates the model for the operands in arena, with empty caches.
func NewDMAFetchCostModel(h hal.Description, arena *slicing.Arena) *DMAFetchCostModel {
	return &DMAFetchCostModel{hal: h, arena: arena, caches: make(map[slicing.OperandID][]slicing.Coordinate)}
}

// lookup returns whether the slice is cached, and caches it otherwise.
func (d *DMAFetchCostModel) lookup(op *slicing.SlicedOperand, coord slicing.Coordinate) bool {
	cache := d.caches[op.ID]
	if slices.Contains(cache, coord) {
		return true
	}
	if capacity := max(op.NumOfBuffers, 1); len(cache) >= capacity {
		cache = cache[len(cache)-capacity+1:]
	}
	d.caches[op.ID] = append(slices.Clone(cache), coord)
	return false
}

// CalcCost implements CostModel. Output slices written in scratch memory are registered in the caches,
// but don't cost anything.
func (d *DMAFetchCostModel) CalcCost(_ *graph.Node, inputs, outputs []slicing.SliceReference) Cost {
	var traffic uint64
	for _, ref := range inputs {
		op := d.arena.Operand(ref.Operand)
		if !op.ResideInSRAM || op.Tensor.InSRAM() {
			continue
		}
		if !d.lookup(op, ref.Coord) {
			traffic += slicing.SliceSizeInBytes(op, ref.Coord, true)
		}
	}
	for _, ref := range outputs {
		op := d.arena.Operand(ref.Operand)
		if op.ResideInSRAM {
			d.lookup(op, ref.Coord)
		}
	}
	return Cost{Engine: types.DMAEngine, TimeNano: d.hal.DataMovementNano(traffic), HBMTrafficBytes: traffic}
}

// DMAEvictionCostModel counts the copies of output slices from scratch memory back to main memory, for
// the outputs that are persistent or consumed outside the bundle.
//
// Slices kept in a different dtype than their tensor (partial sums) are cast back while evicted, by the
// vector engine.
type DMAEvictionCostModel struct {
	hal      hal.Description
	strategy *scheduler.Strategy
	evicted  utils.Set[slicing.SliceReference]
}

var _ CostModel = (*DMAEvictionCostModel)(nil)

// NewDMAEvictionCostModel creates the model for the operands of the strategy.
func NewDMAEvictionCostModel(h hal.Description, s *scheduler.Strategy) *DMAEvictionCostModel {
	return &DMAEvictionCostModel{hal: h, strategy: s, evicted: utils.MakeSet[slicing.SliceReference]()}
}

// CalcCost implements CostModel.
func (d *DMAEvictionCostModel) CalcCost(_ *graph.Node, _, outputs []slicing.SliceReference) Cost {
	cost := Cost{Engine: types.DMAEngine}
	for _, ref := range outputs {
		op := d.strategy.Arena.Operand(ref.Operand)
		if !op.ResideInSRAM || op.Tensor.InSRAM() || d.evicted.Has(ref) || !d.strategy.IsEvicted(op) {
			continue
		}
		d.evicted.Insert(ref)
		cast := op.FinalElementType != op.OriginalElementType()
		if cast {
			cost.Engine = types.VectorEngine
		}
		cost.HBMTrafficBytes += slicing.SliceSizeInBytes(op, ref.Coord, cast)
	}
	cost.TimeNano = d.hal.DataMovementNano(cost.HBMTrafficBytes)
	return cost
}
