package costmodel

import (
	"math"

	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
)

// VectorEngineCostModel models elementwise kernels as bandwidth bound: the time to read and write the
// operands from where they are.
type VectorEngineCostModel struct {
	hal   hal.Description
	arena *slicing.Arena
}

var _ CostModel = (*VectorEngineCostModel)(nil)

// NewVectorEngineCostModel creates the model for the operands in arena.
func NewVectorEngineCostModel(h hal.Description, arena *slicing.Arena) *VectorEngineCostModel {
	return &VectorEngineCostModel{hal: h, arena: arena}
}

// CalcCost implements CostModel. The time is rounded up to whole nanoseconds, and is at least 1.
func (v *VectorEngineCostModel) CalcCost(_ *graph.Node, inputs, outputs []slicing.SliceReference) Cost {
	hbmBytes, sramBytes := trafficOf(v.arena, inputs, outputs)
	nanos := v.hal.DataMovementNano(hbmBytes) + float64(sramBytes)/v.hal.SRAMBandwidthGBps
	return Cost{
		Engine:          types.VectorEngine,
		TimeNano:        max(math.Ceil(nanos), 1),
		HBMTrafficBytes: hbmBytes,
	}
}
