// Package costmodel estimates the processing time and the main memory traffic of the operations of a
// strategy, per engine, and aggregates them into the cost of the whole strategy.
//
// Each engine model implements CostModel for one operation. The models keep per-evaluation state
// (simulated caches, evicted slices), so a new set of models must be created for each strategy.
package costmodel

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
)

// Cost of one or more operations.
type Cost struct {
	Engine types.Engine

	// TimeNano is the processing time in nanoseconds.
	TimeNano float64

	// HBMTrafficBytes is the number of bytes crossing the boundary between scratch memory and main memory.
	HBMTrafficBytes uint64
}

// Add returns the cost of running c and other one after the other, attributed to c's engine.
func (c Cost) Add(other Cost) Cost {
	c.TimeNano += other.TimeNano
	c.HBMTrafficBytes += other.HBMTrafficBytes
	return c
}

// String implements fmt.Stringer.
func (c Cost) String() string {
	return fmt.Sprintf("%s: %.1fns, %s", c.Engine.ShortName(), c.TimeNano, humanize.Bytes(c.HBMTrafficBytes))
}

// CostModel estimates the cost of one operation on the given slices.
type CostModel interface {
	CalcCost(node *graph.Node, inputs, outputs []slicing.SliceReference) Cost
}

// inSRAM returns whether the operand's slices are (or its whole tensor is) in scratch memory.
func inSRAM(op *slicing.SlicedOperand) bool {
	return op.ResideInSRAM || op.Tensor.InSRAM()
}

// trafficOf sums the bytes of the slices not in scratch memory, and of those in scratch memory.
func trafficOf(arena *slicing.Arena, refLists ...[]slicing.SliceReference) (hbmBytes, sramBytes uint64) {
	for _, refs := range refLists {
		for _, ref := range refs {
			op := arena.Operand(ref.Operand)
			size := slicing.SliceSizeInBytes(op, ref.Coord, false)
			if inSRAM(op) {
				sramBytes += size
			} else {
				hbmBytes += size
			}
		}
	}
	return
}
