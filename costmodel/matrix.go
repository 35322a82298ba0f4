package costmodel

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
)

// MatrixEngineCostModel models matrix multiplications: the output slice is computed one geometry tile
// per activation, each activation taking as many cycles as the accumulation size (with a minimum).
type MatrixEngineCostModel struct {
	hal   hal.Description
	arena *slicing.Arena
}

var _ CostModel = (*MatrixEngineCostModel)(nil)

// NewMatrixEngineCostModel creates the model for the operands in arena.
func NewMatrixEngineCostModel(h hal.Description, arena *slicing.Arena) *MatrixEngineCostModel {
	return &MatrixEngineCostModel{hal: h, arena: arena}
}

// CalcCost implements CostModel.
func (m *MatrixEngineCostModel) CalcCost(node *graph.Node, inputs, outputs []slicing.SliceReference) Cost {
	if len(inputs) < 2 || len(outputs) < 1 {
		exceptions.Panicf("matrix engine operation %q requires 2 inputs and 1 output, got %d and %d",
			node.Name, len(inputs), len(outputs))
	}
	hbmBytes, _ := trafficOf(m.arena, inputs, outputs)

	lhs, rhs := m.arena.Operand(inputs[0].Operand), m.arena.Operand(inputs[1].Operand)
	outSizes := slicing.SliceSizes(m.arena.Operand(outputs[0].Operand), outputs[0].Coord)
	rank := len(outSizes)
	height, width := outSizes[rank-2], outSizes[rank-1]
	batch := utils.Product(outSizes[:rank-2]...)
	lhsSizes := slicing.SliceSizes(lhs, inputs[0].Coord)
	commonDim := lhsSizes[len(lhsSizes)-1]

	heightTiles := utils.CeilDiv(height, m.hal.MMEGeometryHeight)
	widthTiles := utils.CeilDiv(width, m.hal.MMEGeometryWidth)
	activations := heightTiles * widthTiles * batch
	cyclesPerActivation := max(commonDim, m.hal.MMEMinCommonDim)
	penalty := m.alignmentPenalty(m.isAligned(lhs, inputs[0]), m.isAligned(rhs, inputs[1]), heightTiles, widthTiles)
	return Cost{
		Engine:          types.MatrixEngine,
		TimeNano:        m.hal.CyclesToNano(float64(activations*cyclesPerActivation)) * penalty,
		HBMTrafficBytes: hbmBytes,
	}
}

// isAligned returns whether the rows of the slice start at cache line boundaries.
func (m *MatrixEngineCostModel) isAligned(op *slicing.SlicedOperand, ref slicing.SliceReference) bool {
	if op.CacheLineAlignment > 0 {
		return true
	}
	rank := op.Rank()
	elementSize := utils.DTypeBytes(op.FinalElementType)
	rowBytes := op.Shape().Dimensions[rank-1] * elementSize
	offsetBytes := ref.Coord[rank-1] * op.ChunkDimensions[rank-1] * elementSize
	return rowBytes%m.hal.CacheLineSize == 0 && offsetBytes%m.hal.CacheLineSize == 0
}

// alignmentPenalty is the slow down caused by misaligned reads.
//
// The operand spanning fewer tiles is read once into the staging buffer and reused for the N tiles of
// the other one, so its misalignment is only paid once every N tiles.
func (m *MatrixEngineCostModel) alignmentPenalty(lhsAligned, rhsAligned bool, heightTiles, widthTiles int) float64 {
	if lhsAligned && rhsAligned {
		return 1
	}
	if !lhsAligned && !rhsAligned {
		return 2
	}
	reusedIsLHS := widthTiles >= heightTiles
	numTiles := heightTiles
	if reusedIsLHS {
		numTiles = widthTiles
	}
	misalignedIsReused := (reusedIsLHS && !lhsAligned) || (!reusedIsLHS && !rhsAligned)
	if !misalignedIsReused {
		return 2
	}
	return float64(1+numTiles) / float64(numTiles)
}
