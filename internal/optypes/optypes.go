// Package optypes defines OpType and lists the supported operations.
package optypes

import (
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/types"
)

// OpType is an enum of the graph operations the slicer knows how to schedule.
type OpType int

//go:generate go tool enumer -type=OpType -output=gen_optype_enumer.go optypes.go

const (
	Invalid OpType = iota

	// Matrix engine operations.
	MatMul
	BatchMatMul

	// Vector engine operations: elementwise kernels.
	Add
	Sub
	Mul
	Max
	Relu
	Exp
	Tanh
	ConvertDType
	Dropout

	// DMA engine operations.
	Copy

	// Last should always be kept the last, it is used as a counter/marker.
	Last
)

// Name returns the snake-case name of the operation, as used in the text dumps.
func (op OpType) Name() string {
	return utils.ToSnakeCase(op.String())
}

// Engine returns the engine that executes operations of this type.
func (op OpType) Engine() types.Engine {
	switch op {
	case MatMul, BatchMatMul:
		return types.MatrixEngine
	case Copy:
		return types.DMAEngine
	case Invalid, Last:
		return types.InvalidEngine
	default:
		return types.VectorEngine
	}
}

// IsElementwise returns whether each output element depends only on the input elements at the same
// (broadcast) position.
func (op OpType) IsElementwise() bool {
	switch op {
	case Add, Sub, Mul, Max, Relu, Exp, Tanh, ConvertDType, Dropout, Copy:
		return true
	}
	return false
}
