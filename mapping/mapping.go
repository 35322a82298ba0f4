// Package mapping implements the slice mappings between the operands of a node: backward from an output
// slice to the input slices needed to compute it, and forward from a produced slice to the operations
// of the bundle that can consume it right away.
//
// Mappings are pure functions of the slice references, they never modify the operands.
package mapping

import (
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/slicing"
)

// Backward maps the slices of the outputs of one node to the slices of its inputs.
type Backward interface {
	// Node whose operands are mapped.
	Node() *graph.Node

	// Inputs and Outputs are the sliced operands of the node, in the node's order.
	Inputs() []*slicing.SlicedOperand
	Outputs() []*slicing.SlicedOperand

	// NumCommonDimSlices is the number of slices of the accumulation dimension: each output slice is
	// computed by that many operations.
	NumCommonDimSlices() int

	// MapInputs returns the input slices needed to compute the given output slice, for the given index
	// of the accumulation dimension.
	MapInputs(pair slicing.SliceRefCommonDimIdxPair) []slicing.SliceReference

	// MapOutputs returns all output slices computed together with the given one, itself included.
	MapOutputs(ref slicing.SliceReference) []slicing.SliceReference
}

// InputsAndOutputs of one operation.
type InputsAndOutputs struct {
	Node    *graph.Node
	Inputs  []slicing.SliceReference
	Outputs []slicing.SliceReference
}

// Forward maps a slice to the operations consuming it.
type Forward interface {
	InputsAndOutputs(ref slicing.SliceReference) []InputsAndOutputs
}

// operandsOf returns the sliced operands of the tensors, or the first tensor that is not sliced.
func operandsOf(arena *slicing.Arena, tensors []*graph.Tensor) ([]*slicing.SlicedOperand, *graph.Tensor) {
	ops := make([]*slicing.SlicedOperand, len(tensors))
	for i, t := range tensors {
		op, found := arena.OperandFor(t)
		if !found {
			return nil, t
		}
		ops[i] = op
	}
	return ops, nil
}
