package mapping

import (
	"github.com/gomlx/sramslicer/slicing"
	"github.com/pkg/errors"
)

// FanOutForward maps slices of a key operand to the operations of its consumers.
//
// For each consumer, the output slice is found by copying the key coordinate into every axis where the
// consumer's output has the same extent as the key, and its inputs are then given by the consumer's
// backward mapping.
type FanOutForward struct {
	key       *slicing.SlicedOperand
	consumers []Backward
}

var _ Forward = (*FanOutForward)(nil)

// NewFanOutForward creates the forward mapping of key to the given consumers, which must all take key as
// an input.
func NewFanOutForward(key *slicing.SlicedOperand, consumers ...Backward) (*FanOutForward, error) {
	for _, consumer := range consumers {
		isInput := false
		for _, input := range consumer.Inputs() {
			if input == key {
				isInput = true
				break
			}
		}
		if !isInput {
			return nil, errors.Errorf("node %q does not consume %q", consumer.Node().Name, key.Name())
		}
		if consumer.NumCommonDimSlices() != 1 {
			return nil, errors.Errorf("node %q reduces over a sliced axis, it cannot be forward mapped from %q",
				consumer.Node().Name, key.Name())
		}
		output := consumer.Outputs()[0]
		if output.Rank() != key.Rank() {
			return nil, errors.Errorf("node %q: output %q has rank %d, but %q has rank %d",
				consumer.Node().Name, output.Name(), output.Rank(), key.Name(), key.Rank())
		}
	}
	return &FanOutForward{key: key, consumers: consumers}, nil
}

// Key operand mapped from.
func (f *FanOutForward) Key() *slicing.SlicedOperand { return f.key }

// InputsAndOutputs implements Forward.
func (f *FanOutForward) InputsAndOutputs(ref slicing.SliceReference) []InputsAndOutputs {
	keyDims := f.key.Shape().Dimensions
	results := make([]InputsAndOutputs, 0, len(f.consumers))
	for _, consumer := range f.consumers {
		output := consumer.Outputs()[0]
		outputRef := slicing.SliceReference{Operand: output.ID}
		for axis, dim := range output.Shape().Dimensions {
			if dim == keyDims[axis] {
				outputRef.Coord[axis] = ref.Coord[axis]
			}
		}
		pair := slicing.SliceRefCommonDimIdxPair{Ref: outputRef}
		results = append(results, InputsAndOutputs{
			Node:    consumer.Node(),
			Inputs:  consumer.MapInputs(pair),
			Outputs: consumer.MapOutputs(outputRef),
		})
	}
	return results
}
