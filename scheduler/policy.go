package scheduler

import "github.com/gomlx/sramslicer/slicing"

// Policy controls when forward-mapped operations are emitted.
type Policy struct {
	Name string

	// EmitForward is called after the operation producing an output slice of the master traversal is
	// emitted, and returns whether the operations consuming it should be emitted now.
	EmitForward func(pair slicing.SliceRefCommonDimIdxPair, numCommonDimSlices int) bool

	// SkipForward returns whether a forward-mapped operation with the given outputs should be skipped.
	SkipForward func(outputs []slicing.SliceReference, isGenerated func(slicing.SliceReference) bool) bool
}

// DefaultPolicy emits the consumers once the accumulation of an output slice is complete, and never
// emits an operation whose outputs were all generated already.
var DefaultPolicy = Policy{
	Name: "default",
	EmitForward: func(pair slicing.SliceRefCommonDimIdxPair, numCommonDimSlices int) bool {
		return pair.CommonDimIdx == numCommonDimSlices-1
	},
	SkipForward: func(outputs []slicing.SliceReference, isGenerated func(slicing.SliceReference) bool) bool {
		for _, ref := range outputs {
			if !isGenerated(ref) {
				return false
			}
		}
		return true
	},
}

// AccumulatingPolicy emits the consumers after every partial result, for consumers that accumulate
// themselves. Nothing is de-duplicated.
var AccumulatingPolicy = Policy{
	Name: "accumulating",
	EmitForward: func(slicing.SliceRefCommonDimIdxPair, int) bool {
		return true
	},
	SkipForward: func([]slicing.SliceReference, func(slicing.SliceReference) bool) bool {
		return false
	},
}

func (p Policy) orDefault() Policy {
	if p.EmitForward == nil || p.SkipForward == nil {
		return DefaultPolicy
	}
	return p
}
