package costmodel

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ExecutionType tells which engine bounds the time of a strategy.
type ExecutionType int

//go:generate go tool enumer -type=ExecutionType -output=gen_executiontype_enumer.go strategy.go

const (
	MatrixComputeBound ExecutionType = iota
	VectorComputeBound
)

// StrategyCost is the estimated cost of executing a whole strategy.
type StrategyCost struct {
	Strategy      string
	ExecutionType ExecutionType

	// TimeNano includes the pipeline fill and drain, and the per-slice overhead.
	TimeNano        float64
	HBMTrafficBytes uint64

	// BandwidthBound is set if the time is given by the traffic rather than by the engines.
	BandwidthBound bool

	OverheadNano  float64
	NumOperations int

	// Matrix, Vector, Fetch and Evict are the totals per engine model.
	Matrix, Vector, Fetch, Evict Cost
}

// String implements fmt.Stringer.
func (c StrategyCost) String() string {
	return fmt.Sprintf("%s: %.1fns, %s, %s ops, %s", c.Strategy, c.TimeNano, humanize.Bytes(c.HBMTrafficBytes),
		humanize.Comma(int64(c.NumOperations)), c.ExecutionType)
}

// Less returns whether c is better than other: faster, or with less traffic if equally fast.
func (c StrategyCost) Less(other StrategyCost) bool {
	if c.TimeNano != other.TimeNano {
		return c.TimeNano < other.TimeNano
	}
	return c.HBMTrafficBytes < other.HBMTrafficBytes
}

// StrategyCostModel estimates the cost of strategies on one hardware.
type StrategyCostModel struct {
	hal hal.Description
}

// NewStrategyCostModel returns a model for the hardware, which must be valid.
func NewStrategyCostModel(h hal.Description) (*StrategyCostModel, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &StrategyCostModel{hal: h}, nil
}

// Model walks the strategy, feeding each operation to fresh engine models, and aggregates their costs.
// It can be called concurrently for different strategies.
func (m *StrategyCostModel) Model(s *scheduler.Strategy) (StrategyCost, error) {
	if err := s.Validate(); err != nil {
		return StrategyCost{}, err
	}
	acc := NewStrategyCostAccumulator(m.hal, s)
	if err := scheduler.HandleEachStrategyOperation(s, acc); err != nil {
		return StrategyCost{}, errors.WithMessagef(err, "failed to model strategy %q", s.Name)
	}
	cost := m.aggregate(s, acc)
	klog.V(1).Infof("%s (%s, %s, %s, %s)", cost, cost.Matrix, cost.Vector, cost.Fetch, cost.Evict)
	return cost, nil
}

func (m *StrategyCostModel) aggregate(s *scheduler.Strategy, acc *StrategyCostAccumulator) StrategyCost {
	cost := StrategyCost{
		Strategy: s.Name,
		Matrix:   acc.Matrix.Total,
		Vector:   acc.Vector.Total,
		Fetch:    acc.Fetch.Total,
		Evict:    acc.Evict.Total,
	}
	for _, a := range acc.Accumulators() {
		cost.HBMTrafficBytes += a.Total.HBMTrafficBytes
	}
	cost.NumOperations = acc.Matrix.NumOperations + acc.Vector.NumOperations

	if acc.Vector.Total.TimeNano > acc.Matrix.Total.TimeNano {
		cost.ExecutionType = VectorComputeBound
		cost.TimeNano = acc.Vector.Total.TimeNano
		if !s.HasProducer() {
			cost.TimeNano += acc.Matrix.Prefix.TimeNano + acc.Fetch.Prefix.TimeNano
		}
		if !s.HasConsumer() {
			cost.TimeNano += acc.Matrix.Suffix.TimeNano
		}
	} else {
		cost.ExecutionType = MatrixComputeBound
		cost.TimeNano = acc.Matrix.Total.TimeNano + m.matrixPrefix(s, acc) + m.matrixSuffix(s, acc)
	}

	if bandwidthTime := m.hal.DataMovementNano(cost.HBMTrafficBytes); bandwidthTime > cost.TimeNano {
		cost.TimeNano = bandwidthTime
		cost.BandwidthBound = true
	}
	cost.OverheadNano = m.overhead(s)
	cost.TimeNano += cost.OverheadNano
	return cost
}

// parallel returns the time of two costs overlapping, sharing the main memory bandwidth.
func (m *StrategyCostModel) parallel(a, b Cost) float64 {
	return max(a.TimeNano, b.TimeNano, m.hal.DataMovementNano(a.HBMTrafficBytes+b.HBMTrafficBytes))
}

// matrixPrefix is the time before the first multiplication can start: fetching its inputs, or
// producing them.
func (m *StrategyCostModel) matrixPrefix(s *scheduler.Strategy, acc *StrategyCostAccumulator) float64 {
	if !s.HasProducer() {
		return acc.Fetch.Prefix.TimeNano
	}
	if acc.Fetch.Prefix.TimeNano > 0 {
		return m.parallel(acc.Vector.Prefix, acc.Fetch.Prefix)
	}
	return acc.Vector.Prefix.TimeNano
}

// matrixSuffix is the time after the last multiplication: consuming and evicting its output, if it is in
// scratch memory.
func (m *StrategyCostModel) matrixSuffix(s *scheduler.Strategy, acc *StrategyCostAccumulator) float64 {
	outputInSRAM := false
	for _, p := range s.Traversals() {
		outputInSRAM = outputInSRAM || inSRAM(p.Operand)
	}
	if !outputInSRAM {
		return 0
	}
	if s.HasConsumer() {
		return acc.Vector.Suffix.TimeNano + acc.Evict.Suffix.TimeNano
	}
	return acc.Evict.Suffix.TimeNano
}

// overhead is the fixed cost paid per slice of the most sliced operand, divided among its buffers.
func (m *StrategyCostModel) overhead(s *scheduler.Strategy) float64 {
	maxSlices, numBuffers := 1, 1
	trivial := s.IsTriviallySliced()
	for _, op := range s.Arena.Operands() {
		maxSlices = max(maxSlices, slicing.TotalSlices(op))
		if !trivial && op.ResideInSRAM && op.NumOfBuffers > 1 {
			numBuffers = 2
		}
	}
	return float64(maxSlices) / float64(numBuffers) * m.hal.CyclesToNano(m.hal.OverheadPerSliceCycles)
}
