// Package scheduler turns a slicing strategy for a bundle of fused nodes into a linear,
// dependency-correct order of per-slice operations.
//
// The walker (HandleEachStrategyOperation) drives the traversal of the bundle outputs, schedules the
// generation of the slices of bundle-internal inputs (with lookahead for multi-buffered operands), and
// emits forward-mapped consumer operations. Each operation is delivered to an OperationHandler:
// SolutionGenerator collects them into a Solution, and the cost model accumulates their costs.
package scheduler

import (
	"slices"

	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/mapping"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/pkg/errors"
)

// Strategy is the slicing of one bundle: the sliced operands, the traversal of its outputs and the
// mappings between the slices of the operands of each node.
type Strategy struct {
	Name  string
	Graph *graph.Graph
	Arena *slicing.Arena

	// Master is the traversal of the main output of the bundle, Slaves of sibling outputs traversed in
	// lockstep with it.
	Master *slicing.TraversalPattern
	Slaves []*slicing.TraversalPattern

	// Policy for forward-mapped operations. The zero value means DefaultPolicy.
	Policy Policy

	nodes    []*graph.Node
	backward map[slicing.OperandID]mapping.Backward
	forward  map[slicing.OperandID]mapping.Forward

	// err is the first error found while adding nodes, reported by Validate.
	err error
}

// NewStrategy creates a strategy for the graph g, whose master output is traversed by master.
// Nodes are added to the bundle with AddBackward.
func NewStrategy(name string, g *graph.Graph, arena *slicing.Arena, master *slicing.TraversalPattern, slaves ...*slicing.TraversalPattern) *Strategy {
	return &Strategy{
		Name:     name,
		Graph:    g,
		Arena:    arena,
		Master:   master,
		Slaves:   slaves,
		backward: make(map[slicing.OperandID]mapping.Backward),
		forward:  make(map[slicing.OperandID]mapping.Forward),
	}
}

// AddBackward adds the node of the mapping to the bundle and registers the mapping for each of its outputs.
//
// Node outputs not sliced yet get a trivially sliced operand, so that walking the strategy never changes
// the arena.
func (s *Strategy) AddBackward(m mapping.Backward) *Strategy {
	node := m.Node()
	if !slices.Contains(s.nodes, node) {
		s.nodes = append(s.nodes, node)
	}
	for _, t := range node.Outputs {
		if _, found := s.Arena.OperandFor(t); found {
			continue
		}
		if _, err := s.Arena.NewOperand(t); err != nil && s.err == nil {
			s.err = errors.WithMessagef(err, "strategy %q: output of node %q", s.Name, node.Name)
		}
	}
	for _, output := range m.Outputs() {
		s.backward[output.ID] = m
	}
	return s
}

// AddForward registers the forward mapping of the slices of key.
func (s *Strategy) AddForward(key *slicing.SlicedOperand, m mapping.Forward) *Strategy {
	s.forward[key.ID] = m
	return s
}

// Nodes of the bundle, in the order they were added.
func (s *Strategy) Nodes() []*graph.Node { return slices.Clone(s.nodes) }

// Contains returns whether the node is part of the bundle.
func (s *Strategy) Contains(node *graph.Node) bool { return slices.Contains(s.nodes, node) }

// Backward returns the mapping of the node producing the operand, or nil if it is not produced in the bundle.
func (s *Strategy) Backward(id slicing.OperandID) mapping.Backward { return s.backward[id] }

// Forward returns the forward mapping from the operand, or nil.
func (s *Strategy) Forward(id slicing.OperandID) mapping.Forward { return s.forward[id] }

// Traversals returns the master followed by the slaves.
func (s *Strategy) Traversals() []*slicing.TraversalPattern {
	return append([]*slicing.TraversalPattern{s.Master}, s.Slaves...)
}

// IsTraversed returns whether the operand is the master or one of the slaves.
func (s *Strategy) IsTraversed(id slicing.OperandID) bool {
	for _, p := range s.Traversals() {
		if p.Operand.ID == id {
			return true
		}
	}
	return false
}

// ProducedInputs returns the operands produced in the bundle to be consumed by the traversed outputs,
// directly or transitively, sorted by id.
func (s *Strategy) ProducedInputs() []*slicing.SlicedOperand {
	visited := utils.MakeSet[slicing.OperandID]()
	var visit func(m mapping.Backward)
	visit = func(m mapping.Backward) {
		for _, input := range m.Inputs() {
			producer := s.backward[input.ID]
			if producer == nil || visited.Has(input.ID) || s.IsTraversed(input.ID) {
				continue
			}
			visited.Insert(input.ID)
			visit(producer)
		}
	}
	for _, p := range s.Traversals() {
		visit(s.backward[p.Operand.ID])
	}
	ids := utils.SortedKeys(visited)
	operands := make([]*slicing.SlicedOperand, len(ids))
	for i, id := range ids {
		operands[i] = s.Arena.Operand(id)
	}
	return operands
}

// HasProducer returns whether some input of the traversed outputs is produced in the bundle.
func (s *Strategy) HasProducer() bool { return len(s.ProducedInputs()) > 0 }

// HasConsumer returns whether the slices of some operand are consumed by forward-mapped operations.
func (s *Strategy) HasConsumer() bool { return len(s.forward) > 0 }

// ConsumedOutside returns whether the operand's tensor is consumed by a node outside the bundle.
func (s *Strategy) ConsumedOutside(op *slicing.SlicedOperand) bool {
	for _, consumer := range s.Graph.Consumers(op.Tensor) {
		if !s.Contains(consumer) {
			return true
		}
	}
	return false
}

// IsEvicted returns whether the slices of the operand end up in scratch memory and must be copied out,
// because the tensor is persistent or is consumed outside the bundle.
func (s *Strategy) IsEvicted(op *slicing.SlicedOperand) bool {
	if !op.ResideInSRAM && !op.Tensor.InSRAM() {
		return false
	}
	return op.Tensor.Persistent() || s.ConsumedOutside(op)
}

// OutputSlices returns a ready to drive iterator over the slices of the traversed outputs.
func (s *Strategy) OutputSlices() *slicing.MultiOperandSliceIterator {
	return slicing.NewMultiOperandSliceIterator(s.Master, s.Slaves...)
}

// IsTriviallySliced returns whether no operand of the strategy is sliced.
func (s *Strategy) IsTriviallySliced() bool {
	for _, op := range s.Arena.Operands() {
		if !slicing.IsTriviallySliced(op) {
			return false
		}
	}
	return true
}

// SRAMFootprint is the number of bytes of scratch memory needed by the buffers of the operands placed
// there, using the size of their largest (first) slice.
func (s *Strategy) SRAMFootprint() uint64 {
	var total uint64
	var first slicing.Coordinate
	for _, op := range s.Arena.Operands() {
		if op.ResideInSRAM {
			total += uint64(max(op.NumOfBuffers, 1)) * slicing.SliceSizeInBytes(op, first, false)
		}
	}
	return total
}

// Validate checks that the strategy is complete: every traversed operand must be produced by a node of
// the bundle with the same number of common dimension slices as its traversal.
func (s *Strategy) Validate() error {
	if s.err != nil {
		return s.err
	}
	if s.Master == nil {
		return errors.Errorf("strategy %q has no master traversal", s.Name)
	}
	for _, p := range s.Traversals() {
		m := s.backward[p.Operand.ID]
		if m == nil {
			return errors.Errorf("strategy %q: traversed operand %q is not produced in the bundle", s.Name, p.Operand.Name())
		}
		if m.NumCommonDimSlices() != p.NumCommonDimSlices {
			return errors.Errorf("strategy %q: traversal of %q has %d common dimension slices, node %q has %d",
				s.Name, p.Operand.Name(), p.NumCommonDimSlices, m.Node().Name, m.NumCommonDimSlices())
		}
	}
	for _, node := range s.nodes {
		if s.Graph.NodeByName(node.Name) != node {
			return errors.Errorf("strategy %q: node %q is not part of graph %q", s.Name, node.Name, s.Graph.Name())
		}
	}
	return nil
}
