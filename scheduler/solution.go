package scheduler

import (
	"fmt"
	"io"

	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types"
	"github.com/pkg/errors"
)

// Operation is one node computed on one set of slices.
type Operation struct {
	Node            *graph.Node
	Inputs, Outputs []slicing.SliceReference
}

// Engine executing the operation.
func (op Operation) Engine() types.Engine { return op.Node.Engine() }

// Solution is the result of walking a strategy: the sliced operands and the ordered operations.
type Solution struct {
	Strategy   *Strategy
	Operands   []*slicing.SlicedOperand
	Operations []Operation
}

// Write the solution in a readable form: the operands followed by the operations, one per line.
func (s *Solution) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	arena := s.Strategy.Arena
	w("solution %q: %d operands, %d operations\n", s.Strategy.Name, len(s.Operands), len(s.Operations))
	for _, op := range s.Operands {
		w("  %s\n", op)
	}
	for i, op := range s.Operations {
		w("  #%d %s @%s (%s) -> (%s)\n", i, op.Node.Name, op.Engine().ShortName(),
			arena.FormatList(op.Inputs), arena.FormatList(op.Outputs))
	}
	return err
}

// SolutionGenerator collects the operations of a strategy into a Solution.
type SolutionGenerator struct {
	strategy *Strategy
	solution *Solution
}

var _ OperationHandler = (*SolutionGenerator)(nil)

// NewSolutionGenerator creates a generator for the strategy.
func NewSolutionGenerator(s *Strategy) *SolutionGenerator {
	return &SolutionGenerator{strategy: s}
}

// HandleOperation implements OperationHandler.
func (g *SolutionGenerator) HandleOperation(node *graph.Node, inputs, outputs []slicing.SliceReference) {
	g.solution.Operations = append(g.solution.Operations, Operation{Node: node, Inputs: inputs, Outputs: outputs})
}

// FillSolution walks the strategy and returns its solution.
func (g *SolutionGenerator) FillSolution() (*Solution, error) {
	g.solution = &Solution{Strategy: g.strategy}
	if err := HandleEachStrategyOperation(g.strategy, g); err != nil {
		return nil, errors.WithMessagef(err, "failed to generate solution for strategy %q", g.strategy.Name)
	}
	g.solution.Operands = g.strategy.Arena.Operands()
	return g.solution, nil
}
