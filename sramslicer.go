// Package sramslicer schedules large tensor operations on accelerators with a small scratch memory
// (SRAM) and several heterogeneous engines.
//
// Operands too large for the scratch memory are cut into grids of slices, the grids are traversed in a
// configurable order, and each bundle of fused nodes is turned into an ordered list of per-slice
// operations whose cost can be estimated per engine.
//
// Among its features:
//
//   - Sliced operands and traversal patterns, including snake order and sliced accumulation
//     (package slicing).
//   - Lockstep traversal of sibling outputs, double buffering lookahead and on-demand generation of
//     producer slices (package scheduler).
//   - Cost models of the matrix engine, vector engine and DMA transfers, and their aggregation into the
//     cost of a strategy (package costmodel).
//   - Concurrent evaluation of candidate strategies (EvaluateStrategies).
//
// The hardware is described by package hal, and the graph of the bundles by package graph.
package sramslicer

import (
	"context"

	"github.com/gomlx/sramslicer/costmodel"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// GenerateSolution walks the strategy and returns the ordered operations that realize it.
func GenerateSolution(s *scheduler.Strategy) (*scheduler.Solution, error) {
	return scheduler.NewSolutionGenerator(s).FillSolution()
}

// Evaluation of one candidate strategy.
type Evaluation struct {
	// Index of the strategy in the list of candidates.
	Index    int
	Strategy *scheduler.Strategy
	Cost     costmodel.StrategyCost

	// Err is set if the strategy is invalid, in which case Cost is not set.
	Err error
}

// EvaluateOptions configures EvaluateStrategies.
type EvaluateOptions struct {
	// Parallelism is the maximum number of concurrent evaluations. Values <= 0 mean no limit.
	Parallelism int

	// OnEvaluated, if set, is called after each evaluation, possibly concurrently.
	OnEvaluated func(Evaluation)
}

// EvaluateStrategies estimates the cost of each candidate on the given hardware, concurrently.
//
// Invalid candidates are not an error: their Evaluation.Err is set instead. An error is returned if
// the hardware description is invalid or the context is cancelled.
func EvaluateStrategies(ctx context.Context, h hal.Description, candidates []*scheduler.Strategy, options EvaluateOptions) ([]Evaluation, error) {
	model, err := costmodel.NewStrategyCostModel(h)
	if err != nil {
		return nil, err
	}
	evaluations := make([]Evaluation, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	if options.Parallelism > 0 {
		g.SetLimit(options.Parallelism)
	}
	for i, s := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e := Evaluation{Index: i, Strategy: s}
			e.Cost, e.Err = model.Model(s)
			evaluations[i] = e
			if options.OnEvaluated != nil {
				options.OnEvaluated(e)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "evaluation of %d strategies interrupted", len(candidates))
	}
	return evaluations, nil
}

// BestStrategy returns the index of the fastest valid evaluation. Ties are broken by the smallest
// traffic, and then by the order of the candidates.
func BestStrategy(evaluations []Evaluation) (int, error) {
	best := -1
	for i, e := range evaluations {
		if e.Err != nil {
			continue
		}
		if best < 0 || e.Cost.Less(evaluations[best].Cost) {
			best = i
		}
	}
	if best < 0 {
		return -1, errors.Errorf("none of the %d strategies is valid", len(evaluations))
	}
	return best, nil
}
