package scheduler

import (
	"maps"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/mapping"
	"github.com/gomlx/sramslicer/slicing"
	"k8s.io/klog/v2"
)

// OperationHandler receives the operations of a strategy, in order.
type OperationHandler interface {
	HandleOperation(node *graph.Node, inputs, outputs []slicing.SliceReference)
}

// OperationHandlerFunc adapts a function to an OperationHandler.
type OperationHandlerFunc func(node *graph.Node, inputs, outputs []slicing.SliceReference)

// HandleOperation implements OperationHandler.
func (f OperationHandlerFunc) HandleOperation(node *graph.Node, inputs, outputs []slicing.SliceReference) {
	f(node, inputs, outputs)
}

// HandleEachStrategyOperation walks the strategy and calls handler for each operation needed to compute
// the bundle, in execution order.
//
// An invalid strategy, or an inconsistency found while walking it, is returned as an error, and the
// handler may have received part of the operations.
func HandleEachStrategyOperation(s *Strategy, handler OperationHandler) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return exceptions.TryCatch[error](func() {
		newWalker(s, handler).run()
	})
}

type generationState int

const (
	stateNormal generationState = iota
	stateStitchingOnMultiDimsEncountered
	stateCreateMultipleInputOps
)

// inputGeneration tracks the slices of one bundle-internal input still to be generated.
type inputGeneration struct {
	operand *slicing.SlicedOperand

	// queue of slices in the order they are consumed, without consecutive repetitions.
	queue []slicing.SliceReference

	// swapPoints are the positions of the output traversal where the next slice must be ready.
	swapPoints []int

	state generationState
}

func (g *inputGeneration) pop() (ref slicing.SliceReference, ok bool) {
	if len(g.queue) == 0 {
		return
	}
	ref, g.queue = g.queue[0], g.queue[1:]
	return ref, true
}

type walker struct {
	strategy  *Strategy
	policy    Policy
	handler   OperationHandler
	generated utils.Set[slicing.SliceReference]
	inputs    []*inputGeneration
	warned    utils.Set[*graph.Node]
}

func newWalker(s *Strategy, handler OperationHandler) *walker {
	return &walker{
		strategy:  s,
		policy:    s.Policy.orDefault(),
		handler:   handler,
		generated: utils.MakeSet[slicing.SliceReference](),
		warned:    utils.MakeSet[*graph.Node](),
	}
}

func (w *walker) run() {
	w.initInputGenerationPoints()
	w.generateInputLookahead()
	it := w.strategy.OutputSlices()
	for position := 0; !it.AtEnd(); position++ {
		w.generateNextInputs(position)
		_, pair := it.Current()
		w.generateNextOutputAndForward(it.CurrentIterator().Pattern(), pair)
		it.Advance()
	}
}

// initInputGenerationPoints walks the output traversal once, without emitting anything, to find the order
// in which the slices of each bundle-internal input are consumed.
func (w *walker) initInputGenerationPoints() {
	produced := utils.MakeSet[slicing.OperandID]()
	for _, op := range w.strategy.ProducedInputs() {
		produced.Insert(op.ID)
	}
	byOperand := make(map[slicing.OperandID]*inputGeneration)
	it := w.strategy.OutputSlices()
	for position := 0; !it.AtEnd(); position++ {
		_, pair := it.Current()
		m := w.strategy.Backward(pair.Ref.Operand)
		for _, ref := range m.MapInputs(pair) {
			if !produced.Has(ref.Operand) {
				continue
			}
			gen := byOperand[ref.Operand]
			if gen == nil {
				gen = &inputGeneration{operand: w.strategy.Arena.Operand(ref.Operand)}
				byOperand[ref.Operand] = gen
			}
			if n := len(gen.queue); n > 0 && gen.queue[n-1] == ref {
				continue
			}
			gen.queue = append(gen.queue, ref)
			gen.swapPoints = append(gen.swapPoints, position)
		}
		it.Advance()
	}
	for _, id := range slices.Sorted(maps.Keys(byOperand)) {
		w.inputs = append(w.inputs, byOperand[id])
	}
}

// generateInputLookahead generates the first slices of the multi-buffered inputs ahead of time, so that
// the generation of the next slice overlaps with the consumption of the current one.
func (w *walker) generateInputLookahead() {
	for _, gen := range w.inputs {
		if gen.operand.NumOfBuffers <= 1 || slicing.IsTriviallySliced(gen.operand) {
			continue
		}
		for range gen.operand.NumOfBuffers - 1 {
			ref, ok := gen.pop()
			if !ok {
				break
			}
			w.ensureGenerated(ref)
		}
	}
}

// generateNextInputs generates the input slices needed at the given position of the output traversal.
func (w *walker) generateNextInputs(position int) {
	for _, gen := range w.inputs {
		for len(gen.swapPoints) > 0 && gen.swapPoints[0] == position {
			gen.swapPoints = gen.swapPoints[1:]
			w.generateNextInput(gen)
		}
	}
}

func (w *walker) generateNextInput(gen *inputGeneration) {
	switch gen.state {
	case stateNormal:
		if len(gen.queue) == 0 {
			return
		}
		if w.generated.Has(gen.queue[0]) && len(slicing.SlicedDims(gen.operand)) > 1 {
			// A slice generated earlier is requested again while stitching along another axis: the
			// next generation is delayed by one step and then done together with the following one.
			ref, _ := gen.pop()
			gen.state = stateStitchingOnMultiDimsEncountered
			klog.V(2).Infof("%s: stitching on %s", w.strategy.Name, w.strategy.Arena.Format(ref))
			return
		}
		ref, _ := gen.pop()
		w.ensureGenerated(ref)
	case stateStitchingOnMultiDimsEncountered:
		gen.state = stateCreateMultipleInputOps
		fallthrough
	case stateCreateMultipleInputOps:
		for range 2 {
			ref, ok := gen.pop()
			if !ok {
				break
			}
			w.ensureGenerated(ref)
		}
		gen.state = stateNormal
	default:
		exceptions.Panicf("strategy %q: unhandled generation state %d for operand %q",
			w.strategy.Name, gen.state, gen.operand.Name())
	}
}

// ensureGenerated emits the operations producing the slice, and transitively the slices it depends on,
// unless it was generated already. Slices of operands not produced in the bundle, and of the traversed
// outputs, are ignored.
func (w *walker) ensureGenerated(ref slicing.SliceReference) {
	if w.generated.Has(ref) || w.strategy.IsTraversed(ref.Operand) {
		return
	}
	m := w.strategy.Backward(ref.Operand)
	if m == nil {
		return
	}
	outputs := m.MapOutputs(ref)
	for commonDimIdx := range m.NumCommonDimSlices() {
		inputs := m.MapInputs(slicing.SliceRefCommonDimIdxPair{Ref: ref, CommonDimIdx: commonDimIdx})
		for _, input := range inputs {
			w.ensureGenerated(input)
		}
		w.emit(inputs, outputs)
	}
}

// generateNextOutputAndForward emits the operation computing the current slice of the output traversal,
// followed by the consumers of the result if the policy says so.
func (w *walker) generateNextOutputAndForward(pattern *slicing.TraversalPattern, pair slicing.SliceRefCommonDimIdxPair) {
	m := w.strategy.Backward(pair.Ref.Operand)
	inputs := m.MapInputs(pair)
	if len(inputs) == 0 {
		exceptions.Panicf("strategy %q: no inputs mapped for output slice %s of node %q",
			w.strategy.Name, w.strategy.Arena.Format(pair.Ref), m.Node().Name)
	}
	for _, input := range inputs {
		w.ensureGenerated(input)
	}
	outputs := m.MapOutputs(pair.Ref)
	w.emit(inputs, outputs)
	if w.policy.EmitForward(pair, pattern.NumCommonDimSlices) {
		w.generateForward(outputs)
	}
}

func (w *walker) generateForward(refs []slicing.SliceReference) {
	for _, ref := range refs {
		f := w.strategy.Forward(ref.Operand)
		if f == nil {
			continue
		}
		for _, io := range f.InputsAndOutputs(ref) {
			if w.policy.SkipForward(io.Outputs, w.generated.Has) {
				continue
			}
			w.emitForward(io)
		}
	}
}

func (w *walker) emitForward(io mapping.InputsAndOutputs) {
	for _, input := range io.Inputs {
		w.ensureGenerated(input)
	}
	w.emit(io.Inputs, io.Outputs)
	w.generateForward(io.Outputs)
}

// emit resolves the node producing the outputs and hands the operation to the handler.
func (w *walker) emit(inputs, outputs []slicing.SliceReference) {
	arena := w.strategy.Arena
	if len(outputs) == 0 {
		exceptions.Panicf("strategy %q: operation with no outputs, inputs %s", w.strategy.Name, arena.FormatList(inputs))
	}
	tensor := arena.Operand(outputs[0].Operand).Tensor
	node := w.strategy.Graph.Producer(tensor)
	if node == nil {
		exceptions.Panicf("strategy %q: tensor %q has no producer", w.strategy.Name, tensor.Name())
	}
	if len(outputs) < len(node.Outputs) {
		outputs = w.completeOutputs(node, outputs)
	}
	for _, ref := range outputs {
		w.generated.Insert(ref)
	}
	if klog.V(2).Enabled() {
		klog.Infof("%s: %s %s -> %s", w.strategy.Name, node.Name, arena.FormatList(inputs), arena.FormatList(outputs))
	}
	w.handler.HandleOperation(node, inputs, outputs)
}

// completeOutputs returns one reference per output of the node, using the coordinate 0 for the outputs
// that were not mapped.
func (w *walker) completeOutputs(node *graph.Node, outputs []slicing.SliceReference) []slicing.SliceReference {
	arena := w.strategy.Arena
	complete := make([]slicing.SliceReference, len(node.Outputs))
	for i, t := range node.Outputs {
		op, found := arena.OperandFor(t)
		if !found {
			exceptions.Panicf("strategy %q: output %d of node %q is not sliced", w.strategy.Name, i, node.Name)
		}
		complete[i] = slicing.SliceReference{Operand: op.ID}
		for _, ref := range outputs {
			if ref.Operand == op.ID {
				complete[i] = ref
				break
			}
		}
	}
	if !w.warned.Has(node) {
		w.warned.Insert(node)
		klog.Warningf("strategy %q: node %q has %d outputs but only %d are mapped, using slice 0 for the others",
			w.strategy.Name, node.Name, len(node.Outputs), len(outputs))
	}
	return complete
}
