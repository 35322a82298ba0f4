package scheduler

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/mapping"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/pkg/errors"
)

// GemmConfig describes a bundle computing out = a·b, for a[M, K] and b[K, N], and one candidate slicing
// of it.
type GemmConfig struct {
	M, K, N int
	DType   dtypes.DType

	// SlicesM, SlicesN and SlicesK are the requested number of slices along each axis. Values <= 1 leave
	// the axis unsliced. The actual number may be smaller, since all slices but the last have the same size.
	SlicesM, SlicesN, SlicesK int

	// Snake traverses the rows of the output back and forth.
	Snake bool

	// RowMajor traverses the output along N first, finishing each row of slices before the next one.
	// By default the output is traversed along M first.
	RowMajor bool

	// DoubleBuffer allocates 2 buffers for the slices of the inputs.
	DoubleBuffer bool

	// InputsInSRAM fetches the slices of the inputs into scratch memory.
	InputsInSRAM bool

	// OutputInSRAM keeps the output slices in scratch memory, from where they are evicted.
	OutputInSRAM bool

	// Producer computes a = relu(x) within the bundle.
	Producer bool

	// Epilogue computes y = out + bias within the bundle, right after each output slice.
	Epilogue bool

	// SiblingN, if > 0, adds a second output a·b2 for b2[K, SiblingN], traversed in lockstep with out.
	SiblingN int

	// CacheLineAlignment pads the rows of the slices of the inputs.
	CacheLineAlignment int

	// PartialsDType is the dtype of the partial sums when K is sliced. Defaults to Float32.
	PartialsDType dtypes.DType

	Policy Policy
}

// Name summarizes the configuration, e.g. "gemm_1024x512x256_m4_n2_k1_snake_x2".
func (c GemmConfig) Name() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "gemm_%dx%dx%d_m%d_n%d_k%d", c.M, c.K, c.N, max(c.SlicesM, 1), max(c.SlicesN, 1), max(c.SlicesK, 1))
	if c.Snake {
		sb.WriteString("_snake")
	}
	if c.RowMajor {
		sb.WriteString("_rows")
	}
	if c.DoubleBuffer {
		sb.WriteString("_x2")
	}
	return sb.String()
}

// NewGemmStrategy builds the graph of the bundle, slices its operands and returns the strategy.
func NewGemmStrategy(c GemmConfig) (*Strategy, error) {
	if c.M <= 0 || c.K <= 0 || c.N <= 0 {
		return nil, errors.Errorf("invalid GEMM dimensions m=%d, k=%d, n=%d", c.M, c.K, c.N)
	}
	if c.DType == dtypes.InvalidDType {
		c.DType = dtypes.BFloat16
	}
	if c.PartialsDType == dtypes.InvalidDType {
		c.PartialsDType = dtypes.Float32
	}
	b := &gemmBuilder{config: c, g: graph.New(c.Name()), arena: slicing.NewArena()}
	strategy, err := b.build()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to build strategy %q", c.Name())
	}
	return strategy, nil
}

type gemmBuilder struct {
	config GemmConfig
	g      *graph.Graph
	arena  *slicing.Arena
}

// operand slices t with the given number of slices per axis (values <= 1 leave the axis unsliced).
func (b *gemmBuilder) operand(t *graph.Tensor, numSlices ...int) (*slicing.SlicedOperand, error) {
	op, err := b.arena.NewOperand(t)
	if err != nil {
		return nil, err
	}
	for axis, n := range numSlices {
		if n > 1 {
			if err := op.SetNumSlices(axis, n); err != nil {
				return nil, err
			}
		}
	}
	return op, nil
}

func (b *gemmBuilder) input(t *graph.Tensor, numSlices ...int) (*slicing.SlicedOperand, error) {
	op, err := b.operand(t, numSlices...)
	if err != nil {
		return nil, err
	}
	c := b.config
	op.ResideInSRAM = c.InputsInSRAM
	op.CacheLineAlignment = c.CacheLineAlignment
	if c.DoubleBuffer {
		op.NumOfBuffers = 2
	}
	return op, nil
}

// matMulOutput slices the output of a·b, which holds partial sums when K is sliced.
func (b *gemmBuilder) matMulOutput(t *graph.Tensor, inSRAM bool) (*slicing.SlicedOperand, error) {
	c := b.config
	op, err := b.operand(t, c.SlicesM, c.SlicesN)
	if err != nil {
		return nil, err
	}
	op.ResideInSRAM = inSRAM || c.SlicesK > 1
	if c.SlicesK > 1 {
		op.FinalElementType = slicing.PartialsDType(op.OriginalElementType(), c.PartialsDType)
	}
	return op, nil
}

func (b *gemmBuilder) build() (*Strategy, error) {
	c := b.config
	var (
		aTensor *graph.Tensor
		relu    mapping.Backward
		err     error
	)
	if c.Producer {
		x := b.g.Parameter("x", shapes.Make(c.DType, c.M, c.K))
		if aTensor, err = graph.Relu(x); err != nil {
			return nil, err
		}
		if _, err = b.input(x, c.SlicesM, c.SlicesK); err != nil {
			return nil, err
		}
	} else {
		aTensor = b.g.Parameter("a", shapes.Make(c.DType, c.M, c.K))
	}
	a, err := b.input(aTensor, c.SlicesM, c.SlicesK)
	if err != nil {
		return nil, err
	}
	if c.Producer {
		// The producer writes its slices directly in scratch memory.
		a.ResideInSRAM = true
		if relu, err = mapping.NewElementwiseBackward(b.arena, b.g.Producer(aTensor)); err != nil {
			return nil, err
		}
	}

	bTensor := b.g.Parameter("b", shapes.Make(c.DType, c.K, c.N))
	if _, err = b.input(bTensor, c.SlicesK, c.SlicesN); err != nil {
		return nil, err
	}
	outTensor, err := graph.MatMul(aTensor, bTensor)
	if err != nil {
		return nil, err
	}
	out, err := b.matMulOutput(outTensor, c.OutputInSRAM || c.Epilogue)
	if err != nil {
		return nil, err
	}
	matMul, err := mapping.NewMatMulBackward(b.arena, b.g.Producer(outTensor))
	if err != nil {
		return nil, err
	}

	var sibling *slicing.SlicedOperand
	var siblingMatMul mapping.Backward
	if c.SiblingN > 0 {
		b2 := b.g.Parameter("b2", shapes.Make(c.DType, c.K, c.SiblingN))
		if _, err = b.input(b2, c.SlicesK, c.SlicesN); err != nil {
			return nil, err
		}
		out2, err := graph.MatMul(aTensor, b2)
		if err != nil {
			return nil, err
		}
		out2.SetPersistent(true)
		if sibling, err = b.matMulOutput(out2, c.OutputInSRAM); err != nil {
			return nil, err
		}
		if siblingMatMul, err = mapping.NewMatMulBackward(b.arena, b.g.Producer(out2)); err != nil {
			return nil, err
		}
	}

	var epilogue mapping.Backward
	if c.Epilogue {
		bias := b.g.Parameter("bias", shapes.Make(c.DType, 1, c.N))
		if _, err = b.operand(bias, 1, c.SlicesN); err != nil {
			return nil, err
		}
		y, err := graph.Add(outTensor, bias)
		if err != nil {
			return nil, err
		}
		y.SetPersistent(true)
		yOp, err := b.operand(y, c.SlicesM, c.SlicesN)
		if err != nil {
			return nil, err
		}
		yOp.ResideInSRAM = c.OutputInSRAM
		if epilogue, err = mapping.NewElementwiseBackward(b.arena, b.g.Producer(y)); err != nil {
			return nil, err
		}
	} else {
		outTensor.SetPersistent(true)
	}

	numCommon := slicing.NumSlices(a, 1)
	dimOrder := []int{0, 1}
	if c.RowMajor {
		dimOrder = []int{1, 0}
	}
	master, err := slicing.NewTraversalPattern(out, dimOrder, c.Snake, numCommon)
	if err != nil {
		return nil, err
	}
	var slaves []*slicing.TraversalPattern
	if sibling != nil {
		slave, err := slicing.NewTraversalPattern(sibling, dimOrder, c.Snake, numCommon)
		if err != nil {
			return nil, err
		}
		slaves = append(slaves, slave)
	}

	s := NewStrategy(c.Name(), b.g, b.arena, master, slaves...)
	s.Policy = c.Policy
	if relu != nil {
		s.AddBackward(relu)
	}
	s.AddBackward(matMul)
	if siblingMatMul != nil {
		s.AddBackward(siblingMatMul)
	}
	if epilogue != nil {
		s.AddBackward(epilogue)
		forward, err := mapping.NewFanOutForward(out, epilogue)
		if err != nil {
			return nil, err
		}
		s.AddForward(out, forward)
	}
	return s, nil
}
