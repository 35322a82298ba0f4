package slicing

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/graph"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

// newOperand creates a graph parameter with the given shape and slices it with the given chunks.
func newOperand(t *testing.T, arena *Arena, name string, dtype dtypes.DType, dims []int, chunks ...int) *SlicedOperand {
	t.Helper()
	g := graph.New("test")
	op, err := arena.NewOperand(g.Parameter(name, shapes.Make(dtype, dims...)))
	require.NoError(t, err)
	if len(chunks) > 0 {
		require.NoError(t, op.SetChunkDimensions(chunks...))
	}
	return op
}

func coord(values ...int) Coordinate {
	var c Coordinate
	copy(c[:], values)
	return c
}

// collect drives the iterator to the end and returns the visited slices.
func collect(it *OperandSliceIterator) []SliceRefCommonDimIdxPair {
	var visited []SliceRefCommonDimIdxPair
	for !it.AtEnd() {
		visited = append(visited, it.Current())
		it.Advance()
	}
	return visited
}

func coords(visited []SliceRefCommonDimIdxPair) []Coordinate {
	cs := make([]Coordinate, len(visited))
	for i, v := range visited {
		cs[i] = v.Ref.Coord
	}
	return cs
}

func TestArena(t *testing.T) {
	arena := NewArena()
	g := graph.New("arena")
	x := g.Parameter("x", shapes.Make(dtypes.BFloat16, 1024, 512))
	op, err := arena.NewOperand(x)
	require.NoError(t, err)
	assert.Equal(t, OperandID(0), op.ID)
	assert.Equal(t, []int{1024, 512}, op.ChunkDimensions)
	assert.Equal(t, 1, op.NumOfBuffers)
	assert.Equal(t, dtypes.BFloat16, op.FinalElementType)
	assert.True(t, IsTriviallySliced(op))

	_, err = arena.NewOperand(x)
	require.Error(t, err, "one operand per tensor")

	found, ok := arena.OperandFor(x)
	require.True(t, ok)
	assert.Same(t, op, found)
	assert.Same(t, op, arena.Operand(0))
	assert.Panics(t, func() { arena.Operand(1) })

	require.NoError(t, op.SetNumSlices(0, 8))
	assert.Equal(t, 128, op.ChunkDimensions[0])
	require.Error(t, op.SetNumSlices(2, 2))
	require.Error(t, op.SetNumSlices(1, 513))
	require.Error(t, op.SetChunkDimensions(128))
	require.Error(t, op.SetChunkDimensions(0, 512))
	require.Error(t, op.SetChunkDimensions(2048, 512))

	assert.Equal(t, "x(3,0)", arena.Format(SliceReference{Operand: 0, Coord: coord(3)}))
	assert.Equal(t, "x[1024 512]/[128 512]", op.String())
}

func TestTraversalPattern(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "gemm_out", dtypes.Float32, []int{64, 32})

	p, err := NewTraversalPattern(op, []int{1, 0}, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.SliceChangeDim)
	p, err = NewTraversalPattern(op, []int{1}, false, 1)
	require.NoError(t, err)
	assert.Equal(t, NoSliceChangeDim, p.SliceChangeDim)

	for _, tc := range []struct {
		name     string
		dimOrder []int
		common   int
	}{
		{"too many dims", []int{0, 1, 0}, 1},
		{"duplicate", []int{1, 1}, 1},
		{"out of range", []int{2}, 1},
		{"negative", []int{-1}, 1},
		{"no common slices", []int{0}, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTraversalPattern(op, tc.dimOrder, false, tc.common)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "gemm_out")
		})
	}

	p = must(NewTraversalPattern(op, []int{0, 1}, false, 1))
	p2, err := p.WithSliceChangeDim(0)
	require.NoError(t, err)
	assert.Equal(t, 0, p2.SliceChangeDim)
	assert.Equal(t, 1, p.SliceChangeDim, "original pattern is unchanged")
	_, err = must(NewTraversalPattern(op, []int{0}, false, 1)).WithSliceChangeDim(1)
	require.Error(t, err)
}

func TestOperandSliceIterator_Snake3x2(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "x", dtypes.Float32, []int{3, 2}, 1, 1)
	p := must(NewTraversalPattern(op, []int{0, 1}, true, 1))
	assert.Equal(t, []Coordinate{
		coord(0, 0), coord(1, 0), coord(2, 0),
		coord(2, 1), coord(1, 1), coord(0, 1),
	}, coords(collect(p.Begin())))

	// Without snake the first axis restarts from 0.
	p = must(NewTraversalPattern(op, []int{0, 1}, false, 1))
	assert.Equal(t, []Coordinate{
		coord(0, 0), coord(1, 0), coord(2, 0),
		coord(0, 1), coord(1, 1), coord(2, 1),
	}, coords(collect(p.Begin())))
}

func TestOperandSliceIterator_1024x512(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "x", dtypes.BFloat16, []int{1024, 512}, 128, 128)
	assert.Equal(t, []int{8, 4}, Grid(op))

	p := must(NewTraversalPattern(op, []int{0}, false, 1))
	var want []Coordinate
	for i := range 8 {
		want = append(want, coord(i, 0))
	}
	assert.Equal(t, want, coords(collect(p.Begin())))

	// 8x2 grid, snake over {W, B}.
	op2 := newOperand(t, arena, "y", dtypes.BFloat16, []int{1024, 512}, 128, 256)
	p = must(NewTraversalPattern(op2, []int{0, 1}, true, 1))
	want = nil
	for i := range 8 {
		want = append(want, coord(i, 0))
	}
	for i := 7; i >= 0; i-- {
		want = append(want, coord(i, 1))
	}
	visited := collect(p.Begin())
	assert.Equal(t, want, coords(visited))
	for _, v := range visited {
		assert.Equal(t, op2.ID, v.Ref.Operand)
	}
}

func TestOperandSliceIterator_RoundTrip(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "x", dtypes.Float32, []int{10, 7, 4}, 3, 2, 4)
	require.Equal(t, []int{4, 4, 1}, Grid(op))
	for _, tc := range []struct {
		name     string
		dimOrder []int
		snake    bool
		common   int
	}{
		{"single axis", []int{1}, false, 1},
		{"two axes", []int{0, 1}, false, 1},
		{"two axes snake", []int{1, 0}, true, 1},
		{"three axes snake with partials", []int{0, 2, 1}, true, 3},
		{"no axes", nil, false, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := must(NewTraversalPattern(op, tc.dimOrder, tc.snake, tc.common))
			n := p.NumPositions()
			it := p.Begin()
			end := it.EndIterator()
			assert.True(t, end.Equal(p.End()))
			seen := make(map[SliceRefCommonDimIdxPair]bool, n)
			for i := range n {
				require.False(t, it.AtEnd())
				require.False(t, it.Equal(end))
				current := it.Current()
				require.True(t, IsValidCoordinate(op, current.Ref.Coord), "coordinate %v", current.Ref.Coord)
				require.Less(t, current.CommonDimIdx, tc.common)
				require.False(t, seen[current], "slice %v visited twice", current)
				seen[current] = true
				assert.Equal(t, i < n-1, it.Advance())
			}
			assert.True(t, it.AtEnd())
			assert.True(t, it.Equal(end))
			assert.Len(t, seen, n)
			assert.Panics(t, func() { it.Advance() })
			assert.Panics(t, func() { it.Current() })
		})
	}
}

func TestOperandSliceIterator_InputSliceChanged(t *testing.T) {
	arena := NewArena()
	op := newOperand(t, arena, "x", dtypes.Float32, []int{2, 3}, 1, 1)

	// Only the second traversal axis signals a new wide slice.
	it := must(NewTraversalPattern(op, []int{0, 1}, false, 1)).Begin()
	var changes []bool
	for it.Advance() {
		changes = append(changes, it.InputSliceChanged())
	}
	assert.Equal(t, []bool{false, true, false, true, false}, changes)

	// With a sliced common dimension every step is a new wide slice.
	it = must(NewTraversalPattern(op, []int{0, 1}, false, 2)).Begin()
	for it.Advance() {
		assert.True(t, it.InputSliceChanged())
	}

	// Single axis patterns never signal.
	it = must(NewTraversalPattern(op, []int{1}, false, 1)).Begin()
	for it.Advance() {
		assert.False(t, it.InputSliceChanged())
	}
}

func TestOperandSliceIterator_Equal(t *testing.T) {
	arena := NewArena()
	a := newOperand(t, arena, "a", dtypes.Float32, []int{4, 4}, 2, 2)
	b := newOperand(t, arena, "b", dtypes.Float32, []int{4, 4}, 2, 2)
	pa := must(NewTraversalPattern(a, []int{0, 1}, false, 1))
	pb := must(NewTraversalPattern(b, []int{0, 1}, false, 1))
	assert.False(t, pa.Begin().Equal(pb.Begin()), "different operands are never equal")

	it := pa.Begin()
	clone := it.Clone()
	it.Advance()
	assert.False(t, it.Equal(clone))
	clone.Advance()
	assert.True(t, it.Equal(clone))

	snake := must(NewTraversalPattern(a, []int{0, 1}, true, 1))
	assert.Panics(t, func() { pa.Begin().Equal(snake.Begin()) })
}

type emission struct {
	idx   int
	coord Coordinate
}

func collectMulti(m *MultiOperandSliceIterator) []emission {
	var emitted []emission
	for !m.AtEnd() {
		idx, pair := m.Current()
		emitted = append(emitted, emission{idx, pair.Ref.Coord})
		m.Advance()
	}
	return emitted
}

func TestMultiOperandSliceIterator_Lockstep(t *testing.T) {
	arena := NewArena()
	a := newOperand(t, arena, "a", dtypes.Float32, []int{4, 3}, 1, 1)
	b := newOperand(t, arena, "b", dtypes.Float32, []int{2, 3}, 1, 1)
	pa := must(NewTraversalPattern(a, []int{0, 1}, false, 1))
	pb := must(NewTraversalPattern(b, []int{0, 1}, false, 1))

	m := NewMultiOperandSliceIterator(pa, pb)
	require.Equal(t, 2, m.Len())
	emitted := collectMulti(m)
	require.Len(t, emitted, 4*3+2*3)

	var want []emission
	for wide := range 3 {
		for i := range 4 {
			want = append(want, emission{0, coord(i, wide)})
		}
		for i := range 2 {
			want = append(want, emission{1, coord(i, wide)})
		}
	}
	assert.Equal(t, want, emitted)

	// No operand laps another: when an operand emits a slice of wide slice w, every other operand
	// has already emitted all of wide slice w-1.
	lastWide := []int{-1, -1}
	counts := map[[2]int]int{}
	rowLen := []int{4, 2}
	for _, e := range emitted {
		w := e.coord[1]
		for j := range lastWide {
			if j != e.idx && w > 0 {
				assert.Equal(t, rowLen[j], counts[[2]int{j, w - 1}], "operand %d lapped operand %d", e.idx, j)
			}
		}
		counts[[2]int{e.idx, w}]++
		lastWide[e.idx] = w
	}
}

func TestMultiOperandSliceIterator_PartialsAlternate(t *testing.T) {
	arena := NewArena()
	a := newOperand(t, arena, "a", dtypes.Float32, []int{2, 2}, 1, 2)
	b := newOperand(t, arena, "b", dtypes.Float32, []int{2, 2}, 1, 2)
	pa := must(NewTraversalPattern(a, []int{0}, false, 2))
	pb := must(NewTraversalPattern(b, []int{0}, false, 1))

	m := NewMultiOperandSliceIterator(pa, pb)
	var order []int
	for !m.AtEnd() {
		idx, _ := m.Current()
		order = append(order, idx)
		m.Advance()
	}
	// a signals a new slice on every step, b never does within its rows.
	assert.Equal(t, []int{0, 1, 1, 0, 0, 0}, order)
}

func TestMultiOperandSliceIterator_Equal(t *testing.T) {
	arena := NewArena()
	a := newOperand(t, arena, "a", dtypes.Float32, []int{4, 2}, 1, 1)
	b := newOperand(t, arena, "b", dtypes.Float32, []int{4, 2}, 1, 1)
	pa := must(NewTraversalPattern(a, []int{0, 1}, false, 1))
	pb := must(NewTraversalPattern(b, []int{0, 1}, false, 1))

	m := NewMultiOperandSliceIterator(pa, pb)
	begin := m.Clone()
	assert.True(t, m.Equal(begin))
	assert.False(t, m.Equal(NewMultiOperandSliceIterator(pa)), "different number of operands")
	end := m.End()
	assert.True(t, end.AtEnd())
	assert.False(t, m.Equal(end))

	m.Advance()
	assert.False(t, m.Equal(begin))
	for m.Advance() {
	}
	assert.True(t, m.AtEnd())
	assert.True(t, m.Equal(end))
	assert.Panics(t, func() { m.Advance() })
}
