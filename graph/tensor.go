package graph

import (
	"fmt"

	"github.com/gomlx/sramslicer/types"
	"github.com/gomlx/sramslicer/types/shapes"
)

// Tensor represents a value in the graph, like `%a` or `%t3`.
// It has a name, a shape and placement flags used by the slicer's traffic accounting.
type Tensor struct {
	graph *Graph
	id    int
	shape shapes.Shape
	name  string

	inSRAM     bool
	persistent bool
}

// ID is unique within the graph.
func (t *Tensor) ID() int { return t.id }

// Name of the tensor. Parameters keep the name they were created with, others are named "t<id>".
func (t *Tensor) Name() string { return t.name }

// Shape returns the shape of the tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// Graph the tensor belongs to.
func (t *Tensor) Graph() *Graph { return t.graph }

// InSRAM returns whether the whole tensor is allocated in scratch memory regardless of slicing.
func (t *Tensor) InSRAM() bool { return t.inSRAM }

// SetInSRAM marks the whole tensor as allocated in scratch memory. It returns t.
func (t *Tensor) SetInSRAM(inSRAM bool) *Tensor {
	t.inSRAM = inSRAM
	return t
}

// Location returns where the tensor lives when it is not sliced.
func (t *Tensor) Location() types.MemoryLocation {
	if t.inSRAM {
		return types.ScratchMemory
	}
	return types.MainMemory
}

// Persistent returns whether the tensor is visible outside the graph (an output, or a value kept alive
// for a later graph).
func (t *Tensor) Persistent() bool { return t.persistent }

// SetPersistent marks the tensor as visible outside the graph. It returns t.
func (t *Tensor) SetPersistent(persistent bool) *Tensor {
	t.persistent = persistent
	return t
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return fmt.Sprintf("%%%s", t.name)
}
