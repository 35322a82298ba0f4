package graph

import (
	"fmt"
	"io"
	"slices"

	"github.com/gomlx/sramslicer/internal/optypes"
	"github.com/gomlx/sramslicer/types"
	"github.com/gomlx/sramslicer/types/shapes"
)

// Node represents a single operation of the graph.
type Node struct {
	// ID is the index of the node in Graph.Nodes.
	ID int

	// Name is unique within the graph, by default "<op_name>_<id>".
	Name string

	// OpType is the type of the operation.
	OpType optypes.OpType

	// Inputs to the operation.
	Inputs []*Tensor

	// Outputs of the operation.
	Outputs []*Tensor
}

// Engine that executes the node.
func (n *Node) Engine() types.Engine { return n.OpType.Engine() }

// InputShapes returns the shapes of the node inputs.
func (n *Node) InputShapes() []shapes.Shape {
	return tensorsToShapes(n.Inputs)
}

// OutputIndex returns the position of t among the node outputs, or -1.
func (n *Node) OutputIndex(t *Tensor) int {
	return slices.Index(n.Outputs, t)
}

// String implements fmt.Stringer.
func (n *Node) String() string { return n.Name }

// Write writes a string representation of the node to the given writer.
func (n *Node) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	w("  ") // Indentation.
	for i, output := range n.Outputs {
		if i > 0 {
			w(", ")
		}
		w("%s", output)
	}
	w(" = %s(", n.OpType.Name())
	for i, input := range n.Inputs {
		if i > 0 {
			w(", ")
		}
		w("%s", input)
	}
	w(") : (")
	for i, input := range n.Inputs {
		if i > 0 {
			w(", ")
		}
		w("%s", input.shape.ToText())
	}
	w(") -> ")
	if len(n.Outputs) > 1 {
		w("(")
	}
	for i, output := range n.Outputs {
		if i > 0 {
			w(", ")
		}
		w("%s", output.shape.ToText())
	}
	if len(n.Outputs) > 1 {
		w(")")
	}
	w(" // %s @%s", n.Name, n.Engine().ShortName())
	return err
}

func tensorsToShapes(tensors []*Tensor) []shapes.Shape {
	s := make([]shapes.Shape, len(tensors))
	for i, t := range tensors {
		s[i] = t.shape
	}
	return s
}
