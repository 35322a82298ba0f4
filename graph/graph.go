// Package graph holds the minimal dataflow graph the slicer schedules: tensors produced and consumed
// by nodes, each node executed by one engine.
//
// Create a graph with New, its inputs with Graph.Parameter, and then add operations with the op
// functions (MatMul, Add, Relu, ...). Each op validates its inputs with shapeinference and returns an
// error for malformed graphs.
package graph

import (
	"fmt"
	"io"
	"slices"

	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/pkg/errors"
)

// Graph is a dataflow graph of Nodes connected by Tensors.
type Graph struct {
	name string

	// nodes in creation order, which is also a valid topological order.
	nodes   []*Node
	tensors []*Tensor

	producers map[*Tensor]*Node
	consumers map[*Tensor][]*Node

	// nextTensorID is the next ID to be assigned to new tensors.
	nextTensorID int
}

// New creates a new empty Graph.
func New(name string) *Graph {
	return &Graph{
		name:      name,
		producers: make(map[*Tensor]*Node),
		consumers: make(map[*Tensor][]*Node),
	}
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// Nodes returns the nodes in creation (topological) order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Tensors returns all tensors, parameters included, in creation order.
func (g *Graph) Tensors() []*Tensor { return slices.Clone(g.tensors) }

func (g *Graph) newTensor(name string, shape shapes.Shape) *Tensor {
	t := &Tensor{
		graph: g,
		id:    g.nextTensorID,
		name:  name,
		shape: shape,
	}
	if t.name == "" {
		t.name = fmt.Sprintf("t%d", t.id)
	}
	g.nextTensorID++
	g.tensors = append(g.tensors, t)
	return t
}

// Parameter creates a new input tensor of the graph, not produced by any node.
//
// The name is passed through utils.NormalizeIdentifier.
func (g *Graph) Parameter(name string, shape shapes.Shape) *Tensor {
	return g.newTensor(utils.NormalizeIdentifier(name), shape)
}

// Producer returns the node producing t, or nil if t is a graph parameter.
func (g *Graph) Producer(t *Tensor) *Node {
	return g.producers[t]
}

// Consumers returns the nodes that take t as input, in creation order.
func (g *Graph) Consumers(t *Tensor) []*Node {
	return slices.Clone(g.consumers[t])
}

// NodeByName returns the node with the given name, or nil if not found.
func (g *Graph) NodeByName(name string) *Node {
	for _, node := range g.nodes {
		if node.Name == name {
			return node
		}
	}
	return nil
}

// checkOwned returns an error if any of the tensors doesn't belong to g.
func (g *Graph) checkOwned(op fmt.Stringer, tensors ...*Tensor) error {
	for _, t := range tensors {
		if t == nil {
			return errors.Errorf("nil operand given to %s in graph %q", op, g.name)
		}
		if t.graph != g {
			return errors.Errorf("cannot add operation %s to graph %q, because operand %s is not part of the graph",
				op, g.name, t)
		}
	}
	return nil
}

// Write the graph (a readable string) to the given writer, one node per line.
func (g *Graph) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	we := func(node *Node) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		err = node.Write(writer)
	}

	w("graph @%s(", utils.NormalizeIdentifier(g.name))
	first := true
	for _, t := range g.tensors {
		if g.producers[t] != nil {
			continue
		}
		if !first {
			w(", ")
		}
		first = false
		w("%s: %s", t, t.shape.ToText())
	}
	w(") {\n")
	for _, node := range g.nodes {
		we(node)
		w("\n")
	}
	w("}\n")
	return err
}
