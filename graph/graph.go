// Package graph runs a request through a graph of named steps. It is a
// sequential state machine: each step mutates the shared state and either
// names its successor or falls through to its default edge. A failing or
// panicking step diverts to the recovery node when one is set.
package graph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// NodeType says how a node picks its successor and whether the run ends
// after it.
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeCondition NodeType = "condition"
	NodeTypeCustom    NodeType = "custom"
)

// StepFunc runs one node. Returning a non-empty name jumps there; "" follows
// the node's default edge.
type StepFunc[S any] func(ctx context.Context, s *S) (next string, err error)

// ConditionFunc returns a branch key looked up in the node's NextMap.
type ConditionFunc[S any] func(ctx context.Context, s *S) (string, error)

// RecoverFunc is told which node failed before the recovery node runs.
type RecoverFunc[S any] func(ctx context.Context, s *S, node string, err error)

// Node is one named step. Condition nodes set Condition and NextMap; all
// others set Execute and usually Next.
type Node[S any] struct {
	Name      string
	Type      NodeType
	Execute   StepFunc[S]
	Condition ConditionFunc[S]
	Next      string
	NextMap   map[string]string
}

// PanicError carries a recovered panic value and stack.
type PanicError struct {
	Node  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %s: %v", e.Node, e.Value)
}

// Graph is an immutable, concurrency-safe execution graph. Each Run owns its
// own state.
type Graph[S any] struct {
	nodes       map[string]*Node[S]
	startNode   string
	endNode     string
	recoverNode string
	onRecover   RecoverFunc[S]
	maxSteps    int
}

// Run executes from the start node until the end node has run. It returns
// the names of the visited nodes in order.
func (g *Graph[S]) Run(ctx context.Context, s *S) ([]string, error) {
	var trace []string
	current := g.startNode
	recovering := false

	for steps := 0; ; steps++ {
		if steps >= g.maxSteps {
			return trace, fmt.Errorf("step limit %d exceeded at node %s", g.maxSteps, current)
		}
		node, ok := g.nodes[current]
		if !ok {
			return trace, fmt.Errorf("node %s not found", current)
		}
		trace = append(trace, current)

		next, err := g.step(ctx, node, s)
		if err != nil {
			if g.recoverNode == "" || recovering || current == g.recoverNode {
				return trace, err
			}
			if g.onRecover != nil {
				g.onRecover(ctx, s, current, err)
			}
			recovering = true
			current = g.recoverNode
			continue
		}

		if node.Type == NodeTypeEnd {
			return trace, nil
		}
		if next == "" {
			return trace, fmt.Errorf("no next node specified for node %s", node.Name)
		}
		current = next
	}
}

// step runs node, converting panics and cancellation into errors.
func (g *Graph[S]) step(ctx context.Context, node *Node[S], s *S) (next string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Node: node.Name, Value: r, Stack: debug.Stack()}
		}
	}()

	// The end and recovery nodes must always be able to produce a result.
	if node.Type != NodeTypeEnd && node.Name != g.recoverNode {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("node %s: %w", node.Name, err)
		}
	}

	switch node.Type {
	case NodeTypeCondition:
		key, err := node.Condition(ctx, s)
		if err != nil {
			return "", fmt.Errorf("condition %s: %w", node.Name, err)
		}
		to, ok := node.NextMap[key]
		if !ok {
			return "", fmt.Errorf("condition %s: no branch for %q", node.Name, key)
		}
		return to, nil
	default:
		next, err := node.Execute(ctx, s)
		if err != nil {
			return "", fmt.Errorf("node %s: %w", node.Name, err)
		}
		if next == "" {
			next = node.Next
		}
		return next, nil
	}
}

// Builder helps build graphs fluently. Structural mistakes are collected and
// reported by Build.
type Builder[S any] struct {
	graph *Graph[S]
	errs  []error
}

// NewBuilder starts an empty graph limited to 64 steps per Run.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{
		graph: &Graph[S]{
			nodes:    make(map[string]*Node[S]),
			maxSteps: 64,
		},
	}
}

func (b *Builder[S]) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

func (b *Builder[S]) add(node *Node[S]) {
	switch _, dup := b.graph.nodes[node.Name]; {
	case node.Name == "":
		b.fail("unnamed %s node", node.Type)
		return
	case dup:
		b.fail("duplicate node %s", node.Name)
		return
	case node.Type == NodeTypeCondition && node.Condition == nil:
		b.fail("condition node %s has no condition", node.Name)
		return
	case node.Type != NodeTypeCondition && node.Execute == nil:
		b.fail("%s node %s has no step", node.Type, node.Name)
		return
	}
	b.graph.nodes[node.Name] = node
	switch node.Type {
	case NodeTypeStart:
		b.graph.startNode = node.Name
	case NodeTypeEnd:
		b.graph.endNode = node.Name
	}
}

// AddNode registers a step. Start and end types also mark the node as the
// graph's start or end.
func (b *Builder[S]) AddNode(name string, nodeType NodeType, execute StepFunc[S]) *Builder[S] {
	b.add(&Node[S]{Name: name, Type: nodeType, Execute: execute})
	return b
}

// AddConditionNode registers a branch; nextMap maps condition keys to nodes.
func (b *Builder[S]) AddConditionNode(name string, condition ConditionFunc[S], nextMap map[string]string) *Builder[S] {
	b.add(&Node[S]{Name: name, Type: NodeTypeCondition, Condition: condition, NextMap: nextMap})
	return b
}

// AddEdge sets the default successor of from.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	n, ok := b.graph.nodes[from]
	if !ok {
		b.fail("edge from unknown node %s", from)
		return b
	}
	n.Next = to
	return b
}

func (b *Builder[S]) SetStart(name string) *Builder[S] {
	b.graph.startNode = name
	return b
}

func (b *Builder[S]) SetEnd(name string) *Builder[S] {
	b.graph.endNode = name
	return b
}

// OnError routes any failing node to name after calling fn. The recovery
// node itself must not fail.
func (b *Builder[S]) OnError(name string, fn RecoverFunc[S]) *Builder[S] {
	b.graph.recoverNode = name
	b.graph.onRecover = fn
	return b
}

// SetMaxSteps bounds the number of node executions per Run.
func (b *Builder[S]) SetMaxSteps(n int) *Builder[S] {
	if n > 0 {
		b.graph.maxSteps = n
	}
	return b
}

// Build checks that start and end are set and that every named node, edge
// and branch target exists. All problems found are reported together.
func (b *Builder[S]) Build() (*Graph[S], error) {
	g := b.graph
	if g.startNode == "" {
		b.fail("start node not set")
	}
	if g.endNode == "" {
		b.fail("end node not set")
	}
	known := func(from, to string) {
		if _, ok := g.nodes[to]; !ok {
			b.fail("%s refers to unknown node %s", from, to)
		}
	}
	for role, name := range map[string]string{"start": g.startNode, "end": g.endNode, "recovery": g.recoverNode} {
		if name != "" {
			known(role, name)
		}
	}
	for _, n := range g.nodes {
		if n.Next != "" {
			known(n.Name, n.Next)
		}
		for _, to := range n.NextMap {
			known(n.Name, to)
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return g, nil
}
