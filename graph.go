package wbuild

import (
	"fmt"
	"slices"
)

// Graph is the full mapping from task name to task definition. It is built
// once at startup and never mutated afterwards.
type Graph struct {
	tasks map[string]*Task
	names []string // definition order, for stable listings
}

// NewGraph builds a graph from task definitions. Duplicate names are
// rejected here; unknown prerequisite references surface from Resolve, once
// a traversal actually reaches them.
func NewGraph(tasks ...*Task) (*Graph, error) {
	g := &Graph{tasks: make(map[string]*Task, len(tasks))}
	for _, t := range tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("task with empty name")
		}
		if _, ok := g.tasks[t.Name]; ok {
			return nil, fmt.Errorf("duplicate task name %q", t.Name)
		}
		g.tasks[t.Name] = t
		g.names = append(g.names, t.Name)
	}
	return g, nil
}

// Task looks up a task by name.
func (g *Graph) Task(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Tasks returns all tasks in definition order.
func (g *Graph) Tasks() []*Task {
	out := make([]*Task, 0, len(g.names))
	for _, name := range g.names {
		out = append(out, g.tasks[name])
	}
	return out
}

// Resolve expands a task into its execution order: a linearization in which
// every prerequisite appears strictly before its dependent, and each task
// appears exactly once even when reachable along multiple paths. The order
// is depth-first post-order with first occurrence kept.
//
// Resolve fails with *CycleError when the prerequisite relation loops back
// onto the current expansion path, and with *UnknownTaskError when a
// referenced name is absent from the graph.
func (g *Graph) Resolve(name string) ([]*Task, error) {
	var (
		order   []*Task
		visited = make(map[string]bool)
		onPath  = make(map[string]bool)
		path    []string
	)

	var visit func(n string) error
	visit = func(n string) error {
		if visited[n] {
			return nil
		}
		if onPath[n] {
			return &CycleError{Path: append(slices.Clone(path), n)}
		}
		t, ok := g.tasks[n]
		if !ok {
			var from string
			if len(path) > 0 {
				from = path[len(path)-1]
			}
			return &UnknownTaskError{Name: n, ReferencedBy: from}
		}

		onPath[n] = true
		path = append(path, n)
		for _, dep := range t.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		onPath[n] = false

		visited[n] = true
		order = append(order, t)
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}
	return order, nil
}
