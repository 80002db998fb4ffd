// Package hierarchy turns the flat task collection into a parent/child forest.
package hierarchy

import (
	"strings"

	"github.com/hylla/taskscope/internal/domain"
)

// Tree partitions tasks into roots and per-parent children, both in collection order.
type Tree struct {
	Roots    []domain.Task
	Children map[string][]domain.Task

	order []string
	byID  map[string]domain.Task
}

// Node is one task placed in a walk with its depth (roots are level 0).
type Node struct {
	Task        domain.Task
	Level       int
	HasChildren bool
	Expanded    bool
}

// Build groups tasks by ParentID. Tasks whose parent is missing, unknown or themselves become
// roots. Later duplicates of an id are ignored.
func Build(tasks []domain.Task) Tree {
	tree := Tree{
		Children: map[string][]domain.Task{},
		byID:     make(map[string]domain.Task, len(tasks)),
		order:    make([]string, 0, len(tasks)),
	}
	for _, task := range tasks {
		if _, dup := tree.byID[task.ID]; dup {
			continue
		}
		tree.byID[task.ID] = task
		tree.order = append(tree.order, task.ID)
	}
	for _, id := range tree.order {
		task := tree.byID[id]
		parentID := strings.TrimSpace(task.ParentID)
		if _, ok := tree.byID[parentID]; !ok || parentID == "" || parentID == task.ID {
			tree.Roots = append(tree.Roots, task)
			continue
		}
		tree.Children[parentID] = append(tree.Children[parentID], task)
	}
	return tree
}

// Len returns the number of distinct tasks in the tree.
func (t Tree) Len() int {
	return len(t.order)
}

// Count returns roots plus every child list entry. It equals Len for any acyclic input.
func (t Tree) Count() int {
	n := len(t.Roots)
	for _, children := range t.Children {
		n += len(children)
	}
	return n
}

// HasChildren reports whether id has at least one child.
func (t Tree) HasChildren(id string) bool {
	return len(t.Children[id]) > 0
}

// Flatten walks the whole forest depth-first, pre-order. Each task is emitted at most once.
// Tasks reachable only through a parent cycle are emitted as extra roots in collection order.
func (t Tree) Flatten() []Node {
	return t.walkAll(nil)
}

// Visible walks the forest in nested mode, descending only into ids present in expanded. Cycle-only
// tasks surface as extra roots like in Flatten.
func (t Tree) Visible(expanded map[string]bool) []Node {
	if expanded == nil {
		expanded = map[string]bool{}
	}
	return t.walkAll(expanded)
}

func (t Tree) walkAll(expanded map[string]bool) []Node {
	out := make([]Node, 0, len(t.order))
	seen := make(map[string]bool, len(t.order))
	for _, root := range t.Roots {
		out = t.walk(out, root, 0, seen, expanded)
	}
	// Whatever is left is only reachable through a parent cycle.
	reached := make(map[string]bool, len(t.order))
	t.markReachable(reached)
	for _, id := range t.order {
		if seen[id] || reached[id] {
			continue
		}
		out = t.walk(out, t.byID[id], 0, seen, expanded)
		t.markFrom(id, reached)
	}
	return out
}

func (t Tree) markReachable(reached map[string]bool) {
	for _, root := range t.Roots {
		t.markFrom(root.ID, reached)
	}
}

func (t Tree) markFrom(id string, reached map[string]bool) {
	if reached[id] {
		return
	}
	reached[id] = true
	for _, child := range t.Children[id] {
		t.markFrom(child.ID, reached)
	}
}

// walk appends task and, when allowed, its descendants. seen doubles as the on-path guard: an id
// already emitted is never descended into again, so parent cycles terminate.
func (t Tree) walk(out []Node, task domain.Task, level int, seen map[string]bool, expanded map[string]bool) []Node {
	if seen[task.ID] {
		return out
	}
	seen[task.ID] = true
	children := t.Children[task.ID]
	open := expanded == nil || expanded[task.ID]
	out = append(out, Node{
		Task:        task,
		Level:       level,
		HasChildren: len(children) > 0,
		Expanded:    open && len(children) > 0,
	})
	if !open {
		return out
	}
	for _, child := range children {
		out = t.walk(out, child, level+1, seen, expanded)
	}
	return out
}

// Ancestors returns the parent chain of id from nearest to farthest, stopping at a repeat.
func (t Tree) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	task, ok := t.byID[id]
	for ok {
		parentID := strings.TrimSpace(task.ParentID)
		if parentID == "" || seen[parentID] {
			break
		}
		task, ok = t.byID[parentID]
		if !ok {
			break
		}
		seen[parentID] = true
		out = append(out, parentID)
	}
	return out
}

// Indent returns the left offset for a depth given a fixed per-level unit.
func Indent(level, unit int) int {
	if level < 0 || unit < 0 {
		return 0
	}
	return level * unit
}
