package task

import (
	"context"
	"strings"
)

// Func is the action of a leaf task.
type Func func(ctx context.Context) error

// Kind is the composition kind of a task.
type Kind int

const (
	KindLeaf Kind = iota
	KindSeries
	KindParallel
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSeries:
		return "series"
	case KindParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Task is a named unit of work.
type Task struct {
	name     string
	kind     Kind
	fn       Func
	children []*Task
}

// New creates a leaf task.
func New(name string, fn Func) *Task {
	if fn == nil {
		fn = func(context.Context) error { return nil }
	}
	return &Task{name: name, kind: KindLeaf, fn: fn}
}

// Series creates a task that runs children one after another.
func Series(name string, children ...*Task) *Task {
	return composite(name, KindSeries, children)
}

// Parallel creates a task that runs children concurrently.
func Parallel(name string, children ...*Task) *Task {
	return composite(name, KindParallel, children)
}

func composite(name string, kind Kind, children []*Task) *Task {
	kept := make([]*Task, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Task{name: name, kind: kind, children: kept}
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Kind returns the composition kind.
func (t *Task) Kind() Kind {
	return t.kind
}

// Children returns a copy of the composite's children.
func (t *Task) Children() []*Task {
	return append([]*Task(nil), t.children...)
}

// String describes the task tree, e.g. "build: series(clean, parallel(styles, scripts))".
func (t *Task) String() string {
	if t.kind == KindLeaf {
		return t.name
	}
	return t.name + ": " + t.shape()
}

func (t *Task) shape() string {
	if t.kind == KindLeaf {
		return t.name
	}
	parts := make([]string, len(t.children))
	for i, c := range t.children {
		parts[i] = c.shape()
	}
	return t.kind.String() + "(" + strings.Join(parts, ", ") + ")"
}
