package task

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// Registry maps task names to tasks. It is built once at startup.
type Registry struct {
	tasks map[string]*Task
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Register adds tasks under their own names.
func (r *Registry) Register(tasks ...*Task) error {
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if t.name == "" {
			return fmt.Errorf("register: task has no name")
		}
		if _, ok := r.tasks[t.name]; ok {
			return fmt.Errorf("register: task %q already registered", t.name)
		}
		r.tasks[t.name] = t
		r.order = append(r.order, t.name)
	}
	return nil
}

// Get returns the named task.
func (r *Registry) Get(name string) (*Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		known := r.Names()
		sort.Strings(known)
		return nil, errors.New("E201").
			WithDetail(fmt.Sprintf("No task named %q. Known tasks: %s", name, strings.Join(known, ", ")))
	}
	return t, nil
}

// Names returns the registered task names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
