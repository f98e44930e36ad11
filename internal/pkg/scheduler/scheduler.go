// Package scheduler provides durable delayed task execution for the
// session state machine. Tasks are addressed by handler name so that the
// processes that schedule work and the processes that execute it only
// share the registry, not function pointers.
//
// Delivery is at-least-once: a task is removed only after its handler
// returns without error, so handlers must be idempotent.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HandlerFunc executes a scheduled task.
type HandlerFunc func(ctx context.Context, args map[string]string) error

// Scheduler registers tasks for later execution.
type Scheduler interface {
	// RunAfter schedules a task to fire after the given delay.
	RunAfter(ctx context.Context, delay time.Duration, handler string, args map[string]string) error
	// RunAt schedules a task to fire at the given instant.
	RunAt(ctx context.Context, at time.Time, handler string, args map[string]string) error
}

// Registry maps handler names to their implementations.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a handler name to a function. Registering the same name
// twice replaces the previous binding.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Invoke runs the handler registered under name.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]string) error {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no handler registered for %q", name)
	}
	return fn(ctx, args)
}
