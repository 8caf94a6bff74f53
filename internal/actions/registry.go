// Package actions maps action names to typed handlers. The registry is the
// single inbound surface for assembly requests: callers name an action and
// pass a JSON payload, and the registry decodes, validates and dispatches.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"market-agent/internal/assembler"
)

// ErrUnknownAction is returned when no handler is registered for a name.
var ErrUnknownAction = errors.New("unknown action")

// HandlerFunc decodes its own payload and produces a JSON-serializable result.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Registry holds the action table. Registration happens once at startup;
// dispatch is concurrent.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register installs a handler. Re-registering a name panics; duplicate
// registration is a wiring bug, not a runtime condition.
func (r *Registry) Register(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("action %q registered twice", name))
	}
	r.handlers[name] = h
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes one request to its handler.
func (r *Registry) Dispatch(ctx context.Context, name string, payload json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return h(ctx, payload)
}

// typed wraps a strongly-typed handler with JSON decoding. Unknown fields are
// rejected so a mistyped payload fails loudly instead of half-applying.
func typed[T any](fn func(ctx context.Context, req T) (interface{}, error)) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req T
		if len(payload) > 0 {
			dec := json.NewDecoder(bytes.NewReader(payload))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				return nil, &assembler.ValidationError{Message: fmt.Sprintf("invalid payload: %v", err)}
			}
		}
		return fn(ctx, req)
	}
}
