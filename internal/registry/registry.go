package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registration errors. Duplicate or post-seal registrations indicate setup
// misconfiguration and should abort application startup.
var (
	ErrDuplicateRegistration = errors.New("task identifier already registered")
	ErrRegistrySealed        = errors.New("registry is sealed")
	ErrEmptyIdentifier       = errors.New("task identifier must not be empty")
	ErrNilHandler            = errors.New("handler must not be nil")
)

// Handler is an application-supplied unit of work bound to a task identifier.
// Version: 1.0
type Handler interface {
	// Execute runs the work for one grant. The context carries the grant's
	// deadline and is cancelled when cooperative cancellation is requested;
	// handlers are expected to poll ctx and exit early, but are not forcibly
	// terminated. Returning nil reports the grant as successful.
	Execute(ctx context.Context) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context) error

// Execute calls f(ctx).
func (f HandlerFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Registry maps task identifiers to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sealed   bool
	handlers map[string]Handler
}

// New creates an empty, unsealed Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a task identifier. It fails with
// ErrDuplicateRegistration if the identifier is already bound and with
// ErrRegistrySealed once Seal has been called.
func (r *Registry) Register(identifier string, handler Handler) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if handler == nil {
		return fmt.Errorf("register %q: %w", identifier, ErrNilHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", identifier, ErrRegistrySealed)
	}
	if _, exists := r.handlers[identifier]; exists {
		return fmt.Errorf("register %q: %w", identifier, ErrDuplicateRegistration)
	}

	r.handlers[identifier] = handler
	return nil
}

// Lookup returns the handler bound to the identifier. Absence is a normal
// outcome, e.g. stale scheduling state referencing an identifier the current
// build no longer registers.
func (r *Registry) Lookup(identifier string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[identifier]
	return handler, ok
}

// Seal marks the end of the setup phase. All subsequent Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the setup phase has ended.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Identifiers returns a sorted snapshot of the registered task identifiers.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
