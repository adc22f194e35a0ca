// File: pkg/bot/registry.go
package bot

import (
	"sort"
	"sync"
)

// ControllerFactory builds a controller for a user the registry has not seen.
type ControllerFactory func(userID int64) *Controller

// Registry holds one controller per user. Controllers are created lazily and
// live for the process lifetime; per-user exclusivity is enforced by the
// controller's own state machine.
type Registry struct {
	mu          sync.Mutex
	controllers map[int64]*Controller
	factory     ControllerFactory
}

func NewRegistry(factory ControllerFactory) *Registry {
	return &Registry{
		controllers: make(map[int64]*Controller),
		factory:     factory,
	}
}

// Controller returns the user's controller, creating it on first use.
func (r *Registry) Controller(userID int64) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[userID]
	if !ok {
		c = r.factory(userID)
		r.controllers[userID] = c
	}
	return c
}

// Lookup returns the user's controller without creating one.
func (r *Registry) Lookup(userID int64) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[userID]
	return c, ok
}

// Statuses returns a snapshot of every known session, ordered by user ID.
func (r *Registry) Statuses() []Status {
	r.mu.Lock()
	controllers := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		controllers = append(controllers, c)
	}
	r.mu.Unlock()

	statuses := make([]Status, 0, len(controllers))
	for _, c := range controllers {
		statuses = append(statuses, c.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].UserID < statuses[j].UserID })
	return statuses
}

// StopAll requests a cooperative stop of every active session.
func (r *Registry) StopAll() {
	r.mu.Lock()
	controllers := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		controllers = append(controllers, c)
	}
	r.mu.Unlock()

	for _, c := range controllers {
		c.Stop()
	}
}
