package chat

import (
	"sync"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
)

// Registry maps modes to the clients serving them. Registering a mode twice replaces
// the previous client.
type Registry struct {
	mu      sync.RWMutex
	clients map[types.Mode]Client
	modes   []types.Mode
}

func NewRegistry() *Registry {
	return &Registry{
		clients: map[types.Mode]Client{},
	}
}

func (r *Registry) Register(mode types.Mode, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[mode]; !ok {
		r.modes = append(r.modes, mode)
	}
	r.clients[mode] = client
}

func (r *Registry) Lookup(mode types.Mode) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[mode]
	if !ok {
		return nil, &conversation.UnsupportedModeError{Mode: string(mode)}
	}
	return c, nil
}

// Modes returns the registered modes in registration order.
func (r *Registry) Modes() []types.Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Mode(nil), r.modes...)
}
