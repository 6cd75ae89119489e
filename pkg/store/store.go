package store

import (
	"context"
	"errors"
)

var ErrStoreClosed = errors.New("store is closed")

// Store is the namespaced key-value contract grillo persists conversations into.
//
// Get reports absent keys with ok=false rather than an error. An empty namespace
// addresses the global namespace.
type Store interface {
	Get(ctx context.Context, key string, namespace string) (string, bool, error)
	Set(ctx context.Context, key string, value string, namespace string) error
	Close() error
}

// Namespaced binds a Store to a single namespace.
type Namespaced struct {
	Store     Store
	Namespace string
}

func NewNamespaced(s Store, namespace string) *Namespaced {
	return &Namespaced{
		Store:     s,
		Namespace: namespace,
	}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.Store.Get(ctx, key, n.Namespace)
}

func (n *Namespaced) Set(ctx context.Context, key string, value string) error {
	return n.Store.Set(ctx, key, value, n.Namespace)
}
