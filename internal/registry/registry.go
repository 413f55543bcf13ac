// Package registry holds the process-wide mapping of client names to live
// client handles. Entries are added and removed independently of request
// processing; lookups never observe a partially constructed entry.
package registry

import (
	"sync"

	"oauthbff-go/internal/oauth"
)

// Registry is a concurrent keyed store of registered clients. The zero value
// is not usable; use New.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*oauth.Client
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: make(map[string]*oauth.Client),
	}
}

// Lookup returns the client registered under name. A miss is a normal,
// expected outcome, reported through ok rather than an error.
func (r *Registry) Lookup(name string) (*oauth.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[name]
	return client, ok
}

// Register inserts or replaces the entry for the client's name. At most one
// entry per name is visible at any instant.
func (r *Registry) Register(client *oauth.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[client.Name()] = client
}

// Unregister removes the entry for name only when it is still the given
// handle. A stale unregister racing a newer Register for the same name is a
// no-op, so the newer registration survives. Reports whether an entry was
// removed.
func (r *Registry) Unregister(name string, client *oauth.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[name]
	if !ok || current != client {
		return false
	}
	delete(r.clients, name)
	return true
}

// Remove unconditionally removes the entry for name, reporting whether one
// existed. Used by the admin API where the caller addresses clients by name.
func (r *Registry) Remove(name string) (*oauth.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[name]
	if ok {
		delete(r.clients, name)
	}
	return client, ok
}

// Names returns the currently registered client names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}
