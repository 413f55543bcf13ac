package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oauthbff-go/internal/clientenv"
	"oauthbff-go/internal/config"
	"oauthbff-go/internal/oauth"
)

func newTestClient(name string) *oauth.Client {
	resolver := clientenv.NewResolver(&config.ClientConfig{Name: name}, "")
	return oauth.NewClient(resolver, nil)
}

func TestLookupMissIsNotAnError(t *testing.T) {
	r := New()

	client, ok := r.Lookup("absent")
	assert.False(t, ok)
	assert.Nil(t, client)
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	c := newTestClient("foo")

	r.Register(c)

	got, ok := r.Lookup("foo")
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := New()
	first := newTestClient("foo")
	second := newTestClient("foo")

	r.Register(first)
	r.Register(second)

	got, ok := r.Lookup("foo")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestUnregisterMatchingHandle(t *testing.T) {
	r := New()
	c := newTestClient("foo")
	r.Register(c)

	assert.True(t, r.Unregister("foo", c))

	_, ok := r.Lookup("foo")
	assert.False(t, ok)
}

func TestStaleUnregisterKeepsNewerRegistration(t *testing.T) {
	r := New()
	stale := newTestClient("foo")
	newer := newTestClient("foo")

	r.Register(stale)
	r.Register(newer)

	// The stale handle no longer matches; the newer entry must survive.
	assert.False(t, r.Unregister("foo", stale))

	got, ok := r.Lookup("foo")
	require.True(t, ok)
	assert.Same(t, newer, got)
}

func TestRemoveByName(t *testing.T) {
	r := New()
	c := newTestClient("foo")
	r.Register(c)

	removed, ok := r.Remove("foo")
	require.True(t, ok)
	assert.Same(t, c, removed)

	_, ok = r.Remove("foo")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	r := New()

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("client-%d", id%4)
			for i := 0; i < iterations; i++ {
				c := newTestClient(name)
				r.Register(c)
				if got, ok := r.Lookup(name); ok {
					// Whatever we observe must be a live handle under that name.
					assert.Equal(t, name, got.Name())
				}
				r.Unregister(name, c)
			}
		}(w)
	}
	wg.Wait()

	// After all workers retire their own registrations, nothing may linger
	// except entries whose unregister was legitimately stale.
	for _, name := range r.Names() {
		got, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, got.Name())
	}
}
