package core

import (
	"context"
	"strings"
	"sync"
)

type refreshCall struct {
	done       chan struct{}
	connection Connection
	err        error
}

// refreshGroup coalesces concurrent refreshes per connection. Providers
// typically invalidate a refresh token on reuse, so a second caller must
// await the in-flight exchange instead of issuing its own.
type refreshGroup struct {
	mu       sync.Mutex
	inFlight map[string]*refreshCall
}

func newRefreshGroup() *refreshGroup {
	return &refreshGroup{inFlight: map[string]*refreshCall{}}
}

func (g *refreshGroup) Do(ctx context.Context, connectionID string, fn func() (Connection, error)) (Connection, error) {
	connectionID = strings.TrimSpace(connectionID)

	g.mu.Lock()
	if existing, ok := g.inFlight[connectionID]; ok {
		g.mu.Unlock()
		select {
		case <-existing.done:
			return existing.connection, existing.err
		case <-ctx.Done():
			return Connection{}, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	g.inFlight[connectionID] = call
	g.mu.Unlock()

	call.connection, call.err = fn()

	g.mu.Lock()
	delete(g.inFlight, connectionID)
	g.mu.Unlock()
	close(call.done)

	return call.connection, call.err
}
