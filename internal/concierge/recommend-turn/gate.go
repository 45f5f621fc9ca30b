// internal/concierge/recommend-turn/gate.go
package recommendturn

import (
	"sync"

	"github.com/google/uuid"
)

// AdmissionGate admits at most one turn at a time. Construct one per process
// and share it between every caller of the orchestrator.
type AdmissionGate struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewAdmissionGate() *AdmissionGate {
	return &AdmissionGate{inFlight: make(map[string]struct{})}
}

// Acquire inserts a fresh token when no other token is held. The returned
// release func is safe to call more than once.
func (g *AdmissionGate) Acquire() (token string, release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.inFlight) > 0 {
		return "", func() {}, false
	}

	token = uuid.NewString()
	g.inFlight[token] = struct{}{}

	var once sync.Once
	return token, func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, token)
			g.mu.Unlock()
		})
	}, true
}

// Len returns the number of tokens currently held.
func (g *AdmissionGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight)
}
