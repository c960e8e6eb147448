package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultStateTTL = 10 * time.Minute

// StateRegistry issues single-use CSRF states for pending authorization
// attempts and verifies them on callback. A state is consumed on its first
// Verify, success or not, so a replayed callback always fails.
type StateRegistry struct {
	mu      sync.Mutex
	pending map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewStateRegistry(ttl time.Duration) *StateRegistry {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateRegistry{
		pending: map[string]time.Time{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue creates an opaque state bound to a new authorization attempt.
func (r *StateRegistry) Issue() string {
	state := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.pending[state] = r.now().Add(r.ttl)
	return state
}

// Verify consumes the state. It returns ErrStateMismatch when the state was
// never issued, already consumed, or expired.
func (r *StateRegistry) Verify(state string) error {
	if state == "" {
		return ErrStateMismatch
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline, ok := r.pending[state]
	if !ok {
		return ErrStateMismatch
	}
	delete(r.pending, state)
	if r.now().After(deadline) {
		return ErrStateMismatch
	}
	return nil
}

func (r *StateRegistry) pruneLocked() {
	now := r.now()
	for state, deadline := range r.pending {
		if now.After(deadline) {
			delete(r.pending, state)
		}
	}
}
