package client

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
)

// registry maps call identifiers to in-progress calls. Inbound dispatch and
// outgoing call creation run on different goroutines, so every mutation
// goes through the lock.
type registry struct {
	mu    sync.RWMutex
	calls map[uuid.UUID]core.Call
}

func newRegistry() *registry {
	return &registry{calls: make(map[uuid.UUID]core.Call)}
}

// insert adds a call. A duplicate identifier overwrites the previous entry;
// identifiers are caller-supplied and not deduplicated here.
func (r *registry) insert(id uuid.UUID, c core.Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[id]; ok {
		log.Warn().Str("module", "client.registry").Str("call_id", id.String()).Msg("overwriting existing call")
	}
	r.calls[id] = c
	log.Info().Str("module", "client.registry").Str("call_id", id.String()).Msg("inserted call")
}

func (r *registry) get(id uuid.UUID) (core.Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	return c, ok
}

func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, id)
	log.Info().Str("module", "client.registry").Str("call_id", id.String()).Msg("removed call")
}

func (r *registry) snapshot() []core.Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Call, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c)
	}
	return out
}
