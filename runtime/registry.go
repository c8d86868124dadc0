package runtime

import (
	"campus-chat/contract"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps a connected participant to the sink rendering its views.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // map participant -> Sink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
	}
}

// GetSinksFor resolves participant ids into their active sinks.
// Participants without a session are skipped; duplicated ids are resolved once.
// Returns nil when nobody is connected.
func (r *Registry) GetSinksFor(participantIDs []string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activeSinks []contract.EventSink
	for _, participantID := range lo.Uniq(participantIDs) {
		if sink, exists := r.sessions[participantID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers or replaces a participant's active sink.
func (r *Registry) Subscribe(participantID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[participantID] = sink
}

// Unsubscribe removes a participant's sink.
func (r *Registry) Unsubscribe(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, participantID)
}
