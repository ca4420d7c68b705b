package app

import (
	"slices"
	"sync"

	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

type participantEntry struct {
	Participant *domain.Participant
	Streams     []domain.StreamID
	// streams this participant was subscribed to (or a request is in flight)
	subscribed map[domain.StreamID]struct{}
}

// StreamRef is a published stream together with its publisher.
type StreamRef struct {
	Publisher domain.ParticipantID
	Stream    domain.StreamID
}

// Registry tracks participants of the active conference in registration
// order and the streams each of them published.
type Registry struct {
	mu      sync.RWMutex
	order   []domain.ParticipantID
	entries map[domain.ParticipantID]*participantEntry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[domain.ParticipantID]*participantEntry),
	}
}

func (r *Registry) Add(p *domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[p.ID]; ok {
		r.entries[p.ID].Participant = p
		return
	}
	r.entries[p.ID] = &participantEntry{
		Participant: p,
		Streams:     []domain.StreamID{},
		subscribed:  make(map[domain.StreamID]struct{}),
	}
	r.order = append(r.order, p.ID)
	log.Info().Str("module", "app.registry").Str("participant", string(p.ID)).Str("kind", string(p.Kind)).Msg("participant registered")
}

// Remove drops the participant and reports whether it was registered.
func (r *Registry) Remove(id domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(p domain.ParticipantID) bool { return p == id })
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("participant removed")
	return true
}

func (r *Registry) Get(id domain.ParticipantID) (*domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.Participant, true
}

func (r *Registry) Has(id domain.ParticipantID) bool {
	_, ok := r.Get(id)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// AddStream records stream under its publisher. It returns false when the
// publisher is unknown or the stream was already recorded.
func (r *Registry) AddStream(id domain.ParticipantID, stream domain.StreamID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || slices.Contains(e.Streams, stream) {
		return false
	}
	e.Streams = append(e.Streams, stream)
	return true
}

func (r *Registry) Streams(id domain.ParticipantID) []domain.StreamID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.Streams)
}

// Others returns every registered participant except id, in registration order.
func (r *Registry) Others(id domain.ParticipantID) []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParticipantID, 0, len(r.order))
	for _, pid := range r.order {
		if pid != id {
			out = append(out, pid)
		}
	}
	return out
}

// StreamsOfOthers returns the streams published by everyone except id,
// ordered by publisher registration and then by publish order.
func (r *Registry) StreamsOfOthers(id domain.ParticipantID) []StreamRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StreamRef
	for _, pid := range r.order {
		if pid == id {
			continue
		}
		for _, s := range r.entries[pid].Streams {
			out = append(out, StreamRef{Publisher: pid, Stream: s})
		}
	}
	return out
}

// Reserve marks subscriber as subscribed to stream. It returns false if the
// subscriber is gone or the pair is already reserved, so each pair is
// requested from the vendor at most once.
func (r *Registry) Reserve(subscriber domain.ParticipantID, stream domain.StreamID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[subscriber]
	if !ok {
		return false
	}
	if _, done := e.subscribed[stream]; done {
		return false
	}
	e.subscribed[stream] = struct{}{}
	return true
}

// Release undoes a reservation after a failed subscribe.
func (r *Registry) Release(subscriber domain.ParticipantID, stream domain.StreamID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[subscriber]; ok {
		delete(e.subscribed, stream)
	}
}

func (r *Registry) Subscribed(subscriber domain.ParticipantID, stream domain.StreamID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[subscriber]
	if !ok {
		return false
	}
	_, done := e.subscribed[stream]
	return done
}

func (r *Registry) Snapshot() []domain.ParticipantView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParticipantView, 0, len(r.order))
	for _, pid := range r.order {
		e := r.entries[pid]
		out = append(out, domain.ParticipantView{
			ID:      pid,
			Tag:     e.Participant.Tag,
			Kind:    e.Participant.Kind,
			Streams: slices.Clone(e.Streams),
		})
	}
	return out
}

func (r *Registry) Participants() []*domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Participant, 0, len(r.order))
	for _, pid := range r.order {
		out = append(out, r.entries[pid].Participant)
	}
	return out
}

// Reset forgets every participant. Used when the conference is replaced.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.order)
	r.order = nil
	r.entries = make(map[domain.ParticipantID]*participantEntry)
	log.Info().Str("module", "app.registry").Int("dropped", n).Msg("registry reset")
}
