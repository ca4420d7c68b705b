package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

// SessionAPI is the part of the vendor contract the session context needs.
type SessionAPI interface {
	CreateSession(ctx context.Context) (domain.ConferenceID, error)
	SessionExists(ctx context.Context, id domain.ConferenceID) (bool, error)
}

// SessionContext owns the single active conference of the process.
// The conference is created lazily and replaced when the vendor no longer
// knows it; replacing it clears the registry.
type SessionContext struct {
	api      SessionAPI
	registry *Registry
	group    singleflight.Group

	mu      sync.RWMutex
	current domain.ConferenceID
}

func NewSessionContext(api SessionAPI, registry *Registry) *SessionContext {
	return &SessionContext{api: api, registry: registry}
}

// Current returns the active conference id without touching the vendor.
func (s *SessionContext) Current() domain.ConferenceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsCurrent reports whether id is the active conference.
func (s *SessionContext) IsCurrent(id domain.ConferenceID) bool {
	cur := s.Current()
	return cur != "" && cur == id
}

// Ensure returns a conference id the vendor still knows, creating one if
// needed. Any validation failure counts as "session invalid".
func (s *SessionContext) Ensure(ctx context.Context) (domain.ConferenceID, error) {
	if id := s.Current(); id != "" {
		ok, err := s.api.SessionExists(ctx, id)
		if err == nil && ok {
			return id, nil
		}
		log.Warn().Err(err).Str("module", "app.session").Str("conference", string(id)).Msg("conference no longer valid")
		s.Invalidate(id)
	}

	v, err, _ := s.group.Do("create", func() (any, error) {
		if id := s.Current(); id != "" {
			return id, nil
		}
		id, err := s.api.CreateSession(ctx)
		if err != nil {
			return domain.ConferenceID(""), err
		}
		s.mu.Lock()
		s.current = id
		s.mu.Unlock()
		metrics.ConferencesCreated.Inc()
		log.Info().Str("module", "app.session").Str("conference", string(id)).Msg("created new conference")
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionUnavailable, err)
	}
	return v.(domain.ConferenceID), nil
}

// Register adds p to the registry only while conf is the active
// conference, so a participant minted for a conference that ended in the
// meantime never lands in its successor.
func (s *SessionContext) Register(conf domain.ConferenceID, p *domain.Participant) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" || s.current != conf {
		return false
	}
	s.registry.Add(p)
	return true
}

// Invalidate drops id if it is still the active conference.
func (s *SessionContext) Invalidate(id domain.ConferenceID) bool {
	s.mu.Lock()
	if s.current == "" || s.current != id {
		s.mu.Unlock()
		return false
	}
	s.current = ""
	s.registry.Reset()
	s.mu.Unlock()

	metrics.ConferencesInvalidated.Inc()
	metrics.ActiveParticipants.Set(0)
	log.Info().Str("module", "app.session").Str("conference", string(id)).Msg("conference invalidated")
	return true
}
