package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkeye/voicebridge/internal/core"
	"github.com/dkeye/voicebridge/internal/domain"
)

// VendorRoster is what the syncer asks the vendor about the conference.
type VendorRoster interface {
	SessionExists(ctx context.Context, id domain.ConferenceID) (bool, error)
	ListParticipants(ctx context.Context, id domain.ConferenceID) ([]domain.ParticipantID, error)
}

// Reconciler applies the corrections the syncer finds.
type Reconciler interface {
	OnSessionEnded(ctx context.Context, ev core.SessionEvent)
	RemoveParticipant(ctx context.Context, id domain.ParticipantID) error
}

// Syncer periodically compares local state with the vendor:
// - the conference is dropped when the vendor no longer has it
// - participants that never showed up at the vendor are removed after staleTTL
type Syncer struct {
	session    *SessionContext
	registry   *Registry
	vendor     VendorRoster
	reconciler Reconciler
	staleTTL   time.Duration
	interval   time.Duration
	log        zerolog.Logger
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewSyncer(
	session *SessionContext,
	registry *Registry,
	vendor VendorRoster,
	reconciler Reconciler,
	staleTTL time.Duration,
	interval time.Duration,
	log zerolog.Logger,
) *Syncer {
	return &Syncer{
		session:    session,
		registry:   registry,
		vendor:     vendor,
		reconciler: reconciler,
		staleTTL:   staleTTL,
		interval:   interval,
		log:        log.With().Str("module", "app.syncer").Logger(),
		done:       make(chan struct{}),
	}
}

// Start begins the sync loop in background. Only the first call starts it.
func (s *Syncer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
		s.log.Info().Dur("interval", s.interval).Msg("conference syncer started")
	})
}

// Stop shuts the loop down and waits for it. Only the first call stops it.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.log.Info().Msg("conference syncer stopped")
	})
}

func (s *Syncer) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("context cancelled, shutting down syncer")
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Sync(ctx)
		}
	}
}

// Sync runs one reconciliation pass.
func (s *Syncer) Sync(ctx context.Context) {
	conf := s.session.Current()
	if conf == "" {
		return
	}

	exists, err := s.vendor.SessionExists(ctx, conf)
	if err != nil {
		s.log.Warn().Err(err).Str("conference", string(conf)).Msg("vendor unreachable, skipping sync")
		return
	}
	if !exists {
		s.log.Info().Str("conference", string(conf)).Str("reason", "gone").Msg("conference cleanup")
		s.reconciler.OnSessionEnded(ctx, core.SessionEvent{Conference: conf})
		return
	}

	present, err := s.vendor.ListParticipants(ctx, conf)
	if err != nil {
		s.log.Warn().Err(err).Str("conference", string(conf)).Msg("failed to list participants")
		return
	}
	seen := make(map[domain.ParticipantID]struct{}, len(present))
	for _, id := range present {
		seen[id] = struct{}{}
	}

	now := time.Now()
	pruned := 0
	for _, p := range s.registry.Participants() {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if now.Sub(p.CreatedAt) <= s.staleTTL {
			continue
		}
		if err := s.reconciler.RemoveParticipant(ctx, p.ID); err != nil {
			s.log.Debug().Err(err).Str("participant", string(p.ID)).Msg("stale participant removal")
		}
		pruned++
		s.log.Info().
			Str("action", "deleted").
			Str("participant", string(p.ID)).
			Str("reason", "stale").
			Dur("age", now.Sub(p.CreatedAt)).
			Msg("participant cleanup")
	}

	s.log.Debug().
		Int("vendor_participants", len(present)).
		Int("registered", s.registry.Count()).
		Int("pruned", pruned).
		Msg("sync cycle")
}
