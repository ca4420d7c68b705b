package orch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/app"
	"github.com/dkeye/voicebridge/internal/core"
	"github.com/dkeye/voicebridge/internal/domain"
)

const defaultSubscribeTimeout = 5 * time.Second

// EventPublisher receives roster changes. Implementations must not block.
type EventPublisher interface {
	Publish(ev domain.Event)
}

type Orchestrator struct {
	Session  *app.SessionContext
	Registry *app.Registry
	RTC      core.RTCService
	Policy   app.Policy
	Events   EventPublisher

	SubscribeTimeout time.Duration

	// vendor events are applied one at a time
	eventMu sync.Mutex
}

func New(rtc core.RTCService, policy app.Policy, events EventPublisher, subscribeTimeout time.Duration) *Orchestrator {
	reg := app.NewRegistry()
	return &Orchestrator{
		Session:          app.NewSessionContext(rtc, reg),
		Registry:         reg,
		RTC:              rtc,
		Policy:           policy,
		Events:           events,
		SubscribeTimeout: subscribeTimeout,
	}
}

// Bind registers the orchestrator as the handler of every vendor event.
func (o *Orchestrator) Bind() {
	o.RTC.OnParticipantPublished(func(ctx context.Context, ev core.PublishedEvent) {
		_ = o.OnParticipantPublished(ctx, ev)
	})
	o.RTC.OnParticipantJoined(func(ctx context.Context, ev core.ParticipantEvent) {
		_ = o.OnParticipantJoined(ctx, ev)
	})
	o.RTC.OnParticipantLeft(func(ctx context.Context, ev core.ParticipantEvent) {
		_ = o.OnParticipantLeft(ctx, ev)
	})
	o.RTC.OnSessionEnded(func(ctx context.Context, ev core.SessionEvent) {
		o.OnSessionEnded(ctx, ev)
	})
	log.Info().Str("module", "app.orch").Msg("vendor event handlers bound")
}

func (o *Orchestrator) publish(ev domain.Event) {
	if o.Events == nil {
		return
	}
	o.Events.Publish(ev)
}

func (o *Orchestrator) subscribeTimeout() time.Duration {
	if o.SubscribeTimeout <= 0 {
		return defaultSubscribeTimeout
	}
	return o.SubscribeTimeout
}
