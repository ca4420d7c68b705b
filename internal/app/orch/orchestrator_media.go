package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/dkeye/voicebridge/internal/core"
	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

// OnParticipantPublished records the new stream, subscribes every other
// participant to it and then catches the publisher up on existing streams.
func (o *Orchestrator) OnParticipantPublished(ctx context.Context, ev core.PublishedEvent) error {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if !o.Session.IsCurrent(ev.Conference) {
		log.Debug().Str("module", "app.orch").Str("conference", string(ev.Conference)).Msg("published event for another conference")
		return domain.ErrForeignConference
	}
	log.Info().Str("module", "app.orch").Str("participant", string(ev.Participant)).Str("stream", string(ev.Stream)).Msg("participant published stream")

	if !o.Registry.AddStream(ev.Participant, ev.Stream) {
		log.Warn().Str("module", "app.orch").Str("participant", string(ev.Participant)).Str("stream", string(ev.Stream)).
			Msg("stream not recorded: unknown publisher or duplicate")
	}
	o.publish(domain.Event{Type: domain.EventStreamPublished, Conference: ev.Conference, Participant: ev.Participant, Stream: ev.Stream})

	start := time.Now()
	defer func() { metrics.FanoutDuration.Observe(time.Since(start).Seconds()) }()

	err := o.subscribeOthers(ctx, ev.Conference, ev.Participant, ev.Stream)
	if ctx.Err() != nil {
		return err
	}
	return multierr.Append(err, o.join(ctx, ev.Conference, ev.Participant))
}

// Join subscribes id to every stream already published by someone else.
func (o *Orchestrator) Join(ctx context.Context, id domain.ParticipantID) error {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	conf := o.Session.Current()
	if conf == "" {
		return domain.ErrSessionUnavailable
	}
	return o.join(ctx, conf, id)
}

func (o *Orchestrator) OnParticipantJoined(ctx context.Context, ev core.ParticipantEvent) error {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if !o.Session.IsCurrent(ev.Conference) {
		return domain.ErrForeignConference
	}
	p, ok := o.Registry.Get(ev.Participant)
	if !ok {
		log.Warn().Str("module", "app.orch").Str("participant", string(ev.Participant)).Msg("joined participant is not registered")
		return domain.ErrParticipantNotFound
	}
	log.Info().Str("module", "app.orch").Str("participant", string(p.ID)).Msg("participant joined conference")
	o.publish(domain.Event{Type: domain.EventParticipantJoined, Conference: ev.Conference, Participant: p.ID, Kind: p.Kind})
	return o.join(ctx, ev.Conference, p.ID)
}

// OnParticipantLeft forgets a participant the vendor already dropped, so
// there is nothing to remove on the vendor side.
func (o *Orchestrator) OnParticipantLeft(_ context.Context, ev core.ParticipantEvent) error {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if !o.Session.IsCurrent(ev.Conference) {
		return domain.ErrForeignConference
	}
	if _, ok := o.forget(ev.Participant); ok {
		log.Info().Str("module", "app.orch").Str("participant", string(ev.Participant)).Msg("participant has left the conference")
	}
	return nil
}

// OnSessionEnded drops the conference so the next request creates a new one.
func (o *Orchestrator) OnSessionEnded(_ context.Context, ev core.SessionEvent) {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if o.Session.Invalidate(ev.Conference) {
		o.publish(domain.Event{Type: domain.EventConferenceReset, Conference: ev.Conference})
	}
}

func (o *Orchestrator) subscribeOthers(ctx context.Context, conf domain.ConferenceID, publisher domain.ParticipantID, stream domain.StreamID) error {
	var errs error
	for _, sub := range o.Registry.Others(publisher) {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, o.subscribe(ctx, conf, sub, stream))
	}
	return errs
}

func (o *Orchestrator) join(ctx context.Context, conf domain.ConferenceID, subscriber domain.ParticipantID) error {
	if !o.Registry.Has(subscriber) {
		return nil
	}
	var errs error
	for _, ref := range o.Registry.StreamsOfOthers(subscriber) {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, o.subscribe(ctx, conf, subscriber, ref.Stream))
	}
	return errs
}

// subscribe issues one vendor subscribe for a pair not requested before.
func (o *Orchestrator) subscribe(ctx context.Context, conf domain.ConferenceID, subscriber domain.ParticipantID, stream domain.StreamID) error {
	if !o.Registry.Reserve(subscriber, stream) {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, o.subscribeTimeout())
	defer cancel()

	err := o.RTC.Subscribe(callCtx, conf, subscriber, stream)
	metrics.RecordSubscription(err)
	if err != nil {
		o.Registry.Release(subscriber, stream)
		log.Error().Err(err).Str("module", "app.orch").Str("subscriber", string(subscriber)).Str("stream", string(stream)).Msg("subscribe failed")
		return fmt.Errorf("subscribe %s to %s: %w", subscriber, stream, err)
	}
	log.Info().Str("module", "app.orch").Str("subscriber", string(subscriber)).Str("stream", string(stream)).Msg("subscribed")
	return nil
}
