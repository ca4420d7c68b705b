package orch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/app"
	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

// Roster is the registry as seen from outside.
type Roster struct {
	ConferenceID domain.ConferenceID      `json:"conferenceId"`
	Participants []domain.ParticipantView `json:"participants"`
}

// AddParticipant makes sure a conference exists, asks the vendor for a new
// participant in it and registers that participant with no streams.
func (o *Orchestrator) AddParticipant(ctx context.Context, tag string, kind domain.ParticipantKind) (*domain.Participant, domain.ConferenceID, error) {
	conf, err := o.Session.Ensure(ctx)
	if err != nil {
		return nil, "", err
	}

	if o.Policy != nil && o.Policy.OnAdmit(kind, o.Registry.Count()) == app.Reject {
		log.Warn().Str("module", "app.orch").Str("conference", string(conf)).Str("kind", string(kind)).
			Int("participants", o.Registry.Count()).Msg("admission rejected")
		return nil, conf, domain.ErrConferenceFull
	}

	p, err := o.RTC.CreateParticipant(ctx, conf, domain.NormalizeTag(tag), kind)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("conference", string(conf)).Msg("create participant")
		return nil, conf, fmt.Errorf("%w: create participant: %w", domain.ErrVendor, err)
	}

	if !o.Session.Register(conf, p) {
		log.Warn().Str("module", "app.orch").Str("conference", string(conf)).Str("participant", string(p.ID)).
			Msg("conference ended while adding participant")
		return nil, conf, fmt.Errorf("%w: conference %s ended while adding participant", domain.ErrSessionUnavailable, conf)
	}
	metrics.ParticipantsCreated.WithLabelValues(string(kind)).Inc()
	metrics.ActiveParticipants.Set(float64(o.Registry.Count()))
	log.Info().Str("module", "app.orch").Str("conference", string(conf)).Str("participant", string(p.ID)).
		Str("kind", string(kind)).Msg("created new participant")

	o.publish(domain.Event{Type: domain.EventParticipantAdded, Conference: conf, Participant: p.ID, Kind: kind})
	return p, conf, nil
}

// ConnectionInfo creates a browser participant tagged with the client token.
func (o *Orchestrator) ConnectionInfo(ctx context.Context, clientToken string) (*domain.Participant, domain.ConferenceID, error) {
	return o.AddParticipant(ctx, clientToken, domain.KindBrowser)
}

// IncomingCall creates a phone participant for an inbound call.
func (o *Orchestrator) IncomingCall(ctx context.Context, callID, from string) (*domain.Participant, domain.ConferenceID, error) {
	log.Info().Str("module", "app.orch").Str("call", callID).Str("from", from).Msg("received incoming call")
	return o.AddParticipant(ctx, from, domain.KindPhone)
}

// RemoveParticipant forgets the participant locally, then asks the vendor to
// drop it. A vendor failure is reported but not retried.
func (o *Orchestrator) RemoveParticipant(ctx context.Context, id domain.ParticipantID) error {
	conf, ok := o.forget(id)
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if conf == "" {
		return nil
	}
	if err := o.RTC.RemoveParticipant(ctx, conf, id); err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("participant", string(id)).Msg("vendor remove participant")
		return fmt.Errorf("%w: remove participant: %w", domain.ErrVendor, err)
	}
	return nil
}

// forget drops id from the registry and announces it. It reports the
// conference the participant was part of.
func (o *Orchestrator) forget(id domain.ParticipantID) (domain.ConferenceID, bool) {
	if !o.Registry.Remove(id) {
		return "", false
	}
	metrics.ActiveParticipants.Set(float64(o.Registry.Count()))

	conf := o.Session.Current()
	o.publish(domain.Event{Type: domain.EventParticipantRemoved, Conference: conf, Participant: id})
	return conf, true
}

func (o *Orchestrator) Roster() Roster {
	return Roster{
		ConferenceID: o.Session.Current(),
		Participants: o.Registry.Snapshot(),
	}
}
