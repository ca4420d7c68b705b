package rtc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/core"
	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

// LiveKit webhook event names.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventTrackPublished    = "track_published"
	EventRoomFinished      = "room_finished"
)

var ErrInvalidWebhook = errors.New("invalid webhook")

// HandleWebhook verifies the request signature and dispatches the event.
func (l *LiveKit) HandleWebhook(r *http.Request) error {
	ev, err := webhook.ReceiveWebhookEvent(r, l.keys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	l.Dispatch(r.Context(), ev)
	return nil
}

// Dispatch routes a webhook event to the registered handler.
func (l *LiveKit) Dispatch(ctx context.Context, ev *livekit.WebhookEvent) {
	metrics.WebhookEvents.WithLabelValues(ev.GetEvent()).Inc()

	l.mu.RLock()
	onPublished, onJoined, onLeft, onEnded := l.onPublished, l.onJoined, l.onLeft, l.onEnded
	l.mu.RUnlock()

	conf := domain.ConferenceID(ev.GetRoom().GetName())
	participant := domain.ParticipantID(ev.GetParticipant().GetIdentity())

	log.Debug().Str("module", "adapters.rtc").Str("event", ev.GetEvent()).Str("conference", string(conf)).
		Str("participant", string(participant)).Msg("webhook event")

	switch ev.GetEvent() {
	case EventTrackPublished:
		if onPublished != nil {
			onPublished(ctx, core.PublishedEvent{
				Conference:  conf,
				Participant: participant,
				Stream:      domain.StreamID(ev.GetTrack().GetSid()),
			})
		}
	case EventParticipantJoined:
		if onJoined != nil {
			onJoined(ctx, core.ParticipantEvent{Conference: conf, Participant: participant})
		}
	case EventParticipantLeft:
		if onLeft != nil {
			onLeft(ctx, core.ParticipantEvent{Conference: conf, Participant: participant})
		}
	case EventRoomFinished:
		if onEnded != nil {
			onEnded(ctx, core.SessionEvent{Conference: conf})
		}
	}
}
