package core

import (
	"context"

	"github.com/dkeye/voicebridge/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_rtc.go -package=mocks github.com/dkeye/voicebridge/internal/core RTCService

// PublishedEvent is raised by the vendor when a participant publishes a stream.
type PublishedEvent struct {
	Conference  domain.ConferenceID
	Participant domain.ParticipantID
	Stream      domain.StreamID
}

// ParticipantEvent is raised when a participant joins or leaves a conference.
type ParticipantEvent struct {
	Conference  domain.ConferenceID
	Participant domain.ParticipantID
}

// SessionEvent is raised when the vendor closes a conference.
type SessionEvent struct {
	Conference domain.ConferenceID
}

type (
	PublishedHandler   func(ctx context.Context, ev PublishedEvent)
	ParticipantHandler func(ctx context.Context, ev ParticipantEvent)
	SessionHandler     func(ctx context.Context, ev SessionEvent)
)

// RTCService is the capability contract of the hosted RTC vendor.
// The orchestration layer only talks to the vendor through it.
type RTCService interface {
	// Connect verifies credentials and reachability of the vendor.
	Connect(ctx context.Context) error
	// ConnectURL is the signaling endpoint browsers connect to.
	ConnectURL() string

	CreateSession(ctx context.Context) (domain.ConferenceID, error)
	// SessionExists reports whether the vendor still knows the conference.
	SessionExists(ctx context.Context, id domain.ConferenceID) (bool, error)

	CreateParticipant(ctx context.Context, conf domain.ConferenceID, tag string, kind domain.ParticipantKind) (*domain.Participant, error)
	RemoveParticipant(ctx context.Context, conf domain.ConferenceID, id domain.ParticipantID) error
	// ListParticipants returns identities currently connected to the conference.
	ListParticipants(ctx context.Context, conf domain.ConferenceID) ([]domain.ParticipantID, error)

	// Subscribe asks the vendor to deliver stream to subscriber.
	Subscribe(ctx context.Context, conf domain.ConferenceID, subscriber domain.ParticipantID, stream domain.StreamID) error

	OnParticipantPublished(fn PublishedHandler)
	OnParticipantJoined(fn ParticipantHandler)
	OnParticipantLeft(fn ParticipantHandler)
	OnSessionEnded(fn SessionHandler)
}
