package domain

type EventType string

const (
	EventParticipantAdded   EventType = "participant_added"
	EventParticipantJoined  EventType = "participant_joined"
	EventParticipantRemoved EventType = "participant_removed"
	EventStreamPublished    EventType = "stream_published"
	EventConferenceReset    EventType = "conference_reset"
)

// Event is a roster change pushed to connected browsers.
type Event struct {
	Type        EventType       `json:"type"`
	Conference  ConferenceID    `json:"conferenceId"`
	Participant ParticipantID   `json:"participantId,omitempty"`
	Kind        ParticipantKind `json:"kind,omitempty"`
	Stream      StreamID        `json:"streamId,omitempty"`
}
