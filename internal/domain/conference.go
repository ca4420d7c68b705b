package domain

type ConferenceID string

// Conference is the single active real-time context of the process.
type Conference struct {
	ID   ConferenceID
	Name string
}

// ParticipantView is a read-only roster entry (no credentials).
type ParticipantView struct {
	ID      ParticipantID   `json:"id"`
	Tag     string          `json:"tag"`
	Kind    ParticipantKind `json:"kind"`
	Streams []StreamID      `json:"streams"`
}
