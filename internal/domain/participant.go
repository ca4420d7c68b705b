// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

const MaxTagLen = 64

var (
	ErrSessionUnavailable  = errors.New("conference unavailable")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrConferenceFull      = errors.New("conference full")
	ErrForeignConference   = errors.New("event for another conference")
	ErrVendor              = errors.New("rtc vendor request failed")
)

type (
	ParticipantID string
	StreamID      string
)

type ParticipantKind string

const (
	KindBrowser ParticipantKind = "browser"
	KindPhone   ParticipantKind = "phone"
)

// Participant is an identity inside the active conference together with the
// credential the vendor issued for it.
type Participant struct {
	ID        ParticipantID   `json:"id"`
	Tag       string          `json:"tag"`
	Kind      ParticipantKind `json:"kind"`
	Token     string          `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NormalizeTag keeps tags short enough for vendor metadata. The cut never
// splits a multi-byte character.
func NormalizeTag(tag string) string {
	if len(tag) <= MaxTagLen {
		return tag
	}
	cut := MaxTagLen
	for cut > 0 && !utf8.RuneStart(tag[cut]) {
		cut--
	}
	return tag[:cut]
}
