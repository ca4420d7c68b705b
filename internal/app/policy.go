package app

import "github.com/dkeye/voicebridge/internal/domain"

type AdmissionAction int

const (
	Admit AdmissionAction = iota
	Reject
)

// Policy decides whether another participant may enter the conference.
type Policy interface {
	OnAdmit(kind domain.ParticipantKind, current int) AdmissionAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnAdmit(domain.ParticipantKind, int) AdmissionAction {
	return Admit
}

// CapacityPolicy rejects newcomers once Max participants are registered.
// Max <= 0 means unlimited.
type CapacityPolicy struct {
	Max int
}

func (p CapacityPolicy) OnAdmit(_ domain.ParticipantKind, current int) AdmissionAction {
	if p.Max > 0 && current >= p.Max {
		return Reject
	}
	return Admit
}

// NewPolicy picks the policy for the configured capacity.
func NewPolicy(maxParticipants int) Policy {
	if maxParticipants <= 0 {
		return SimplePolicy{}
	}
	return CapacityPolicy{Max: maxParticipants}
}
