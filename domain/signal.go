package domain

import (
	"time"

	"github.com/google/uuid"
)

type SignalKind string

const (
	SignalCallInitiated SignalKind = "CALL_INITIATED"
	SignalCallAccepted  SignalKind = "CALL_ACCEPTED"
	SignalCallDeclined  SignalKind = "CALL_DECLINED"
	SignalCallEnded     SignalKind = "CALL_ENDED"
)

// Signal is a call-control event travelling between two participants.
// CallID names the call attempt the signal belongs to.
type Signal struct {
	ID        uuid.UUID
	CallID    uuid.UUID
	Kind      SignalKind
	From      Participant
	To        string
	MediaKind MediaKind
	SentAt    time.Time
}

func NewSignal(kind SignalKind, callID uuid.UUID, from Participant, to string, mediaKind MediaKind) Signal {
	return Signal{
		ID:        uuid.New(),
		CallID:    callID,
		Kind:      kind,
		From:      from,
		To:        to,
		MediaKind: mediaKind,
		SentAt:    time.Now().UTC(),
	}
}
