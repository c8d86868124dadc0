package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type CallState string

const (
	CallIdle     CallState = "IDLE"
	CallCalling  CallState = "CALLING"
	CallIncoming CallState = "INCOMING"
	CallActive   CallState = "ACTIVE"
)

type MediaKind string

const (
	MediaVoice MediaKind = "voice"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaVoice || k == MediaVideo
}

// CallSession is the ephemeral state of a negotiating or active call.
// ElapsedSeconds is only meaningful in CallActive. CallID is chosen by the
// caller and shared by both sides.
type CallSession struct {
	CallID         uuid.UUID
	Peer           Participant
	MediaKind      MediaKind
	ElapsedSeconds int
}

// CallSnapshot is what the engine publishes to its listeners.
// Session is nil in CallIdle.
type CallSnapshot struct {
	State   CallState
	Session *CallSession
}

func (s CallSnapshot) ElapsedSeconds() int {
	if s.State != CallActive || s.Session == nil {
		return 0
	}
	return s.Session.ElapsedSeconds
}

// FormatElapsed renders seconds as mm:ss. Minutes are not wrapped into hours:
// 6000 seconds is "100:00".
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// CallListener observes call state changes and elapsed-time ticks.
type CallListener func(snapshot CallSnapshot)
