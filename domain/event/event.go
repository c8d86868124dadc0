package event

import (
	"campus-chat/domain"
	"time"
)

type Type string

const (
	ThreadStartedType    Type = "THREAD_STARTED"
	MessageAppendedType  Type = "MESSAGE_APPENDED"
	MessageCensoredType  Type = "MESSAGE_CENSORED"
	CallTransitionedType Type = "CALL_TRANSITIONED"
	SignalDroppedType    Type = "SIGNAL_DROPPED"
)

// DomainEvent is published by the orchestrator after a state change.
// Recipients lists the participants whose sinks should see it;
// permanent sinks see every event.
type DomainEvent interface {
	Type() Type
	Recipients() []string
}

type ThreadStarted struct {
	Thread domain.Thread
}

func (e ThreadStarted) Type() Type           { return ThreadStartedType }
func (e ThreadStarted) Recipients() []string { return e.Thread.ParticipantIDs }

type MessageAppended struct {
	Message      domain.Message
	Participants []string
}

func (e MessageAppended) Type() Type           { return MessageAppendedType }
func (e MessageAppended) Recipients() []string { return e.Participants }

type MessageCensored struct {
	ThreadID domain.ThreadID
	SenderID string
	Words    []string
	Lang     string
	At       time.Time
}

func (e MessageCensored) Type() Type           { return MessageCensoredType }
func (e MessageCensored) Recipients() []string { return nil }

type CallTransitioned struct {
	Owner string
	From  domain.CallState
	To    domain.CallState
	At    time.Time
}

func (e CallTransitioned) Type() Type           { return CallTransitionedType }
func (e CallTransitioned) Recipients() []string { return []string{e.Owner} }

type SignalDropped struct {
	Signal domain.Signal
	Reason string
}

func (e SignalDropped) Type() Type           { return SignalDroppedType }
func (e SignalDropped) Recipients() []string { return nil }
