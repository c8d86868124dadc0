package errors

import "fmt"

var (
	ErrInvalidParticipants = fmt.Errorf("a thread needs at least two distinct participants")
	ErrThreadNotFound      = fmt.Errorf("thread not found")
	ErrNotAParticipant     = fmt.Errorf("sender is not a participant of the thread")
	ErrEmptyContent        = fmt.Errorf("message content is empty")
	ErrNoOtherParticipant  = fmt.Errorf("thread has no other participant")

	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrUnknownRole    = fmt.Errorf("unknown role")
	ErrInvalidCommand = fmt.Errorf("invalid command")

	ErrSignalDropped = fmt.Errorf("signal dropped")
	ErrNoHandler     = fmt.Errorf("no signal handler registered for participant")
	ErrEngineStopped = fmt.Errorf("call engine is not running")

	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrAlreadyStarted = fmt.Errorf("already started")
	ErrEmptyWords     = fmt.Errorf("no words have been found")
)
