package services

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/errors"
	"context"
	stderrors "errors"
	"log/slog"
)

type ICallService interface {
	InitiateCall(ctx context.Context, peerID string, kind domain.MediaKind) error
	CallThreadPeer(ctx context.Context, threadID domain.ThreadID, kind domain.MediaKind) error
	RespondToCall(ctx context.Context, accept bool) error
	EndCall(ctx context.Context) error
	State(ctx context.Context) (domain.CallSnapshot, error)
	OnCallStateChanged(fn func(state domain.CallState, elapsedSeconds int))
}

var _ ICallService = (*CallService)(nil)

// CallService is the call control surface of one local participant.
type CallService struct {
	log       *slog.Logger
	engine    contract.ICallEngine
	directory contract.IDirectory
	threads   contract.IThreadStore
}

func NewCallService(log *slog.Logger, engine contract.ICallEngine, directory contract.IDirectory, threads contract.IThreadStore) *CallService {
	return &CallService{log: log, engine: engine, directory: directory, threads: threads}
}

// InitiateCall resolves the peer in the directory. An unknown peer leaves the engine Idle without error.
func (s *CallService) InitiateCall(ctx context.Context, peerID string, kind domain.MediaKind) error {
	peer, err := s.directory.GetUser(ctx, peerID)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		s.log.Debug("Peer not resolvable, call not placed", "peer", peerID)
		return nil
	}
	if err != nil {
		return err
	}
	return s.engine.Initiate(ctx, peer.Participant(), kind)
}

// CallThreadPeer calls the other participant of a thread the owner belongs to.
func (s *CallService) CallThreadPeer(ctx context.Context, threadID domain.ThreadID, kind domain.MediaKind) error {
	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return err
	}
	owner := s.engine.Owner()
	if !thread.HasParticipant(owner.ID) {
		return errors.ErrNotAParticipant
	}
	peer, err := thread.OtherParticipant(owner.ID)
	if err != nil {
		return err
	}
	return s.InitiateCall(ctx, peer.ID, kind)
}

func (s *CallService) RespondToCall(ctx context.Context, accept bool) error {
	if accept {
		return s.engine.Accept(ctx)
	}
	return s.engine.Decline(ctx)
}

func (s *CallService) EndCall(ctx context.Context) error {
	return s.engine.Hangup(ctx)
}

func (s *CallService) State(ctx context.Context) (domain.CallSnapshot, error) {
	return s.engine.Snapshot(ctx)
}

// OnCallStateChanged is called on the engine loop; fn must not call back into the service.
func (s *CallService) OnCallStateChanged(fn func(state domain.CallState, elapsedSeconds int)) {
	s.engine.OnStateChanged(func(snapshot domain.CallSnapshot) {
		fn(snapshot.State, snapshot.ElapsedSeconds())
	})
}
