package services

import (
	"campus-chat/domain"
	"campus-chat/errors"
	"campus-chat/mocks"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type callMocks struct {
	engine    *mocks.MockICallEngine
	directory *mocks.MockIDirectory
	threads   *mocks.MockIThreadStore
}

func newCallService(t *testing.T) (*CallService, callMocks) {
	ctrl := gomock.NewController(t)
	m := callMocks{
		engine:    mocks.NewMockICallEngine(ctrl),
		directory: mocks.NewMockIDirectory(ctrl),
		threads:   mocks.NewMockIThreadStore(ctrl),
	}
	return NewCallService(slog.Default(), m.engine, m.directory, m.threads), m
}

func TestCallService_InitiateCall(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the peer then initiates", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)

		m.directory.EXPECT().GetUser(ctx, "u2").Return(userBob, nil).Times(1)
		m.engine.EXPECT().Initiate(ctx, domain.Participant{ID: "u2", Name: "Bob"}, domain.MediaVoice).Return(nil).Times(1)

		req.NoError(svc.InitiateCall(ctx, "u2", domain.MediaVoice))
	})

	t.Run("unresolvable peer silently stays idle", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)

		m.directory.EXPECT().GetUser(ctx, "ghost").Return(domain.User{}, errors.ErrUserNotFound).Times(1)
		m.engine.EXPECT().Initiate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req.NoError(svc.InitiateCall(ctx, "ghost", domain.MediaVideo))
	})

	t.Run("directory outage is reported", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)
		outage := context.DeadlineExceeded

		m.directory.EXPECT().GetUser(ctx, "u2").Return(domain.User{}, outage).Times(1)

		req.ErrorIs(svc.InitiateCall(ctx, "u2", domain.MediaVideo), outage)
	})
}

func TestCallService_CallThreadPeer(t *testing.T) {
	ctx := context.Background()
	thread := domain.Thread{
		ID:               "t1",
		ParticipantIDs:   []string{"u1", "u2"},
		ParticipantNames: map[string]string{"u1": "Alice", "u2": "Bob"},
	}

	t.Run("calls the other participant", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)

		m.threads.EXPECT().Get(ctx, domain.ThreadID("t1")).Return(thread, nil).Times(1)
		m.engine.EXPECT().Owner().Return(userAlice.Participant()).Times(1)
		m.directory.EXPECT().GetUser(ctx, "u2").Return(userBob, nil).Times(1)
		m.engine.EXPECT().Initiate(ctx, userBob.Participant(), domain.MediaVideo).Return(nil).Times(1)

		req.NoError(svc.CallThreadPeer(ctx, "t1", domain.MediaVideo))
	})

	t.Run("owner outside the thread", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)

		m.threads.EXPECT().Get(ctx, domain.ThreadID("t1")).Return(thread, nil).Times(1)
		m.engine.EXPECT().Owner().Return(userClara.Participant()).Times(1)

		req.ErrorIs(svc.CallThreadPeer(ctx, "t1", domain.MediaVideo), errors.ErrNotAParticipant)
	})

	t.Run("unknown thread", func(t *testing.T) {
		req := require.New(t)
		svc, m := newCallService(t)

		m.threads.EXPECT().Get(ctx, domain.ThreadID("nope")).Return(domain.Thread{}, errors.ErrThreadNotFound).Times(1)

		req.ErrorIs(svc.CallThreadPeer(ctx, "nope", domain.MediaVoice), errors.ErrThreadNotFound)
	})
}

func TestCallService_Respond_And_End(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, m := newCallService(t)

	gomock.InOrder(
		m.engine.EXPECT().Accept(ctx).Return(nil),
		m.engine.EXPECT().Decline(ctx).Return(nil),
		m.engine.EXPECT().Hangup(ctx).Return(nil),
	)

	req.NoError(svc.RespondToCall(ctx, true))
	req.NoError(svc.RespondToCall(ctx, false))
	req.NoError(svc.EndCall(ctx))
}

func TestCallService_OnCallStateChanged(t *testing.T) {
	req := require.New(t)
	svc, m := newCallService(t)

	var listener domain.CallListener
	m.engine.EXPECT().OnStateChanged(gomock.Any()).Do(func(l domain.CallListener) {
		listener = l
	}).Times(1)

	var states []domain.CallState
	var elapsed []int
	svc.OnCallStateChanged(func(state domain.CallState, elapsedSeconds int) {
		states = append(states, state)
		elapsed = append(elapsed, elapsedSeconds)
	})

	// When the engine reports an active call after 42 seconds, then idle
	listener(domain.CallSnapshot{State: domain.CallActive, Session: &domain.CallSession{Peer: userBob.Participant(), ElapsedSeconds: 42}})
	listener(domain.CallSnapshot{State: domain.CallIdle})

	req.Equal([]domain.CallState{domain.CallActive, domain.CallIdle}, states)
	req.Equal([]int{42, 0}, elapsed)
}
