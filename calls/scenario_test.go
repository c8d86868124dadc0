package calls

import (
	"campus-chat/domain"
	"campus-chat/signaling"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, engine *Engine, state domain.CallState) {
	require.Eventually(t, func() bool {
		snapshot, err := engine.Snapshot(context.Background())
		return err == nil && snapshot.State == state
	}, time.Second, 5*time.Millisecond, "%s never reached %s", engine.Owner().ID, state)
}

func TestEngine_Two_Peers_Over_Hub(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	clock := newFakeClock()
	hub := signaling.NewHub(log, 8, time.Second)

	caller := NewEngine(log, alice, hub.Endpoint(alice.ID), WithClock(clock))
	callee := NewEngine(log, bob, hub.Endpoint(bob.ID), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()
	go func() { _ = caller.Run(ctx) }()
	go func() { _ = callee.Run(ctx) }()

	// When alice calls bob
	req.NoError(caller.Initiate(context.Background(), bob, domain.MediaVoice))
	waitFor(t, caller, domain.CallCalling)

	// Then bob is ringing with alice as peer
	waitFor(t, callee, domain.CallIncoming)
	snapshot, err := callee.Snapshot(context.Background())
	req.NoError(err)
	req.Equal(alice, snapshot.Session.Peer)
	req.Equal(domain.MediaVoice, snapshot.Session.MediaKind)
	calling, err := caller.Snapshot(context.Background())
	req.NoError(err)
	req.Equal(calling.Session.CallID, snapshot.Session.CallID)

	// When bob accepts
	req.NoError(callee.Accept(context.Background()))

	// Then both ends are active from zero
	waitFor(t, callee, domain.CallActive)
	waitFor(t, caller, domain.CallActive)
	for _, engine := range []*Engine{caller, callee} {
		snapshot, err := engine.Snapshot(context.Background())
		req.NoError(err)
		req.Equal(0, snapshot.ElapsedSeconds())
	}

	// When one second elapses
	req.Equal(2, clock.Tick())
	for _, engine := range []*Engine{caller, callee} {
		snapshot, err := engine.Snapshot(context.Background())
		req.NoError(err)
		req.Equal(1, snapshot.ElapsedSeconds())
	}

	// When alice hangs up
	req.NoError(caller.Hangup(context.Background()))

	// Then both ends are idle and no ticker is left
	waitFor(t, caller, domain.CallIdle)
	waitFor(t, callee, domain.CallIdle)
	req.Zero(clock.liveTickers())
}

func TestEngine_Busy_Callee_Ignores_Second_Caller(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	hub := signaling.NewHub(log, 8, time.Second)

	first := NewEngine(log, alice, hub.Endpoint(alice.ID), WithClock(newFakeClock()))
	second := NewEngine(log, carol, hub.Endpoint(carol.ID), WithClock(newFakeClock()))
	callee := NewEngine(log, bob, hub.Endpoint(bob.ID), WithClock(newFakeClock()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, w := range []interface{ Run(context.Context) error }{hub, first, second, callee} {
		go func() { _ = w.Run(ctx) }()
	}

	// Given bob ringing for alice
	req.NoError(first.Initiate(context.Background(), bob, domain.MediaVideo))
	waitFor(t, callee, domain.CallIncoming)

	// When carol calls too
	req.NoError(second.Initiate(context.Background(), bob, domain.MediaVoice))
	waitFor(t, second, domain.CallCalling)

	// Then bob still rings for alice
	req.Never(func() bool {
		snapshot, err := callee.Snapshot(context.Background())
		return err != nil || snapshot.Session.Peer.ID != alice.ID
	}, 100*time.Millisecond, 10*time.Millisecond)
}
