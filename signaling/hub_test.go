package signaling

import (
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"campus-chat/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = domain.Participant{ID: "u1", Name: "Alice"}
	bob   = domain.Participant{ID: "u2", Name: "Bob"}
)

func runHub(t *testing.T, hub *Hub) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestHub_Delivers_To_Recipient(t *testing.T) {
	req := require.New(t)
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), 4, time.Second)
	runHub(t, hub)

	received := make(chan domain.Signal, 1)
	hub.Endpoint(bob.ID).OnSignal(func(_ context.Context, sig domain.Signal) {
		received <- sig
	})

	// When alice notifies bob
	sig := domain.NewSignal(domain.SignalCallInitiated, uuid.New(), alice, bob.ID, domain.MediaVoice)
	req.NoError(hub.Endpoint(alice.ID).NotifyPeer(context.Background(), sig))

	// Then bob's handler sees it
	select {
	case got := <-received:
		req.Equal(sig.ID, got.ID)
		req.Equal(sig.CallID, got.CallID)
		req.Equal(domain.SignalCallInitiated, got.Kind)
		req.Equal(alice, got.From)
		req.Equal(domain.MediaVoice, got.MediaKind)
	case <-time.After(time.Second):
		req.Fail("signal was never delivered")
	}
}

func TestHub_Sender_Is_Endpoint_Owner(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 4, time.Second)
	runHub(t, hub)

	received := make(chan domain.Signal, 1)
	hub.Endpoint(bob.ID).OnSignal(func(_ context.Context, sig domain.Signal) { received <- sig })

	// Given a signal pretending to come from someone else
	forged := domain.NewSignal(domain.SignalCallEnded, uuid.New(), domain.Participant{ID: "mallory", Name: "Alice"}, bob.ID, "")
	req.NoError(hub.Endpoint(alice.ID).NotifyPeer(context.Background(), forged))

	// Then the hub stamps the real sender
	req.Equal(alice.ID, (<-received).From.ID)
}

func TestHub_Unknown_Peer_Is_Dropped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockEventPublisher(ctrl)
	hub := NewHub(slog.Default(), 4, time.Second, WithPublisher(publisher))

	sig := domain.NewSignal(domain.SignalCallInitiated, uuid.New(), alice, "nobody", domain.MediaVideo)

	// Then a SignalDropped event is published
	publisher.EXPECT().Publish(gomock.Any()).Do(func(evt event.DomainEvent) {
		dropped, ok := evt.(event.SignalDropped)
		req.True(ok)
		req.Equal(ReasonUnknownPeer, dropped.Reason)
		req.Equal(sig.ID, dropped.Signal.ID)
	}).Times(1)

	// When nobody listens for the recipient
	err := hub.Endpoint(alice.ID).NotifyPeer(context.Background(), sig)
	req.ErrorIs(err, errors.ErrSignalDropped)
	req.ErrorIs(err, errors.ErrNoHandler)
}

func TestHub_Full_Queue_Drops_Signal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockEventPublisher(ctrl)

	// Given a hub with a single slot and no Run loop draining it
	hub := NewHub(slog.Default(), 1, time.Second, WithPublisher(publisher))
	hub.Endpoint(bob.ID).OnSignal(func(context.Context, domain.Signal) {})
	sender := hub.Endpoint(alice.ID)

	publisher.EXPECT().Publish(gomock.AssignableToTypeOf(event.SignalDropped{})).Times(1)

	// When two signals are sent
	req.NoError(sender.NotifyPeer(context.Background(), domain.NewSignal(domain.SignalCallInitiated, uuid.New(), alice, bob.ID, domain.MediaVoice)))
	err := sender.NotifyPeer(context.Background(), domain.NewSignal(domain.SignalCallEnded, uuid.New(), alice, bob.ID, ""))

	// Then the second one is dropped without blocking
	req.ErrorIs(err, errors.ErrSignalDropped)
	req.NotErrorIs(err, errors.ErrNoHandler)
}

func TestHub_Latency_Delays_Delivery(t *testing.T) {
	req := require.New(t)
	latency := 50 * time.Millisecond
	hub := NewHub(slog.Default(), 4, time.Second, WithLatency(latency))
	runHub(t, hub)

	received := make(chan time.Time, 1)
	hub.Endpoint(bob.ID).OnSignal(func(context.Context, domain.Signal) { received <- time.Now() })

	start := time.Now()
	req.NoError(hub.Endpoint(alice.ID).NotifyPeer(context.Background(),
		domain.NewSignal(domain.SignalCallAccepted, uuid.New(), alice, bob.ID, domain.MediaVoice)))

	select {
	case at := <-received:
		req.GreaterOrEqual(at.Sub(start), latency)
	case <-time.After(time.Second):
		req.Fail("signal was never delivered")
	}
}

func TestHub_Disconnect(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 4, time.Second)
	hub.Endpoint(bob.ID).OnSignal(func(context.Context, domain.Signal) {})

	// When bob disconnects
	hub.Disconnect(bob.ID)

	// Then signals to bob are refused
	err := hub.Endpoint(alice.ID).NotifyPeer(context.Background(),
		domain.NewSignal(domain.SignalCallInitiated, uuid.New(), alice, bob.ID, domain.MediaVoice))
	req.ErrorIs(err, errors.ErrNoHandler)
}

func TestHub_Cancelled_Context_Is_Refused(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 4, time.Second)
	hub.Endpoint(bob.ID).OnSignal(func(context.Context, domain.Signal) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := hub.Endpoint(alice.ID).NotifyPeer(ctx, domain.NewSignal(domain.SignalCallInitiated, uuid.New(), alice, bob.ID, domain.MediaVoice))
	req.ErrorIs(err, context.Canceled)
}
