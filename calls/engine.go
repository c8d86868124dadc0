// Package calls runs the call session state machine of one local participant.
package calls

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const tickInterval = time.Second

var (
	_ contract.Worker      = (*Engine)(nil)
	_ contract.ICallEngine = (*Engine)(nil)
)

type request struct {
	apply func(ctx context.Context)
	done  chan struct{}
}

// Engine is an actor: Run owns the state and applies user actions, inbound
// signals, ticks and ring timeouts one at a time. Events that match no
// transition are ignored.
type Engine struct {
	log         *slog.Logger
	owner       domain.Participant
	channel     contract.SignalingChannel
	publisher   contract.EventPublisher
	clock       Clock
	ringTimeout time.Duration

	inbox    chan request
	stopped  chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	listeners []domain.CallListener

	// Owned by Run
	state   domain.CallState
	session *domain.CallSession
	ticker  Ticker
	ring    Timer
}

type Option func(*Engine)

func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRingTimeout bounds the Calling and Incoming states. Zero disables it.
func WithRingTimeout(timeout time.Duration) Option {
	return func(e *Engine) { e.ringTimeout = timeout }
}

func WithPublisher(publisher contract.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// NewEngine registers the engine as the signal handler of channel.
func NewEngine(log *slog.Logger, owner domain.Participant, channel contract.SignalingChannel, opts ...Option) *Engine {
	e := &Engine{
		log:     log.With("owner", owner.ID),
		owner:   owner,
		channel: channel,
		clock:   SystemClock{},
		inbox:   make(chan request),
		stopped: make(chan struct{}),
		state:   domain.CallIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	channel.OnSignal(e.receive)
	return e
}

func (e *Engine) Owner() domain.Participant {
	return e.owner
}

// OnStateChanged subscribes a listener for the engine lifetime.
// Listeners run on the engine loop and must not call back into the engine.
func (e *Engine) OnStateChanged(listener domain.CallListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Run may be restarted by a supervisor after a panic. The timers released on
// exit are started again for the state the engine is left in.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		e.stopTicker()
		e.stopRing()
	}()
	e.resumeTimers()
	for {
		select {
		case <-ctx.Done():
			e.stopOnce.Do(func() { close(e.stopped) })
			e.log.Debug("Context done, stopping call engine")
			return ctx.Err()
		case req := <-e.inbox:
			e.serve(ctx, req)
		case <-e.tickC():
			e.tick()
		case <-e.ringC():
			e.ring = nil
			e.ringTimedOut(ctx)
		}
	}
}

// Initiate starts calling peer. An empty or self peer leaves the engine Idle.
func (e *Engine) Initiate(ctx context.Context, peer domain.Participant, kind domain.MediaKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: media kind %q", errors.ErrInvalidCommand, kind)
	}
	return e.do(ctx, func(loopCtx context.Context) {
		if e.state != domain.CallIdle {
			e.ignored("initiate")
			return
		}
		if peer.ID == "" || peer.ID == e.owner.ID {
			e.log.Debug("No resolvable peer, staying idle", "peer", peer.ID)
			return
		}
		e.session = &domain.CallSession{CallID: uuid.New(), Peer: peer, MediaKind: kind}
		e.transition(domain.CallCalling)
		e.startRing()
		e.notify(loopCtx, domain.SignalCallInitiated)
	})
}

func (e *Engine) Accept(ctx context.Context) error {
	return e.do(ctx, func(loopCtx context.Context) {
		if e.state != domain.CallIncoming {
			e.ignored("accept")
			return
		}
		e.activate()
		e.notify(loopCtx, domain.SignalCallAccepted)
	})
}

func (e *Engine) Decline(ctx context.Context) error {
	return e.do(ctx, func(loopCtx context.Context) {
		if e.state != domain.CallIncoming {
			e.ignored("decline")
			return
		}
		e.notify(loopCtx, domain.SignalCallDeclined)
		e.reset()
	})
}

// Hangup aborts Calling or ends Active. Anywhere else it is a no-op.
func (e *Engine) Hangup(ctx context.Context) error {
	return e.do(ctx, func(loopCtx context.Context) {
		if e.state != domain.CallCalling && e.state != domain.CallActive {
			e.ignored("hangup")
			return
		}
		e.notify(loopCtx, domain.SignalCallEnded)
		e.reset()
	})
}

// Snapshot reads the state from the loop, after every event queued before it.
func (e *Engine) Snapshot(ctx context.Context) (domain.CallSnapshot, error) {
	var snapshot domain.CallSnapshot
	err := e.do(ctx, func(context.Context) {
		snapshot = e.snapshot()
	})
	return snapshot, err
}

func (e *Engine) receive(ctx context.Context, sig domain.Signal) {
	if err := e.do(ctx, func(context.Context) { e.onSignal(sig) }); err != nil {
		e.log.Warn("Signal not processed", "kind", sig.Kind, "from", sig.From.ID, "error", err)
	}
}

func (e *Engine) onSignal(sig domain.Signal) {
	if sig.To != e.owner.ID {
		return
	}
	switch sig.Kind {
	case domain.SignalCallInitiated:
		if e.state != domain.CallIdle {
			e.log.Debug("Busy, ignoring incoming call", "from", sig.From.ID)
			return
		}
		if !sig.MediaKind.Valid() || sig.From.ID == "" || sig.CallID == uuid.Nil {
			e.ignored(string(sig.Kind))
			return
		}
		e.session = &domain.CallSession{CallID: sig.CallID, Peer: sig.From, MediaKind: sig.MediaKind}
		e.transition(domain.CallIncoming)
		e.startRing()
	case domain.SignalCallAccepted:
		if e.state != domain.CallCalling || !e.fromPeer(sig) {
			e.ignored(string(sig.Kind))
			return
		}
		e.activate()
	case domain.SignalCallDeclined, domain.SignalCallEnded:
		if e.state == domain.CallIdle || !e.fromPeer(sig) {
			e.ignored(string(sig.Kind))
			return
		}
		e.reset()
	default:
		e.ignored(string(sig.Kind))
	}
}

func (e *Engine) ringTimedOut(ctx context.Context) {
	switch e.state {
	case domain.CallCalling:
		e.log.Info("No answer, ending call")
		e.notify(ctx, domain.SignalCallEnded)
		e.reset()
	case domain.CallIncoming:
		e.log.Info("Incoming call not answered, declining")
		e.notify(ctx, domain.SignalCallDeclined)
		e.reset()
	}
}

func (e *Engine) tick() {
	if e.state != domain.CallActive || e.session == nil {
		return
	}
	e.session.ElapsedSeconds++
	e.emit()
}

// activate enters Active with a fresh counter.
func (e *Engine) activate() {
	e.stopRing()
	e.session.ElapsedSeconds = 0
	e.startTicker()
	e.transition(domain.CallActive)
}

func (e *Engine) reset() {
	e.stopTicker()
	e.stopRing()
	e.session = nil
	e.transition(domain.CallIdle)
}

func (e *Engine) transition(to domain.CallState) {
	from := e.state
	e.state = to
	e.log.Info("Call state changed", "from", from, "to", to)
	if e.publisher != nil {
		e.publisher.Publish(event.CallTransitioned{Owner: e.owner.ID, From: from, To: to, At: e.clock.Now()})
	}
	e.emit()
}

func (e *Engine) emit() {
	snapshot := e.snapshot()
	e.mu.Lock()
	listeners := append([]domain.CallListener(nil), e.listeners...)
	e.mu.Unlock()
	for _, listener := range listeners {
		e.call(listener, snapshot)
	}
}

// call isolates the loop from a panicking listener.
func (e *Engine) call(listener domain.CallListener, snapshot domain.CallSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Call listener panicked", "state", snapshot.State, "panic", r)
		}
	}()
	listener(snapshot)
}

// serve releases the caller even when apply panics.
func (e *Engine) serve(ctx context.Context, req request) {
	defer close(req.done)
	req.apply(ctx)
}

func (e *Engine) resumeTimers() {
	switch e.state {
	case domain.CallActive:
		if e.ticker == nil {
			e.startTicker()
		}
	case domain.CallCalling, domain.CallIncoming:
		if e.ring == nil {
			e.startRing()
		}
	}
}

func (e *Engine) snapshot() domain.CallSnapshot {
	snapshot := domain.CallSnapshot{State: e.state}
	if e.session != nil {
		session := *e.session
		snapshot.Session = &session
	}
	return snapshot
}

// notify never rolls back the local transition.
func (e *Engine) notify(ctx context.Context, kind domain.SignalKind) {
	sig := domain.NewSignal(kind, e.session.CallID, e.owner, e.session.Peer.ID, e.session.MediaKind)
	if err := e.channel.NotifyPeer(ctx, sig); err != nil {
		e.log.Warn("Peer notification unconfirmed", "kind", kind, "peer", sig.To, "error", err)
	}
}

// fromPeer matches both the peer and the call attempt, so a late reply to an
// abandoned call cannot drive the current one.
func (e *Engine) fromPeer(sig domain.Signal) bool {
	return e.session != nil && e.session.Peer.ID == sig.From.ID && e.session.CallID == sig.CallID
}

func (e *Engine) ignored(what string) {
	e.log.Debug("Event ignored", "event", what, "state", e.state)
}

func (e *Engine) startTicker() {
	e.stopTicker()
	e.ticker = e.clock.NewTicker(tickInterval)
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) startRing() {
	if e.ringTimeout <= 0 {
		return
	}
	e.stopRing()
	e.ring = e.clock.NewTimer(e.ringTimeout)
}

func (e *Engine) stopRing() {
	if e.ring != nil {
		e.ring.Stop()
		e.ring = nil
	}
}

func (e *Engine) tickC() <-chan time.Time {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.C()
}

func (e *Engine) ringC() <-chan time.Time {
	if e.ring == nil {
		return nil
	}
	return e.ring.C()
}

func (e *Engine) do(ctx context.Context, apply func(ctx context.Context)) error {
	req := request{apply: apply, done: make(chan struct{})}
	select {
	case e.inbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return errors.ErrEngineStopped
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return errors.ErrEngineStopped
	}
}
