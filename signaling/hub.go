// Package signaling carries call-control signals between participants of the same process.
package signaling

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
)

const (
	ReasonQueueFull   = "queue full"
	ReasonUnknownPeer = "unknown peer"
)

var _ contract.Worker = (*Hub)(nil)

// Hub is an in-process bidirectional signaling channel.
// Every participant gets an Endpoint; signals go through a bounded queue
// drained by Run. Delivery is at-most-once: a signal is dropped when the
// queue is full or when nobody listens for its recipient.
type Hub struct {
	log             *slog.Logger
	mu              sync.RWMutex
	handlers        map[string]contract.SignalHandler
	queue           chan domain.Signal
	publisher       contract.EventPublisher
	latency         time.Duration
	deliveryTimeout time.Duration
}

type Option func(*Hub)

// WithLatency delays every delivery, simulating a network hop.
func WithLatency(latency time.Duration) Option {
	return func(h *Hub) { h.latency = latency }
}

// WithPublisher reports dropped signals as domain events.
func WithPublisher(publisher contract.EventPublisher) Option {
	return func(h *Hub) { h.publisher = publisher }
}

func NewHub(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration, opts ...Option) *Hub {
	h := &Hub{
		log:             log,
		handlers:        make(map[string]contract.SignalHandler),
		queue:           make(chan domain.Signal, bufferSize),
		deliveryTimeout: deliveryTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Endpoint returns the signaling channel seen by one participant.
func (h *Hub) Endpoint(userID string) contract.SignalingChannel {
	return &endpoint{hub: h, userID: userID}
}

// Disconnect forgets the handler of a participant. Signals still queued for it are dropped.
func (h *Hub) Disconnect(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, userID)
}

func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Context done, stopping signaling hub")
			return ctx.Err()
		case sig := <-h.queue:
			if h.latency > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(h.latency):
				}
			}
			h.deliver(ctx, sig)
		}
	}
}

func (h *Hub) enqueue(sig domain.Signal) error {
	if h.handler(sig.To) == nil {
		return fmt.Errorf("%w: %w", h.drop(sig, ReasonUnknownPeer), errors.ErrNoHandler)
	}
	select {
	case h.queue <- sig:
		h.log.Debug("Signal queued", "kind", sig.Kind, "call", sig.CallID, "from", sig.From.ID, "to", sig.To)
		return nil
	default:
		return h.drop(sig, ReasonQueueFull)
	}
}

func (h *Hub) deliver(ctx context.Context, sig domain.Signal) {
	handler := h.handler(sig.To)
	if handler == nil {
		_ = h.drop(sig, ReasonUnknownPeer)
		return
	}
	deliveryCtx, cancel := context.WithTimeout(ctx, h.deliveryTimeout)
	defer cancel()
	handler(deliveryCtx, sig)
}

func (h *Hub) handler(userID string) contract.SignalHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handlers[userID]
}

func (h *Hub) drop(sig domain.Signal, reason string) error {
	h.log.Warn("Signal dropped", "kind", sig.Kind, "from", sig.From.ID, "to", sig.To, "reason", reason)
	if h.publisher != nil {
		h.publisher.Publish(event.SignalDropped{Signal: sig, Reason: reason})
	}
	return fmt.Errorf("%w: %s", errors.ErrSignalDropped, reason)
}

type endpoint struct {
	hub    *Hub
	userID string
}

// NotifyPeer never blocks. The sender is always the endpoint owner.
func (e *endpoint) NotifyPeer(ctx context.Context, sig domain.Signal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sig.From.ID = e.userID
	return e.hub.enqueue(sig)
}

// OnSignal replaces the handler of the endpoint owner.
func (e *endpoint) OnSignal(handler contract.SignalHandler) {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	if handler == nil {
		delete(e.hub.handlers, e.userID)
		return
	}
	e.hub.handlers[e.userID] = handler
}
