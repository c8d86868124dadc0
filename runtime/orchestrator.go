// Package runtime wires stores, signaling and event propagation together.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"campus-chat/calls"
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"campus-chat/moderation"
	"campus-chat/repositories"
	"campus-chat/runtime/workers"
	"campus-chat/signaling"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

//go:embed censored/*
var censoredFolder embed.FS

// Settings are the tunables of one orchestrator.
type Settings struct {
	BufferSize        int
	SinkTimeout       time.Duration
	SignalLatency     time.Duration
	RingTimeout       time.Duration
	ModerationEnabled bool
	CharReplacement   rune
	Clock             calls.Clock
}

// Orchestrator is the single service object of a process. It owns the stores,
// the signaling hub, the event pipeline and one call engine per local participant.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	settings       Settings
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	threads        repositories.IThreadRepository
	messages       repositories.IMessageRepository
	directory      contract.IDirectory
	hub            *signaling.Hub
	moderator      contract.IModerator
	engines        map[string]*calls.Engine
	permanentSinks []contract.EventSink
	domainEvents   chan event.DomainEvent
	started        bool
}

// NewOrchestrator loads moderation up front so services can use it before Start.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	threads repositories.IThreadRepository, messages repositories.IMessageRepository,
	directory contract.IDirectory, settings Settings) (*Orchestrator, error) {
	if settings.Clock == nil {
		settings.Clock = calls.SystemClock{}
	}
	o := &Orchestrator{
		log:          log,
		settings:     settings,
		supervisor:   supervisor,
		registry:     registry,
		threads:      threads,
		messages:     messages,
		directory:    directory,
		engines:      make(map[string]*calls.Engine),
		domainEvents: make(chan event.DomainEvent, settings.BufferSize),
	}
	o.hub = signaling.NewHub(log, settings.BufferSize, settings.SinkTimeout,
		signaling.WithLatency(settings.SignalLatency), signaling.WithPublisher(o))

	if settings.ModerationEnabled {
		moderator, err := o.prepareModeration("censored")
		if err != nil {
			return nil, err
		}
		o.moderator = moderator
	}
	return o, nil
}

func (o *Orchestrator) Threads() repositories.IThreadRepository   { return o.threads }
func (o *Orchestrator) Messages() repositories.IMessageRepository { return o.messages }
func (o *Orchestrator) Directory() contract.IDirectory            { return o.directory }

// Moderator is nil when moderation is disabled.
func (o *Orchestrator) Moderator() contract.IModerator {
	return o.moderator
}

// Add registers permanent sinks. They must be added before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish never blocks: when the pipeline is saturated the event is dropped.
// Inboxes catch up with the store through Inbox.Resync.
func (o *Orchestrator) Publish(evt event.DomainEvent) {
	select {
	case o.domainEvents <- evt:
	default:
		o.log.Warn("Domain event channel full, dropping event", "type", evt.Type())
	}
}

func (o *Orchestrator) RegisterParticipant(pID string, sink contract.EventSink) {
	o.registry.Subscribe(pID, sink)
}

// UnregisterParticipant disconnects a user.
func (o *Orchestrator) UnregisterParticipant(pID string) {
	o.registry.Unsubscribe(pID)
}

// Engine returns the call engine of a local participant, creating and
// supervising it on first use.
func (o *Orchestrator) Engine(owner domain.Participant) *calls.Engine {
	o.mu.Lock()
	defer o.mu.Unlock()
	if engine, ok := o.engines[owner.ID]; ok {
		return engine
	}
	engine := calls.NewEngine(o.log, owner, o.hub.Endpoint(owner.ID),
		calls.WithClock(o.settings.Clock),
		calls.WithRingTimeout(o.settings.RingTimeout),
		calls.WithPublisher(o))
	o.engines[owner.ID] = engine
	o.supervisor.Add(engine)
	return engine
}

// Start builds the event pipeline and then runs the supervisor until ctx is done.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator: %w", errors.ErrAlreadyStarted)
	}
	o.started = true
	fanout := workers.NewEventFanout(o.log, append([]contract.EventSink(nil), o.permanentSinks...),
		o.registry, o.domainEvents, o.settings.SinkTimeout)
	o.supervisor.Add(fanout, o.hub)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (o *Orchestrator) prepareModeration(path string) (contract.IModerator, error) {
	data, err := NewCensoredLoader(censoredFolder).LoadAll(path)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, o.settings.CharReplacement, o.log)
}

// Stop cancels the supervised context; Start returns once every worker is done.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
