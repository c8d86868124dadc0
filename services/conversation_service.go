package services

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

type IConversationService interface {
	StartConversation(ctx context.Context, cmd domain.StartConversationCommand) (domain.ThreadID, error)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	ListThreadsForUser(ctx context.Context, userID string) ([]domain.Thread, error)
	ListMessages(ctx context.Context, threadID domain.ThreadID) ([]domain.Message, error)
	GetOtherParticipant(thread domain.Thread, selfID string) (domain.Participant, error)
	DefaultSelection(ctx context.Context, userID string, selected domain.ThreadID) (domain.ThreadID, bool, error)
	ListContacts(ctx context.Context, selfID string) ([]domain.User, error)
	NavigationFor(ctx context.Context, userID string) ([]domain.NavigationItem, error)
}

var _ IConversationService = (*ConversationService)(nil)

// ConversationService presents a user-scoped view over the Thread Store and the Message Log.
type ConversationService struct {
	log       *slog.Logger
	threads   contract.IThreadStore
	messages  contract.IMessageLog
	directory contract.IDirectory
	publisher contract.EventPublisher
	moderator contract.IModerator
}

// NewConversationService accepts a nil moderator when moderation is disabled.
func NewConversationService(log *slog.Logger, threads contract.IThreadStore, messages contract.IMessageLog,
	directory contract.IDirectory, publisher contract.EventPublisher, moderator contract.IModerator) *ConversationService {
	return &ConversationService{
		log:       log,
		threads:   threads,
		messages:  messages,
		directory: directory,
		publisher: publisher,
		moderator: moderator,
	}
}

// StartConversation resolves both display names, then finds or creates the thread.
func (s *ConversationService) StartConversation(ctx context.Context, cmd domain.StartConversationCommand) (domain.ThreadID, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}
	names := make(map[string]string, 2)
	for _, id := range []string{cmd.InitiatorID, cmd.PeerID} {
		user, err := s.directory.GetUser(ctx, id)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", id, err)
		}
		names[user.ID] = user.Name
	}

	threadID, created, err := s.threads.FindOrCreate(ctx, []string{cmd.InitiatorID, cmd.PeerID}, names)
	if err != nil {
		return "", err
	}
	if created {
		s.announce(ctx, threadID)
	}
	return threadID, nil
}

// SendMessage appends the (possibly censored) content. Message Log failures are returned unchanged.
func (s *ConversationService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := cmd.Validate(); err != nil {
		return domain.Message{}, err
	}
	content, censoredWords := cmd.Content, []string(nil)
	if s.moderator != nil && strings.TrimSpace(content) != "" {
		content, censoredWords = s.moderator.Censor(content)
	}

	msg, err := s.messages.Append(ctx, cmd.ThreadID, cmd.SenderID, cmd.SenderName, content)
	if err != nil {
		return domain.Message{}, err
	}
	if len(censoredWords) > 0 {
		s.reportCensored(msg, cmd.Content, censoredWords)
	}

	thread, err := s.threads.Get(ctx, msg.ThreadID)
	if err != nil {
		s.log.Warn("Message stored but thread unreadable, event not published", "thread_id", msg.ThreadID, "error", err)
		return msg, nil
	}
	s.publisher.Publish(event.MessageAppended{Message: msg, Participants: thread.ParticipantIDs})
	return msg, nil
}

func (s *ConversationService) ListThreadsForUser(ctx context.Context, userID string) ([]domain.Thread, error) {
	return s.threads.ListForUser(ctx, userID)
}

func (s *ConversationService) ListMessages(ctx context.Context, threadID domain.ThreadID) ([]domain.Message, error) {
	return s.messages.ListForThread(ctx, threadID)
}

func (s *ConversationService) GetOtherParticipant(thread domain.Thread, selfID string) (domain.Participant, error) {
	return thread.OtherParticipant(selfID)
}

// DefaultSelection re-evaluates the auto-selection policy against the current thread list.
func (s *ConversationService) DefaultSelection(ctx context.Context, userID string, selected domain.ThreadID) (domain.ThreadID, bool, error) {
	threads, err := s.threads.ListForUser(ctx, userID)
	if err != nil {
		return "", false, err
	}
	id, ok := domain.DefaultSelection(threads, selected)
	return id, ok, nil
}

// ListContacts returns every directory user but selfID, for composing a new conversation.
func (s *ConversationService) ListContacts(ctx context.Context, selfID string) ([]domain.User, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Reject(users, func(u domain.User, _ int) bool { return u.ID == selfID }), nil
}

// NavigationFor returns the dashboard entries of the user's role.
func (s *ConversationService) NavigationFor(ctx context.Context, userID string) ([]domain.NavigationItem, error) {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dashboard, err := domain.DashboardFor(user.Role)
	if err != nil {
		return nil, err
	}
	return dashboard.NavigationItems(), nil
}

func (s *ConversationService) reportCensored(msg domain.Message, original string, words []string) {
	lang := s.moderator.Language(original)
	s.log.Info("Message censored", "thread_id", msg.ThreadID, "sender", msg.SenderID, "words", len(words), "lang", lang)
	s.publisher.Publish(event.MessageCensored{
		ThreadID: msg.ThreadID,
		SenderID: msg.SenderID,
		Words:    words,
		Lang:     lang,
		At:       msg.Timestamp,
	})
}

func (s *ConversationService) announce(ctx context.Context, threadID domain.ThreadID) {
	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		s.log.Warn("Thread created but unreadable, event not published", "thread_id", threadID, "error", err)
		return
	}
	s.log.Info("Thread started", "thread_id", threadID, "participants", thread.ParticipantIDs)
	s.publisher.Publish(event.ThreadStarted{Thread: thread})
}
