package projection

import (
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func thread(id string, seq uint64, members ...string) domain.Thread {
	return domain.Thread{ID: domain.ThreadID(id), ParticipantIDs: members, CreatedSeq: seq}
}

func appended(threadID, sender string, seq uint64, at time.Time, participants ...string) event.MessageAppended {
	return event.MessageAppended{
		Message: domain.Message{
			ID:        uuid.New(),
			ThreadID:  domain.ThreadID(threadID),
			SenderID:  sender,
			Content:   "hello from " + sender,
			Timestamp: at,
			Sequence:  seq,
		},
		Participants: participants,
	}
}

func ids(threads []domain.Thread) []domain.ThreadID {
	res := make([]domain.ThreadID, 0, len(threads))
	for _, t := range threads {
		res = append(res, t.ID)
	}
	return res
}

func TestInbox_Empty_Has_No_Selection(t *testing.T) {
	req := require.New(t)
	inbox := NewInbox("u1", nil)

	_, ok := inbox.Selected()
	req.False(ok)
	req.Empty(inbox.Threads())
}

func TestInbox_Auto_Selects_First_Thread_On_Creation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inbox := NewInbox("u1", nil)

	// When a first thread is started
	req.NoError(inbox.Consume(ctx, event.ThreadStarted{Thread: thread("t1", 1, "u1", "u2")}))

	// Then it becomes the selection
	selected, ok := inbox.Selected()
	req.True(ok)
	req.Equal(domain.ThreadID("t1"), selected)

	// When a second one is started, the selection sticks
	req.NoError(inbox.Consume(ctx, event.ThreadStarted{Thread: thread("t2", 2, "u1", "u3")}))
	selected, _ = inbox.Selected()
	req.Equal(domain.ThreadID("t1"), selected)
}

func TestInbox_Orders_By_Activity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given three threads in creation order
	inbox := NewInbox("u1", []domain.Thread{
		thread("t1", 1, "u1", "u2"),
		thread("t2", 2, "u1", "u3"),
		thread("t3", 3, "u1", "u4"),
		thread("other", 4, "u2", "u3"),
	})
	req.Equal([]domain.ThreadID{"t1", "t2", "t3"}, ids(inbox.Threads()))

	// When t3 then t2 receive messages
	req.NoError(inbox.Consume(ctx, appended("t3", "u4", 1, base, "u1", "u4")))
	req.NoError(inbox.Consume(ctx, appended("t2", "u3", 1, base.Add(time.Second), "u1", "u3")))

	// Then the most recent activity comes first and silent threads last
	threads := inbox.Threads()
	req.Equal([]domain.ThreadID{"t2", "t3", "t1"}, ids(threads))
	req.Equal("hello from u3", threads[0].LastMessage.Content)
}

func TestInbox_Unread_Counters(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inbox := NewInbox("u1", []domain.Thread{thread("t1", 1, "u1", "u2"), thread("t2", 2, "u1", "u3")})

	// Given t1 auto-selected
	selected, _ := inbox.Selected()
	req.Equal(domain.ThreadID("t1"), selected)

	// When messages arrive in both threads, one of them replayed
	msg := appended("t2", "u3", 1, base, "u1", "u3")
	req.NoError(inbox.Consume(ctx, msg))
	req.NoError(inbox.Consume(ctx, msg))
	req.NoError(inbox.Consume(ctx, appended("t1", "u2", 1, base, "u1", "u2")))
	req.NoError(inbox.Consume(ctx, appended("t2", "u1", 2, base.Add(time.Second), "u1", "u3")))

	// Then only foreign messages outside the selection count, once each
	req.Equal(1, inbox.Unread("t2"))
	req.Zero(inbox.Unread("t1"))

	// When t2 is selected
	req.NoError(inbox.Select("t2"))
	req.Zero(inbox.Unread("t2"))
}

func TestInbox_Select_Unknown_Thread(t *testing.T) {
	req := require.New(t)
	inbox := NewInbox("u1", []domain.Thread{thread("t1", 1, "u1", "u2")})

	req.ErrorIs(inbox.Select("nope"), errors.ErrThreadNotFound)
	selected, _ := inbox.Selected()
	req.Equal(domain.ThreadID("t1"), selected)
}

func TestInbox_Ignores_Foreign_Threads(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inbox := NewInbox("u1", nil)

	req.NoError(inbox.Consume(ctx, event.ThreadStarted{Thread: thread("t9", 1, "u2", "u3")}))
	req.NoError(inbox.Consume(ctx, appended("t9", "u2", 1, base, "u2", "u3")))
	req.NoError(inbox.Consume(ctx, event.SignalDropped{Reason: "queue full"}))

	req.Empty(inbox.Threads())
}

func TestInbox_Keeps_The_Newest_Message_Per_Thread(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inbox := NewInbox("u1", []domain.Thread{thread("t1", 1, "u1", "u2"), thread("t2", 2, "u1", "u3")})

	// When the third message of t2 is seen before the second one
	third := appended("t2", "u3", 3, base.Add(2*time.Second), "u1", "u3")
	third.Message.Content = "third"
	req.NoError(inbox.Consume(ctx, third))
	req.NoError(inbox.Consume(ctx, appended("t2", "u3", 2, base.Add(time.Second), "u1", "u3")))
	req.NoError(inbox.Consume(ctx, third))

	// Then the older one does not overwrite the preview and nothing is counted twice
	threads := inbox.Threads()
	req.Equal(domain.ThreadID("t2"), threads[0].ID)
	req.Equal("third", threads[0].LastMessage.Content)
	req.Equal(1, inbox.Unread("t2"))
}

func TestInbox_Resync_Catches_Up_With_The_Store(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inbox := NewInbox("u1", []domain.Thread{thread("t1", 1, "u1", "u2")})
	req.NoError(inbox.Consume(ctx, appended("t1", "u2", 1, base, "u1", "u2")))

	// Given the store knows a thread and a message the inbox never heard of
	stored := thread("t1", 1, "u1", "u2")
	stored.LastMessage = &domain.MessageSummary{SenderID: "u2", Content: "missed", Timestamp: base.Add(time.Minute), Sequence: 2}
	missed := thread("t2", 2, "u1", "u3")
	missed.LastMessage = &domain.MessageSummary{SenderID: "u3", Content: "hi", Timestamp: base.Add(time.Hour), Sequence: 1}

	// When the inbox is resynced
	inbox.Resync([]domain.Thread{stored, missed, thread("t9", 3, "u2", "u3")})

	// Then it holds both threads with their latest messages, in activity order
	threads := inbox.Threads()
	req.Equal([]domain.ThreadID{"t2", "t1"}, ids(threads))
	req.Equal("missed", threads[1].LastMessage.Content)

	// Then a replay of the resynced message is ignored
	req.NoError(inbox.Consume(ctx, appended("t1", "u2", 2, base.Add(time.Minute), "u1", "u2")))
	req.Equal("missed", inbox.Threads()[1].LastMessage.Content)

	// Then the selection stays where it was
	selected, _ := inbox.Selected()
	req.Equal(domain.ThreadID("t1"), selected)
}
