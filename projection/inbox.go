// Package projection builds per-user views from observed events.
// Handles ordering, deduplication and selection.
// Does not emit events or interact with the UI directly.
package projection

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"context"
	"slices"
	"sync"
)

var _ contract.EventSink = (*Inbox)(nil)

// Inbox holds the thread list of one user, ordered by recent activity,
// with the selected thread and unread counters.
type Inbox struct {
	mu       sync.RWMutex
	owner    string
	threads  []domain.Thread
	selected domain.ThreadID
	unread   map[domain.ThreadID]int
	lastSeq  map[domain.ThreadID]uint64 // highest message sequence applied per thread
}

// NewInbox starts from the threads already stored for owner.
func NewInbox(owner string, threads []domain.Thread) *Inbox {
	i := &Inbox{
		owner:   owner,
		unread:  make(map[domain.ThreadID]int),
		lastSeq: make(map[domain.ThreadID]uint64),
	}
	i.merge(threads)
	i.refresh()
	return i
}

// Resync merges threads read back from the store, for events the pipeline
// dropped. Unknown threads are added and newer last messages replace older
// ones. Unread counters are left as they are.
func (i *Inbox) Resync(threads []domain.Thread) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.merge(threads)
	i.refresh()
}

func (i *Inbox) merge(threads []domain.Thread) {
	for _, t := range threads {
		if !t.HasParticipant(i.owner) {
			continue
		}
		idx := i.indexOf(t.ID)
		if idx < 0 {
			i.threads = append(i.threads, t)
			idx = len(i.threads) - 1
		}
		if t.LastMessage != nil && t.LastMessage.Sequence > i.lastSeq[t.ID] {
			summary := *t.LastMessage
			i.threads[idx].LastMessage = &summary
			i.lastSeq[t.ID] = summary.Sequence
		}
	}
}

func (i *Inbox) Consume(_ context.Context, e event.DomainEvent) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch evt := e.(type) {
	case event.ThreadStarted:
		if !evt.Thread.HasParticipant(i.owner) || i.indexOf(evt.Thread.ID) >= 0 {
			return nil
		}
		i.threads = append(i.threads, evt.Thread)
	case event.MessageAppended:
		idx := i.indexOf(evt.Message.ThreadID)
		if idx < 0 {
			return nil
		}
		// Replayed or overtaken messages change nothing
		if evt.Message.Sequence <= i.lastSeq[evt.Message.ThreadID] {
			return nil
		}
		i.lastSeq[evt.Message.ThreadID] = evt.Message.Sequence
		summary := evt.Message.Summary()
		i.threads[idx].LastMessage = &summary
		if evt.Message.SenderID != i.owner && evt.Message.ThreadID != i.selected {
			i.unread[evt.Message.ThreadID]++
		}
	default:
		return nil
	}
	i.refresh()
	return nil
}

// Select makes id the explicit selection and clears its unread counter.
func (i *Inbox) Select(id domain.ThreadID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.indexOf(id) < 0 {
		return errors.ErrThreadNotFound
	}
	i.selected = id
	delete(i.unread, id)
	return nil
}

// Selected returns the current selection, false when the user has no thread.
func (i *Inbox) Selected() (domain.ThreadID, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.selected, i.selected != ""
}

func (i *Inbox) Threads() []domain.Thread {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.threads)
}

func (i *Inbox) Unread(id domain.ThreadID) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.unread[id]
}

// refresh re-sorts the list and re-applies the auto-selection policy.
func (i *Inbox) refresh() {
	domain.SortThreads(i.threads)
	if selected, ok := domain.DefaultSelection(i.threads, i.selected); ok {
		i.selected = selected
		delete(i.unread, selected)
	}
}

func (i *Inbox) indexOf(id domain.ThreadID) int {
	return slices.IndexFunc(i.threads, func(t domain.Thread) bool { return t.ID == id })
}
