package main

import (
	"bufio"
	"campus-chat/domain"
	"campus-chat/projection"
	"campus-chat/runtime"
	"campus-chat/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
)

// session is one locally connected user: an inbox and a call engine.
type session struct {
	user  domain.User
	inbox *projection.Inbox
	calls *services.CallService
}

// console is a line-oriented front end acting on behalf of one user at a time.
type console struct {
	mu            sync.Mutex
	log           *slog.Logger
	out           io.Writer
	orchestrator  *runtime.Orchestrator
	conversations *services.ConversationService
	sessions      map[string]*session
	current       *session
}

// newConsole connects every directory user before the orchestrator starts,
// so each call engine runs under supervision.
func newConsole(ctx context.Context, log *slog.Logger, o *runtime.Orchestrator, out io.Writer) (*console, error) {
	c := &console{
		log:           log,
		out:           out,
		orchestrator:  o,
		conversations: services.NewConversationService(log, o.Threads(), o.Messages(), o.Directory(), o, o.Moderator()),
		sessions:      make(map[string]*session),
	}
	users, err := o.Directory().ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		threads, err := c.conversations.ListThreadsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		s := &session{
			user:  user,
			inbox: projection.NewInbox(user.ID, threads),
			calls: services.NewCallService(log, o.Engine(user.Participant()), o.Directory(), o.Threads()),
		}
		name := user.Name
		s.calls.OnCallStateChanged(func(state domain.CallState, elapsed int) {
			c.callChanged(name, state, elapsed)
		})
		o.RegisterParticipant(user.ID, s.inbox)
		c.sessions[user.ID] = s
	}
	return c, nil
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (c *console) prompt() {
	who := "nobody"
	if c.current != nil {
		who = c.current.user.Name
	}
	c.printf("%s> ", color.Cyan.Sprint(who))
}

// exec runs one command line and reports whether the user asked to quit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.help()
	case "users":
		err = c.users(ctx)
	case "as":
		err = c.as(args)
	default:
		if c.current == nil {
			c.println(color.Yellow.Sprint("pick a user first: as <user-id>"))
			return false
		}
		err = c.userCommand(ctx, cmd, args, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd)))
	}
	if err != nil {
		c.println(color.Red.Sprintf("error: %v", err))
	}
	return false
}

func (c *console) userCommand(ctx context.Context, cmd string, args []string, rest string) error {
	s := c.current
	switch cmd {
	case "nav":
		items, err := c.conversations.NavigationFor(ctx, s.user.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			c.println(fmt.Sprintf("  %-14s %s", item.Label, item.Path))
		}
	case "contacts":
		contacts, err := c.conversations.ListContacts(ctx, s.user.ID)
		if err != nil {
			return err
		}
		for _, u := range contacts {
			c.println(fmt.Sprintf("  %-8s %-16s %s", u.ID, u.Name, u.Role))
		}
	case "start":
		if len(args) != 1 {
			return fmt.Errorf("usage: start <peer-id>")
		}
		id, err := c.conversations.StartConversation(ctx, domain.StartConversationCommand{InitiatorID: s.user.ID, PeerID: args[0]})
		if err != nil {
			return err
		}
		c.println(color.Green.Sprintf("thread %s", id))
	case "threads":
		return c.threads(ctx, s)
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <thread-id>")
		}
		return s.inbox.Select(domain.ThreadID(args[0]))
	case "messages":
		return c.messages(ctx, s)
	case "send":
		threadID, ok := s.inbox.Selected()
		if !ok {
			return fmt.Errorf("no thread selected")
		}
		_, err := c.conversations.SendMessage(ctx, domain.SendMessageCommand{
			ThreadID: threadID, SenderID: s.user.ID, SenderName: s.user.Name, Content: rest,
		})
		return err
	case "call":
		threadID, ok := s.inbox.Selected()
		if !ok {
			return fmt.Errorf("no thread selected")
		}
		kind := domain.MediaVoice
		if len(args) == 1 {
			kind = domain.MediaKind(args[0])
		}
		if !kind.Valid() {
			return fmt.Errorf("unknown media %q, use voice or video", kind)
		}
		return s.calls.CallThreadPeer(ctx, threadID, kind)
	case "accept":
		return s.calls.RespondToCall(ctx, true)
	case "decline":
		return s.calls.RespondToCall(ctx, false)
	case "hangup":
		return s.calls.EndCall(ctx)
	case "state":
		snapshot, err := s.calls.State(ctx)
		if err != nil {
			return err
		}
		c.println(describeCall(snapshot))
	default:
		c.println(color.Yellow.Sprintf("unknown command %q, try help", cmd))
	}
	return nil
}

func (c *console) help() {
	c.println(strings.Join([]string{
		"  users                 list the directory",
		"  as <user-id>          act as a user",
		"  nav | contacts        dashboard entries, people to talk to",
		"  start <peer-id>       open (or reuse) a conversation",
		"  threads | open <id>   list threads, select one",
		"  messages | send <txt> read or write in the selected thread",
		"  call [voice|video]    call the other participant of the selected thread",
		"  accept | decline | hangup | state",
		"  quit",
	}, "\n"))
}

func (c *console) users(ctx context.Context) error {
	users, err := c.orchestrator.Directory().ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		c.println(fmt.Sprintf("  %-8s %-16s %s", u.ID, u.Name, u.Role))
	}
	return nil
}

func (c *console) as(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: as <user-id>")
	}
	s, ok := c.sessions[args[0]]
	if !ok {
		return fmt.Errorf("unknown user %q", args[0])
	}
	c.current = s
	return nil
}

// threads lists the inbox after a resync with the store.
func (c *console) threads(ctx context.Context, s *session) error {
	stored, err := c.conversations.ListThreadsForUser(ctx, s.user.ID)
	if err != nil {
		return err
	}
	s.inbox.Resync(stored)
	selected, _ := s.inbox.Selected()
	for _, t := range s.inbox.Threads() {
		other, _ := t.OtherParticipant(s.user.ID)
		marker := " "
		if t.ID == selected {
			marker = color.Green.Sprint("*")
		}
		last := color.Gray.Sprint("no messages yet")
		if t.LastMessage != nil {
			last = fmt.Sprintf("%s (%s)", t.LastMessage.Content, humanize.Time(t.LastMessage.Timestamp))
		}
		unread := ""
		if n := s.inbox.Unread(t.ID); n > 0 {
			unread = color.Yellow.Sprintf(" [%d new]", n)
		}
		c.println(fmt.Sprintf("%s %s  %-16s %s%s", marker, t.ID, other.Name, last, unread))
	}
	return nil
}

func (c *console) messages(ctx context.Context, s *session) error {
	threadID, ok := s.inbox.Selected()
	if !ok {
		return fmt.Errorf("no thread selected")
	}
	msgs, err := c.conversations.ListMessages(ctx, threadID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		name := m.SenderName
		if m.SenderID == s.user.ID {
			name = color.Cyan.Sprint(name)
		}
		c.println(fmt.Sprintf("  %s %s: %s", color.Gray.Sprint(m.Timestamp.Format("15:04:05")), name, m.Content))
	}
	return nil
}

// callChanged runs on the engine loop of the user named who.
func (c *console) callChanged(who string, state domain.CallState, elapsed int) {
	if state == domain.CallActive && elapsed > 0 {
		return
	}
	c.println("\n" + color.Magenta.Sprintf("[%s] call %s", who, state))
}

func describeCall(snapshot domain.CallSnapshot) string {
	if snapshot.Session == nil {
		return string(snapshot.State)
	}
	desc := fmt.Sprintf("%s %s call with %s", snapshot.State, snapshot.Session.MediaKind, snapshot.Session.Peer.Name)
	if snapshot.State == domain.CallActive {
		desc += " " + domain.FormatElapsed(snapshot.ElapsedSeconds())
	}
	return desc
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}
