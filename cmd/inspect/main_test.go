package main

import (
	"bytes"
	"campus-chat/domain"
	"campus-chat/repositories"
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestPrintThreads_And_Messages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	threads := repositories.NewThreadRepository(db, slog.Default())
	messages := repositories.NewMessageRepository(db, slog.Default(), nil)
	id, _, err := threads.FindOrCreate(ctx, []string{"u1", "u2"}, map[string]string{"u1": "Alice", "u2": "Bob"})
	req.NoError(err)
	_, err = messages.Append(ctx, id, "u1", "Alice", "Hi")
	req.NoError(err)
	_, err = messages.Append(ctx, id, "u2", "Bob", "Hello")
	req.NoError(err)

	var out bytes.Buffer
	req.NoError(printThreads(ctx, &out, threads, messages))
	req.Contains(out.String(), id.String())
	req.Contains(out.String(), "Alice, Bob")
	req.Contains(out.String(), "Hello")

	out.Reset()
	req.NoError(printMessages(ctx, &out, messages, id))
	req.Contains(out.String(), "Hi")
	req.Contains(out.String(), "Hello")

	req.Error(printMessages(ctx, &out, messages, domain.ThreadID("missing")))

	audit := repositories.NewAuditRepository(db)
	req.NoError(audit.Record(ctx, domain.ModerationRecord{ThreadID: id, SenderID: "u1", Words: []string{"idiot", "jerk"}, Lang: "eng"}))
	out.Reset()
	req.NoError(printAudit(ctx, &out, audit))
	req.Contains(out.String(), "idiot, jerk")
}
