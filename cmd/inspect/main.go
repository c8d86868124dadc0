package main

import (
	"campus-chat/domain"
	"campus-chat/repositories"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	LimitMessages  int    `envconfig:"INSPECT_LIMIT" default:"0"`
}

func main() {
	thread := flag.String("thread", "", "Thread id whose messages are listed; threads are listed when empty")
	audit := flag.Bool("audit", false, "List moderation records instead of threads")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Read-only, lock bypassed: the chat process may hold the directory.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var limit *int
	if config.LimitMessages > 0 {
		limit = &config.LimitMessages
	}
	threads := repositories.NewThreadRepository(db, slog.Default())
	messages := repositories.NewMessageRepository(db, slog.Default(), limit)

	ctx := context.Background()
	switch {
	case *audit:
		err = printAudit(ctx, os.Stdout, repositories.NewAuditRepository(db))
	case *thread != "":
		err = printMessages(ctx, os.Stdout, messages, domain.ThreadID(*thread))
	default:
		err = printThreads(ctx, os.Stdout, threads, messages)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printThreads(ctx context.Context, w io.Writer, threads repositories.IThreadRepository, messages repositories.IMessageRepository) error {
	all, err := threads.ListAll(ctx)
	if err != nil {
		return err
	}
	table := newTable(w, []string{"Thread", "Participants", "Messages", "Last activity", "Last message"})
	for _, t := range all {
		count, err := messages.Count(ctx, t.ID)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(t.ParticipantIDs))
		for _, id := range t.ParticipantIDs {
			names = append(names, t.ParticipantNames[id])
		}
		activity, last := humanize.Time(t.CreatedAt), ""
		if t.LastMessage != nil {
			activity, last = humanize.Time(t.LastMessage.Timestamp), t.LastMessage.Content
		}
		table.Append([]string{t.ID.String(), strings.Join(names, ", "), humanize.Comma(int64(count)), activity, last})
	}
	table.Render()
	return nil
}

func printMessages(ctx context.Context, w io.Writer, messages repositories.IMessageRepository, threadID domain.ThreadID) error {
	msgs, err := messages.ListForThread(ctx, threadID)
	if err != nil {
		return err
	}
	table := newTable(w, []string{"Seq", "Time", "Sender", "Content", "Size"})
	for _, m := range msgs {
		table.Append([]string{
			fmt.Sprint(m.Sequence),
			m.Timestamp.Format("2006-01-02 15:04:05"),
			m.SenderName,
			m.Content,
			humanize.Bytes(uint64(len(m.Content))),
		})
	}
	table.Render()
	return nil
}

func printAudit(ctx context.Context, w io.Writer, audit repositories.IAuditRepository) error {
	records, err := audit.List(ctx)
	if err != nil {
		return err
	}
	table := newTable(w, []string{"When", "Thread", "Sender", "Lang", "Words"})
	for _, r := range records {
		table.Append([]string{humanize.Time(r.At), r.ThreadID.String(), r.SenderID, r.Lang, strings.Join(r.Words, ", ")})
	}
	table.Render()
	return nil
}
