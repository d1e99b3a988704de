// Package messaging adapts the recovery core to Gazette: it replays
// topic journals into aggregated log entries, and publishes the
// pass's compensating messages back to the broker.
package messaging

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.gazette.dev/core/broker/client"
	pb "go.gazette.dev/core/broker/protocol"
)

// ReplayJournal reads |journal| from its beginning up to the current
// write head, invoking |fn| with each newline-delimited frame and the
// frame's broker arrival time (approximated by the local clock during
// replay). The read is bounded by |timeout|: exceeding it ends the
// replay with whatever was consumed, which is the at-most-once
// contract of the bookmark-bounded window. A late entry that missed
// the window is deliberately discarded.
func ReplayJournal(
	ctx context.Context,
	rjc pb.RoutedJournalClient,
	journal pb.Journal,
	timeout time.Duration,
	fn func(frame []byte, arrival time.Time) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var r = client.NewReader(ctx, rjc, pb.ReadRequest{
		Journal: journal,
		Offset:  0,
		Block:   false,
	})
	return replayFrames(journal, r, timeout, fn)
}

// replayFrames drains newline-delimited frames from |r| until a
// terminal read condition. Only the replay deadline is tolerated;
// a cancellation is a shutdown and surfaces as an error, since
// recovering from a partial window would be silent data loss.
func replayFrames(
	journal pb.Journal,
	r io.Reader,
	timeout time.Duration,
	fn func(frame []byte, arrival time.Time) error,
) error {
	var br = bufio.NewReader(r)
	var frames int

	for {
		var line, err = br.ReadBytes('\n')

		if line = bytes.TrimRight(line, "\n"); len(line) != 0 {
			if fnErr := fn(line, time.Now()); fnErr != nil {
				return fnErr
			}
			frames++
		}

		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, io.EOF),
			errors.Is(err, client.ErrOffsetNotYetAvailable):
			// Reached bookmark parity with the write head.
			log.WithFields(log.Fields{"journal": journal, "frames": frames}).
				Info("journal replay reached write head")
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			log.WithFields(log.Fields{"journal": journal, "frames": frames, "timeout": timeout}).
				Warn("journal replay timed out; proceeding with aggregated entries")
			return nil
		case errors.Is(err, client.ErrOffsetJump):
			// The broker skipped over a deleted fragment range. Keep reading.
			continue
		default:
			return fmt.Errorf("replaying journal %s: %w", journal, err)
		}
	}
}
