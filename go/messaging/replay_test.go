package messaging

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.gazette.dev/core/broker/client"
)

// scriptedReader yields its chunks, then its errors in order, the last
// one repeating.
type scriptedReader struct {
	chunks [][]byte
	errs   []error
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) != 0 {
		var n = copy(p, r.chunks[0])
		if n == len(r.chunks[0]) {
			r.chunks = r.chunks[1:]
		} else {
			r.chunks[0] = r.chunks[0][n:]
		}
		return n, nil
	}
	var err = r.errs[0]
	if len(r.errs) > 1 {
		r.errs = r.errs[1:]
	}
	return 0, err
}

func collectFrames(into *[]string) func(frame []byte, arrival time.Time) error {
	return func(frame []byte, _ time.Time) error {
		*into = append(*into, string(frame))
		return nil
	}
}

func TestReplayFramesDeliversUpToWriteHead(t *testing.T) {
	var frames []string
	var r = &scriptedReader{
		chunks: [][]byte{[]byte("one\ntwo\n")},
		errs:   []error{io.EOF},
	}
	require.NoError(t, replayFrames("a/journal", r, time.Second, collectFrames(&frames)))
	require.Equal(t, []string{"one", "two"}, frames)

	// A non-blocking read ending at the write head is equivalent.
	frames = nil
	r = &scriptedReader{
		chunks: [][]byte{[]byte("one\n")},
		errs:   []error{client.ErrOffsetNotYetAvailable},
	}
	require.NoError(t, replayFrames("a/journal", r, time.Second, collectFrames(&frames)))
	require.Equal(t, []string{"one"}, frames)
}

func TestReplayFramesToleratesDeadline(t *testing.T) {
	var frames []string
	var r = &scriptedReader{
		chunks: [][]byte{[]byte("one\n")},
		errs:   []error{context.DeadlineExceeded},
	}
	require.NoError(t, replayFrames("a/journal", r, time.Second, collectFrames(&frames)))
	require.Equal(t, []string{"one"}, frames)
}

func TestReplayFramesSurfacesCancellation(t *testing.T) {
	// A cancellation is a shutdown, not the replay bound: it must not
	// be swallowed as a benign timeout.
	var r = &scriptedReader{errs: []error{context.Canceled}}
	var err = replayFrames("a/journal", r, time.Second,
		func([]byte, time.Time) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplayFramesSkipsOffsetJumps(t *testing.T) {
	var frames []string
	var r = &scriptedReader{
		chunks: [][]byte{[]byte("one\n")},
		errs:   []error{client.ErrOffsetJump, io.EOF},
	}
	require.NoError(t, replayFrames("a/journal", r, time.Second, collectFrames(&frames)))
	require.Equal(t, []string{"one"}, frames)
}

func TestReplayFramesPropagatesReadAndConsumeErrors(t *testing.T) {
	var r = &scriptedReader{errs: []error{errors.New("broker unavailable")}}
	var err = replayFrames("a/journal", r, time.Second,
		func([]byte, time.Time) error { return nil })
	require.ErrorContains(t, err, "replaying journal a/journal")

	var boom = errors.New("consume failed")
	r = &scriptedReader{chunks: [][]byte{[]byte("one\n")}, errs: []error{io.EOF}}
	err = replayFrames("a/journal", r, time.Second,
		func([]byte, time.Time) error { return boom })
	require.ErrorIs(t, err, boom)
}
