package progress

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

type recordingIndicator struct {
	started []string
	stopped int
}

func (r *recordingIndicator) Start(message string) { r.started = append(r.started, message) }
func (r *recordingIndicator) Stop()                { r.stopped++ }

func TestTrack_StopsOnSuccessAndFailure(t *testing.T) {
	ind := &recordingIndicator{}

	got, err := Track(ind, "listing", func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Fatalf("Track() = %d, %v", got, err)
	}

	boom := errors.New("boom")
	_, err = Track(ind, "listing again", func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to pass through, got %v", err)
	}

	if len(ind.started) != 2 || ind.stopped != 2 {
		t.Fatalf("expected two start/stop pairs, got started=%v stopped=%d", ind.started, ind.stopped)
	}
}

func TestTrack_StopsOnPanic(t *testing.T) {
	ind := &recordingIndicator{}
	func() {
		defer func() { _ = recover() }()
		_, _ = Track(ind, "listing", func() (int, error) { panic("boom") })
	}()
	if ind.stopped != 1 {
		t.Fatalf("expected stop after panic, got %d", ind.stopped)
	}
}

func TestTrack_NilIndicator(t *testing.T) {
	got, err := Track[string](nil, "x", func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("Track() = %q, %v", got, err)
	}
}

func TestNewSpinner_DisabledForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, true)
	s.Start("listing")
	if s.running() {
		t.Fatalf("expected spinner to stay idle for a non-terminal writer")
	}
	s.Stop()
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

// syncBuffer guards writes from the render goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestSpinner_StopJoinsAndIsIdempotent(t *testing.T) {
	w := &syncBuffer{}
	s := newForcedSpinner(w)

	s.Start("listing")
	if !s.running() {
		t.Fatalf("expected spinner to be running")
	}
	// A second Start while running is ignored.
	s.Start("again")

	s.Stop()
	if s.running() {
		t.Fatalf("expected spinner to be stopped")
	}
	s.Stop()

	// Restartable after Stop.
	s.Start("second")
	s.Stop()
}

func TestSpinner_NilSafe(t *testing.T) {
	var s *Spinner
	s.Start("x")
	s.Stop()
}
