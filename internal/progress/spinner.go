// Package progress renders a cosmetic spinner on stderr while a blocking
// GitHub call runs. The spinner never touches the call it decorates.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

const (
	spinnerTemplate = `{{ string . "message" }} {{ cycle . "|" "/" "-" "\\" }}`
	refreshRate     = time.Second / 30
)

// Indicator is started before a blocking call and stopped after it.
// Stop must block until any background rendering has ended.
type Indicator interface {
	Start(message string)
	Stop()
}

// Nop is an Indicator that renders nothing.
type Nop struct{}

func (Nop) Start(string) {}
func (Nop) Stop()        {}

// Spinner animates a message with a rotating glyph.
type Spinner struct {
	w       io.Writer
	enabled bool

	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewSpinner returns a spinner writing to w. It only animates when enabled
// is true and w is a terminal.
func NewSpinner(w io.Writer, enabled bool) *Spinner {
	return &Spinner{w: w, enabled: enabled && isTerminal(w)}
}

// newForcedSpinner skips terminal detection.
func newForcedSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w, enabled: true}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (s *Spinner) Start(message string) {
	if s == nil || !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		return
	}

	bar := pb.ProgressBarTemplate(spinnerTemplate).New(0)
	bar.SetWriter(s.w)
	bar.SetRefreshRate(refreshRate)
	bar.Set("message", message)
	bar.Set(pb.CleanOnFinish, true)
	s.bar = bar.Start()
}

// Stop finishes the spinner and waits for its render loop to exit. It is
// safe to call more than once.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	bar := s.bar
	s.bar = nil
	s.mu.Unlock()

	if bar != nil {
		bar.Finish()
	}
}

func (s *Spinner) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar != nil
}

// Track runs fn with ind spinning, stopping it on every exit path.
func Track[T any](ind Indicator, message string, fn func() (T, error)) (T, error) {
	if ind == nil {
		ind = Nop{}
	}
	ind.Start(message)
	defer ind.Stop()
	return fn()
}
