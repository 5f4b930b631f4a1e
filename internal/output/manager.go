package output

import (
	"errors"
	"fmt"
)

// Sink receives Event and Listing values. Sinks ignore values they do not
// render.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans each Event and Listing out to every configured sink, so a
// console or emit sink on stdout and a --out file see the same run.
//
// A sink whose Write fails is reported once and receives nothing further;
// it is still closed.
type Manager struct {
	sinks  []Sink
	failed []bool
}

func NewManager(sinks ...Sink) *Manager {
	m := &Manager{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
			m.failed = append(m.failed, false)
		}
	}
	return m
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	m.failed = append(m.failed, false)
	return nil
}

// Len returns the number of sinks.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

// Write delivers v to every healthy sink. Only Event and Listing values are
// accepted.
func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	switch v.(type) {
	case Event, Listing:
	default:
		return fmt.Errorf("unsupported output value %T", v)
	}

	var errs []error
	for i, s := range m.sinks {
		if m.failed[i] {
			continue
		}
		if err := s.Write(v); err != nil {
			m.failed[i] = true
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every sink, including ones that failed a Write.
func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
