package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"sarifgrab/internal/data"
)

// Summary is the aggregate document written by the json and yaml formats.
type Summary struct {
	Repo     string                `json:"repo" yaml:"repo"`
	Kind     data.RequestKind      `json:"kind" yaml:"kind"`
	Reports  []data.AnalysisReport `json:"reports,omitempty" yaml:"reports,omitempty"`
	Outcomes []data.FetchOutcome   `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// EmitSink writes structured output.
//
// Formats:
//   - json: aggregates a Summary and writes it on Close
//   - yaml: same as json, as a YAML document
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer  io.Writer
	format  string
	mu      sync.Mutex
	summary Summary
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	switch format {
	case "json", "ndjson", "yaml":
	default:
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "ndjson" {
		return s.stream(v)
	}

	switch t := v.(type) {
	case Event:
		if t.Type == EventRunStarted {
			s.summary.Repo = t.Repo
			s.summary.Kind = t.Kind
		}
		if t.Outcome != nil {
			s.summary.Outcomes = append(s.summary.Outcomes, *t.Outcome)
		}
	case Listing:
		s.summary.Repo = t.Repo.String()
		s.summary.Kind = data.KindList
		s.summary.Reports = append(s.summary.Reports, t.Reports...)
	}
	return nil
}

func (s *EmitSink) stream(v any) error {
	var events []Event
	switch t := v.(type) {
	case Event:
		events = []Event{t}
	case Listing:
		events = listingEvents(t)
	default:
		return nil
	}
	encoder := json.NewEncoder(s.writer)
	for _, e := range events {
		if err := encoder.Encode(e); err != nil {
			return err
		}
	}
	return flushEvent(s.writer)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.summary); err != nil {
			return err
		}
	case "yaml":
		encoder := yaml.NewEncoder(s.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(s.summary); err != nil {
			return err
		}
		if err := encoder.Close(); err != nil {
			return err
		}
	default:
		return nil
	}
	return flushEvent(s.writer)
}
