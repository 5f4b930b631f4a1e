package output

import "sarifgrab/internal/data"

type EventType string

// Lifecycle events, in the order a run produces them.
const (
	EventRunStarted       EventType = "run.started"
	EventItemStarted      EventType = "item.started"
	EventCommitResolved   EventType = "commit.resolved"
	EventReportListed     EventType = "report.listed"
	EventReportFound      EventType = "report.found"
	EventReportDownloaded EventType = "report.downloaded"
	EventReportMissing    EventType = "report.missing"
	EventItemEmpty        EventType = "item.empty"
	EventItemMissing      EventType = "item.missing"
	EventRunFinished      EventType = "run.finished"
)

// Event is one step of a run. Text sinks render it as a console line and
// NDJSON sinks stream it as one object per line.
type Event struct {
	Type EventType        `json:"type" yaml:"type"`
	Repo string           `json:"repo,omitempty" yaml:"repo,omitempty"`
	Kind data.RequestKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Key is the requested report ID, PR number or SHA prefix.
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	SHA      string `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
	ReportID string `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`

	Report  *data.AnalysisReport `json:"report,omitempty" yaml:"report,omitempty"`
	Outcome *data.FetchOutcome   `json:"outcome,omitempty" yaml:"outcome,omitempty"`

	Downloaded int `json:"downloaded,omitempty" yaml:"downloaded,omitempty"`
	Missing    int `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Listing is the enriched catalog of one repository, written once per list
// run.
type Listing struct {
	Repo    data.RepositoryRef
	Reports []data.AnalysisReport
}

// OutcomeEvent turns a per-item outcome into its lifecycle event.
func OutcomeEvent(repo data.RepositoryRef, kind data.RequestKind, key string, o data.FetchOutcome) Event {
	e := Event{
		Repo:     repo.String(),
		Kind:     kind,
		Key:      key,
		SHA:      o.CommitSHA,
		ReportID: o.ReportID,
		Message:  o.Message,
		Outcome:  &o,
	}
	switch o.Status {
	case data.OutcomeDownloaded:
		e.Type = EventReportDownloaded
	case data.OutcomeNoAnalyses:
		e.Type = EventItemEmpty
	default:
		if o.ReportID != "" {
			e.Type = EventReportMissing
		} else {
			e.Type = EventItemMissing
		}
	}
	return e
}

func listingEvents(l Listing) []Event {
	events := make([]Event, 0, len(l.Reports))
	for i := range l.Reports {
		r := l.Reports[i]
		events = append(events, Event{
			Type:   EventReportListed,
			Repo:   l.Repo.String(),
			Kind:   data.KindList,
			SHA:    r.CommitSHA,
			Report: &r,
		})
	}
	return events
}
