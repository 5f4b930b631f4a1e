package data

import "sarifgrab/internal/faults"

type OutcomeStatus string

const (
	OutcomeDownloaded OutcomeStatus = "DOWNLOADED"
	// OutcomeMissing is an item-local failure: the report, pull request or
	// commit for this key could not be found. Siblings are still processed.
	OutcomeMissing OutcomeStatus = "MISSING"
	// OutcomeNoAnalyses is informational: the commit resolved but has no
	// analyses.
	OutcomeNoAnalyses OutcomeStatus = "NO_ANALYSES"
)

// FetchOutcome records what happened to one leaf of a request. It drives
// per-item console reporting and is never persisted.
type FetchOutcome struct {
	RequestedKey    string          `json:"key" yaml:"key"`
	ReportID        string          `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	CommitSHA       string          `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
	Status          OutcomeStatus   `json:"status" yaml:"status"`
	BytesWritten    int64           `json:"bytes_written,omitempty" yaml:"bytes_written,omitempty"`
	DestinationPath string          `json:"path,omitempty" yaml:"path,omitempty"`
	Category        faults.Category `json:"failure_category,omitempty" yaml:"failure_category,omitempty"`
	Message         string          `json:"message,omitempty" yaml:"message,omitempty"`
}

func (o FetchOutcome) Succeeded() bool {
	return o.Status == OutcomeDownloaded
}
