package data

import (
	"fmt"
	"time"
)

// RepositoryRef identifies the single repository an invocation works against.
// It is built once from validated input and never mutated.
type RepositoryRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// HTMLURL is the repository's web address, used in console messages.
func (r RepositoryRef) HTMLURL() string {
	return "https://github.com/" + r.String()
}

// AnalysisReport is one code scanning analysis as listed by the API,
// optionally enriched with the author and message of its commit.
type AnalysisReport struct {
	ID            int64     `json:"id" yaml:"id"`
	ToolName      string    `json:"tool" yaml:"tool"`
	CommitSHA     string    `json:"commit_sha" yaml:"commit_sha"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	AuthorName    string    `json:"author,omitempty" yaml:"author,omitempty"`
	CommitMessage string    `json:"commit_message,omitempty" yaml:"commit_message,omitempty"`
}

// PullRequest is the part of a pull request needed to find its analyses.
type PullRequest struct {
	Number  int
	HeadSHA string
}

// Commit always holds the full 40 character SHA returned by the API.
type Commit struct {
	SHA string
}

// ShortSHA returns the first seven characters of sha.
func ShortSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}

// IsFullSHA reports whether s is a 40 character lowercase hex string.
func IsFullSHA(s string) bool {
	return len(s) == 40 && isLowerHex(s)
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DestinationName returns the file name a report is saved under for the
// given request kind and requested key.
func DestinationName(kind RequestKind, key string, reportID string) string {
	switch kind {
	case KindByPR:
		return fmt.Sprintf("pr_%s_analysis_%s.sarif", key, reportID)
	case KindBySha:
		return fmt.Sprintf("sha_%s_analysis_%s.sarif", key, reportID)
	default:
		return fmt.Sprintf("analysis_%s.sarif", reportID)
	}
}
