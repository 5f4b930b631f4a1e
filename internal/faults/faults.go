// Package faults classifies errors surfaced by GitHub API calls into a small,
// fixed set of categories and renders one user-facing diagnostic per fault.
package faults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
)

type Category int

const (
	CategoryNone Category = iota
	CategoryConfiguration
	CategoryAuthentication
	CategoryNotFound
	CategoryPermissionDenied
	CategoryServiceUnavailable
	CategoryClientProtocol
	CategoryUnclassified
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryConfiguration:
		return "configuration_error"
	case CategoryAuthentication:
		return "authentication_failure"
	case CategoryNotFound:
		return "resource_not_found"
	case CategoryPermissionDenied:
		return "permission_denied"
	case CategoryServiceUnavailable:
		return "service_unavailable"
	case CategoryClientProtocol:
		return "client_protocol_error"
	default:
		return "unclassified_error"
	}
}

// MarshalText lets categories appear by name in JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	for cat := CategoryNone; cat <= CategoryUnclassified; cat++ {
		if cat.String() == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown failure category %q", text)
}

// ErrMissingCredential is returned before any network call when no access
// token could be resolved.
var ErrMissingCredential = errors.New("github access token is required")

// Fault is a classified error from one operation against one repository.
type Fault struct {
	Category Category
	// Op describes what was being attempted, e.g. "resolving PR #7".
	Op string
	// Repo is OWNER/NAME.
	Repo string
	// Status is the HTTP status of the failed response, 0 when there was none.
	Status int
	Err    error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Message()
	}
	switch f.Category {
	case CategoryClientProtocol, CategoryUnclassified:
		// Message already carries the cause.
		return f.Message()
	}
	return fmt.Sprintf("%s: %v", f.Message(), f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Message is the canonical diagnostic for the fault. It names the repository,
// the operation and a remediation hint, and never includes request URLs.
func (f *Fault) Message() string {
	where := repoURL(f.Repo)
	op := f.Op
	if op == "" {
		op = "calling the GitHub API"
	}
	switch f.Category {
	case CategoryConfiguration:
		return "To be able to run this tool, you are required to set the following environment variables:\n" +
			"- GITHUB_PAT: A Personal Access Token (PAT) for your account (GITHUB_TOKEN or 'gh auth login' also work)"
	case CategoryAuthentication:
		return fmt.Sprintf("Bad credentials while %s for %s - is your GITHUB_PAT ok?", op, where)
	case CategoryNotFound:
		return fmt.Sprintf("Could not find the needed data while %s - is %s the correct repository, "+
			"or do you have the correct PR number, commit SHA and/or Analysis Report IDs?", op, where)
	case CategoryPermissionDenied:
		return fmt.Sprintf("Permission denied while %s - Code Scanning may not be enabled for %s, "+
			"or your token lacks the security_events scope", op, where)
	case CategoryServiceUnavailable:
		return fmt.Sprintf("It appears the service is currently not available while %s for %s - please try again later. "+
			"You can check https://www.githubstatus.com/ for operational details", op, where)
	case CategoryClientProtocol:
		return fmt.Sprintf("GitHub rejected the request while %s for %s: %s", op, where, detail(f.Err))
	default:
		return fmt.Sprintf("Unexpected error while %s for %s: %s", op, where, detail(f.Err))
	}
}

func repoURL(repo string) string {
	if repo == "" {
		return "the repository"
	}
	return "https://github.com/" + repo
}

func detail(err error) string {
	if err == nil {
		return "unknown error"
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if er.Response != nil {
			status := fmt.Sprintf("%d %s", er.Response.StatusCode, http.StatusText(er.Response.StatusCode))
			if msg == "" {
				return status
			}
			return fmt.Sprintf("%s (%s)", msg, status)
		}
		if msg != "" {
			return msg
		}
	}
	return err.Error()
}

// Classify maps an error from the GitHub client into a Category.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	var f *Fault
	if errors.As(err, &f) {
		return f.Category
	}
	if errors.Is(err, ErrMissingCredential) {
		return CategoryConfiguration
	}

	// Rate limiting is checked before ErrorResponse: both carry a 403.
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return CategoryServiceUnavailable
	}
	var are *github.AbuseRateLimitError
	if errors.As(err, &are) {
		return CategoryServiceUnavailable
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return classifyStatus(er.Response.StatusCode)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return CategoryClientProtocol
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryUnclassified
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return CategoryServiceUnavailable
	}

	return CategoryUnclassified
}

func classifyStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized:
		return CategoryAuthentication
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusForbidden:
		return CategoryPermissionDenied
	case status == http.StatusTooManyRequests:
		return CategoryServiceUnavailable
	case status >= 500:
		return CategoryServiceUnavailable
	case status >= 400:
		return CategoryClientProtocol
	default:
		return CategoryUnclassified
	}
}

// Wrap classifies err and attaches the operation and repository. A nil err
// yields nil; an error that already is a *Fault is returned unchanged.
func Wrap(op, repo string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Fault
	if errors.As(err, &existing) {
		return err
	}
	return &Fault{
		Category: Classify(err),
		Op:       op,
		Repo:     repo,
		Status:   StatusOf(err),
		Err:      err,
	}
}

// New builds a fault with an explicit category.
func New(category Category, op, repo string, err error) *Fault {
	return &Fault{Category: category, Op: op, Repo: repo, Status: StatusOf(err), Err: err}
}

// StatusOf returns the HTTP status carried by a go-github error, or 0.
func StatusOf(err error) int {
	var f *Fault
	if errors.As(err, &f) && f.Status != 0 {
		return f.Status
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	var rle *github.RateLimitError
	if errors.As(err, &rle) && rle.Response != nil {
		return rle.Response.StatusCode
	}
	var are *github.AbuseRateLimitError
	if errors.As(err, &are) && are.Response != nil {
		return are.Response.StatusCode
	}
	return 0
}

// IsNotFound reports whether err classifies as CategoryNotFound. Only these
// faults may be absorbed at a per-item loop boundary.
func IsNotFound(err error) bool {
	return err != nil && Classify(err) == CategoryNotFound
}

// MessageFor renders the diagnostic for any error, classifying it if needed.
func MessageFor(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message()
	}
	return (&Fault{Category: Classify(err), Err: err}).Message()
}

// Exit codes.
//
//	0 = run completed, including runs with missing items
//	1 = a remote fault aborted the run
//	3 = fatal error (invalid invocation or configuration, nothing ran)
const (
	ExitOK    = 0
	ExitFault = 1
	ExitFatal = 3
)

// ExitCode maps the error that ended a run to the process exit code.
func ExitCode(err error) int {
	switch Classify(err) {
	case CategoryNone:
		return ExitOK
	case CategoryConfiguration:
		return ExitFatal
	default:
		return ExitFault
	}
}
