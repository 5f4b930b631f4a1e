package data

import (
	"errors"
	"fmt"
)

type RequestKind string

const (
	KindList  RequestKind = "list"
	KindByID  RequestKind = "get"
	KindByPR  RequestKind = "pr"
	KindBySha RequestKind = "sha"
)

// ErrUnknownKind is returned for a request whose kind is not one of the
// constants above.
var ErrUnknownKind = errors.New("unknown request kind")

const (
	MinSHAPrefixLen = 4
	MaxSHAPrefixLen = 40
)

// ReportRequest is a validated request: exactly one kind and, for every kind
// but KindList, at least one key. Keys keep input order and duplicates.
type ReportRequest struct {
	Kind RequestKind
	Keys []string
}

func NewListRequest() ReportRequest {
	return ReportRequest{Kind: KindList}
}

// NewByIDRequest builds a request for analysis report IDs (digit strings).
func NewByIDRequest(ids []string) (ReportRequest, error) {
	if err := requireKeys(ids, "analysis report ID"); err != nil {
		return ReportRequest{}, err
	}
	for _, id := range ids {
		if !isDigits(id) {
			return ReportRequest{}, fmt.Errorf("analysis report ID lists may only contain numbers: %q fails this test", id)
		}
	}
	return ReportRequest{Kind: KindByID, Keys: ids}, nil
}

// NewByPRRequest builds a request for pull request numbers (digit strings).
func NewByPRRequest(numbers []string) (ReportRequest, error) {
	if err := requireKeys(numbers, "pull request number"); err != nil {
		return ReportRequest{}, err
	}
	for _, n := range numbers {
		if !isDigits(n) {
			return ReportRequest{}, fmt.Errorf("pull request lists may only contain numbers: %q fails this test", n)
		}
	}
	return ReportRequest{Kind: KindByPR, Keys: numbers}, nil
}

// NewByShaRequest builds a request for commit SHA prefixes of 4 to 40
// lowercase hex characters.
func NewByShaRequest(prefixes []string) (ReportRequest, error) {
	if err := requireKeys(prefixes, "commit SHA"); err != nil {
		return ReportRequest{}, err
	}
	for _, p := range prefixes {
		if len(p) < MinSHAPrefixLen || len(p) > MaxSHAPrefixLen || !isLowerHex(p) {
			return ReportRequest{}, fmt.Errorf("commit SHA lists may only contain %d to %d lowercase hex characters: %q fails this test", MinSHAPrefixLen, MaxSHAPrefixLen, p)
		}
	}
	return ReportRequest{Kind: KindBySha, Keys: prefixes}, nil
}

func requireKeys(keys []string, what string) error {
	if len(keys) == 0 {
		return errors.New("at least one " + what + " must be provided")
	}
	return nil
}
