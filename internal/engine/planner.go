package engine

import (
	"context"
	"strconv"

	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	"sarifgrab/internal/output"
	"sarifgrab/internal/progress"
)

// ReportLister lists the analyses of a repository.
type ReportLister interface {
	ListAll(ctx context.Context, repo data.RepositoryRef) ([]data.AnalysisReport, error)
	FilterBySha(ctx context.Context, repo data.RepositoryRef, sha string) ([]data.AnalysisReport, error)
}

// CommitResolver turns a PR number or SHA prefix into a full commit SHA.
type CommitResolver interface {
	ResolveFromPR(ctx context.Context, repo data.RepositoryRef, number string) (data.Commit, error)
	ResolveFromPrefix(ctx context.Context, repo data.RepositoryRef, prefix string) (data.Commit, error)
}

// ReportFetcher downloads one SARIF report. Non-200 answers come back as a
// MISSING outcome with a nil error.
type ReportFetcher interface {
	Fetch(ctx context.Context, repo data.RepositoryRef, reportID string, dest string) (data.FetchOutcome, error)
}

// Planner executes one report request against one repository. Network calls
// are strictly sequential.
type Planner struct {
	Catalog  ReportLister
	Resolver CommitResolver
	Fetcher  ReportFetcher

	// Sink receives one Event per step. Optional.
	Sink output.Sink
	// Progress spins while the catalog is listed. Optional.
	Progress progress.Indicator
}

// Result is what a completed (or aborted) run produced.
type Result struct {
	// Reports is set for list requests only.
	Reports  []data.AnalysisReport
	Outcomes []data.FetchOutcome
}

func (r Result) Downloaded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

func (r Result) Missing() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == data.OutcomeMissing {
			n++
		}
	}
	return n
}

// Execute runs req. Not-found faults for one item of a PR or SHA batch are
// recorded as MISSING and the batch continues; any other fault ends the run
// and is returned with the outcomes gathered so far.
func (p *Planner) Execute(ctx context.Context, repo data.RepositoryRef, req data.ReportRequest) (Result, error) {
	var res Result
	p.emit(output.Event{Type: output.EventRunStarted, Repo: repo.String(), Kind: req.Kind})

	var err error
	switch req.Kind {
	case data.KindList:
		err = p.list(ctx, repo, &res)
	case data.KindByID:
		err = p.byID(ctx, repo, req.Keys, &res)
	case data.KindByPR, data.KindBySha:
		err = p.byCommit(ctx, repo, req.Kind, req.Keys, &res)
	default:
		err = faults.New(faults.CategoryConfiguration, "planning request", repo.String(), data.ErrUnknownKind)
	}
	if err != nil {
		return res, err
	}

	p.emit(output.Event{
		Type:       output.EventRunFinished,
		Repo:       repo.String(),
		Kind:       req.Kind,
		Downloaded: res.Downloaded(),
		Missing:    res.Missing(),
	})
	return res, nil
}

func (p *Planner) list(ctx context.Context, repo data.RepositoryRef, res *Result) error {
	reports, err := progress.Track(p.Progress, "", func() ([]data.AnalysisReport, error) {
		return p.Catalog.ListAll(ctx, repo)
	})
	if err != nil {
		return err
	}
	res.Reports = reports
	if p.Sink != nil {
		_ = p.Sink.Write(output.Listing{Repo: repo, Reports: reports})
	}
	return nil
}

func (p *Planner) byID(ctx context.Context, repo data.RepositoryRef, ids []string, res *Result) error {
	for _, id := range ids {
		p.emit(output.Event{Type: output.EventItemStarted, Repo: repo.String(), Kind: data.KindByID, Key: id})

		outcome, err := p.Fetcher.Fetch(ctx, repo, id, data.DestinationName(data.KindByID, id, id))
		if err != nil {
			return err
		}
		p.record(repo, data.KindByID, id, outcome, res)
	}
	return nil
}

func (p *Planner) byCommit(ctx context.Context, repo data.RepositoryRef, kind data.RequestKind, keys []string, res *Result) error {
	for _, key := range keys {
		p.emit(output.Event{Type: output.EventItemStarted, Repo: repo.String(), Kind: kind, Key: key})

		commit, err := p.resolve(ctx, repo, kind, key)
		if err != nil {
			if faults.IsNotFound(err) {
				p.record(repo, kind, key, missingOutcome(key, "", err), res)
				continue
			}
			return err
		}
		p.emit(output.Event{Type: output.EventCommitResolved, Repo: repo.String(), Kind: kind, Key: key, SHA: commit.SHA})

		matches, err := progress.Track(p.Progress, "", func() ([]data.AnalysisReport, error) {
			return p.Catalog.FilterBySha(ctx, repo, commit.SHA)
		})
		if err != nil {
			if faults.IsNotFound(err) {
				p.record(repo, kind, key, missingOutcome(key, commit.SHA, err), res)
				continue
			}
			return err
		}

		if len(matches) == 0 {
			p.record(repo, kind, key, data.FetchOutcome{
				RequestedKey: key,
				CommitSHA:    commit.SHA,
				Status:       data.OutcomeNoAnalyses,
			}, res)
			continue
		}

		for _, m := range matches {
			id := strconv.FormatInt(m.ID, 10)
			p.emit(output.Event{Type: output.EventReportFound, Repo: repo.String(), Kind: kind, Key: key, SHA: commit.SHA, ReportID: id})

			outcome, err := p.Fetcher.Fetch(ctx, repo, id, data.DestinationName(kind, key, id))
			if err != nil {
				return err
			}
			outcome.RequestedKey = key
			outcome.CommitSHA = commit.SHA
			p.record(repo, kind, key, outcome, res)
		}
	}
	return nil
}

func (p *Planner) resolve(ctx context.Context, repo data.RepositoryRef, kind data.RequestKind, key string) (data.Commit, error) {
	if kind == data.KindByPR {
		return p.Resolver.ResolveFromPR(ctx, repo, key)
	}
	return p.Resolver.ResolveFromPrefix(ctx, repo, key)
}

func missingOutcome(key, sha string, err error) data.FetchOutcome {
	return data.FetchOutcome{
		RequestedKey: key,
		CommitSHA:    sha,
		Status:       data.OutcomeMissing,
		Category:     faults.Classify(err),
		Message:      faults.MessageFor(err),
	}
}

func (p *Planner) record(repo data.RepositoryRef, kind data.RequestKind, key string, o data.FetchOutcome, res *Result) {
	res.Outcomes = append(res.Outcomes, o)
	p.emit(output.OutcomeEvent(repo, kind, key, o))
}

func (p *Planner) emit(e output.Event) {
	if p.Sink == nil {
		return
	}
	_ = p.Sink.Write(e)
}
