package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	gh "sarifgrab/internal/github"

	"github.com/google/go-github/v81/github"
)

const (
	analysesPerPage = 100
	noAnalysisFound = "no analysis found"
)

// Catalog lists the code scanning analyses of a repository.
type Catalog struct {
	client       *gh.Client
	commits      *CommitCache
	matchDetails bool
}

type CatalogOption func(*Catalog)

// WithMatchDetails makes FilterBySha enrich matches with commit author and
// message, at the cost of one extra lookup per distinct commit.
func WithMatchDetails(enabled bool) CatalogOption {
	return func(c *Catalog) {
		c.matchDetails = enabled
	}
}

func NewCatalog(client *gh.Client, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		client:  client,
		commits: NewCommitCache(defaultCommitCacheSize),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(c)
		}
	}
	return c
}

// ListAll returns every analysis of repo in the order the API returns them,
// enriched with commit author and message.
func (c *Catalog) ListAll(ctx context.Context, repo data.RepositoryRef) ([]data.AnalysisReport, error) {
	reports, err := c.list(ctx, repo)
	if err != nil {
		return nil, err
	}
	if err := c.enrich(ctx, repo, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// FilterBySha returns the analyses whose commit SHA equals sha exactly,
// preserving listing order.
func (c *Catalog) FilterBySha(ctx context.Context, repo data.RepositoryRef, sha string) ([]data.AnalysisReport, error) {
	reports, err := c.list(ctx, repo)
	if err != nil {
		return nil, err
	}

	var matches []data.AnalysisReport
	for _, r := range reports {
		if r.CommitSHA == sha {
			matches = append(matches, r)
		}
	}
	if c.matchDetails {
		if err := c.enrich(ctx, repo, matches); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (c *Catalog) list(ctx context.Context, repo data.RepositoryRef) ([]data.AnalysisReport, error) {
	if c == nil || c.client == nil || c.client.Client == nil {
		return nil, fmt.Errorf("catalog: nil GitHub client (use NewCatalog)")
	}

	const op = "listing code scanning analyses"
	opts := &github.AnalysesListOptions{ListOptions: github.ListOptions{PerPage: analysesPerPage}}

	var out []data.AnalysisReport
	for {
		page, resp, err := c.client.Client.CodeScanning.ListAnalysesForRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			if isNoAnalyses(err) {
				return out, nil
			}
			return nil, faults.Wrap(op, repo.String(), err)
		}
		for _, a := range page {
			if a == nil {
				continue
			}
			out = append(out, reportFromAnalysis(a))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// isNoAnalyses reports whether err is the 404 the analyses endpoint answers
// for a repository that has code scanning but no analyses yet. Other 404s,
// such as an unknown repository, carry "Not Found".
func isNoAnalyses(err error) bool {
	var er *github.ErrorResponse
	if !errors.As(err, &er) || er.Response == nil || er.Response.StatusCode != http.StatusNotFound {
		return false
	}
	return strings.Contains(strings.ToLower(er.Message), noAnalysisFound)
}

func reportFromAnalysis(a *github.ScanningAnalysis) data.AnalysisReport {
	return data.AnalysisReport{
		ID:        a.GetID(),
		ToolName:  a.GetTool().GetName(),
		CommitSHA: a.GetCommitSHA(),
		CreatedAt: a.GetCreatedAt().Time,
	}
}

// enrich fills AuthorName and CommitMessage in place. A commit that no
// longer exists (e.g. after a force push) leaves both fields empty.
func (c *Catalog) enrich(ctx context.Context, repo data.RepositoryRef, reports []data.AnalysisReport) error {
	for i := range reports {
		sha := reports[i].CommitSHA
		if sha == "" {
			continue
		}
		info, ok := c.commits.Get(sha)
		if !ok {
			commit, _, err := c.client.Client.Git.GetCommit(ctx, repo.Owner, repo.Name, sha)
			if err != nil {
				werr := faults.Wrap(fmt.Sprintf("looking up commit %s", data.ShortSHA(sha)), repo.String(), err)
				if !faults.IsNotFound(werr) {
					return werr
				}
			} else {
				info = commitInfo{AuthorName: commit.GetAuthor().GetName(), Message: commit.GetMessage()}
			}
			c.commits.Set(sha, info)
		}
		reports[i].AuthorName = info.AuthorName
		reports[i].CommitMessage = info.Message
	}
	return nil
}
