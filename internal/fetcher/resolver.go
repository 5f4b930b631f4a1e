package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	gh "sarifgrab/internal/github"
)

// Resolver turns a pull request number or a commit SHA prefix into the full
// SHA of a commit. Prefix disambiguation is left to the API.
type Resolver struct {
	client *gh.Client
}

func NewResolver(client *gh.Client) *Resolver {
	return &Resolver{client: client}
}

// ResolveFromPR returns the head commit of pull request number.
func (r *Resolver) ResolveFromPR(ctx context.Context, repo data.RepositoryRef, number string) (data.Commit, error) {
	if err := r.check(); err != nil {
		return data.Commit{}, err
	}
	op := fmt.Sprintf("resolving PR #%s", number)
	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return data.Commit{}, faults.New(faults.CategoryNotFound, op, repo.String(), fmt.Errorf("invalid pull request number %q", number))
	}

	ghPR, _, err := r.client.Client.PullRequests.Get(ctx, repo.Owner, repo.Name, n)
	if err != nil {
		return data.Commit{}, faults.Wrap(op, repo.String(), err)
	}
	pr := data.PullRequest{Number: n, HeadSHA: ghPR.GetHead().GetSHA()}
	return commitFromSHA(op, repo, pr.HeadSHA)
}

// ResolveFromPrefix returns the commit matching prefix. The API answers 422
// for prefixes that are ambiguous or match nothing; both map to not found.
func (r *Resolver) ResolveFromPrefix(ctx context.Context, repo data.RepositoryRef, prefix string) (data.Commit, error) {
	if err := r.check(); err != nil {
		return data.Commit{}, err
	}
	op := fmt.Sprintf("resolving commit %s", prefix)

	commit, _, err := r.client.Client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, prefix, nil)
	if err != nil {
		if faults.StatusOf(err) == http.StatusUnprocessableEntity {
			return data.Commit{}, faults.New(faults.CategoryNotFound, op, repo.String(), err)
		}
		return data.Commit{}, faults.Wrap(op, repo.String(), err)
	}
	return commitFromSHA(op, repo, commit.GetSHA())
}

func (r *Resolver) check() error {
	if r == nil || r.client == nil || r.client.Client == nil {
		return fmt.Errorf("resolver: nil GitHub client (use NewResolver)")
	}
	return nil
}

func commitFromSHA(op string, repo data.RepositoryRef, sha string) (data.Commit, error) {
	if !data.IsFullSHA(sha) {
		return data.Commit{}, faults.New(faults.CategoryClientProtocol, op, repo.String(), fmt.Errorf("unexpected commit SHA %q in response", sha))
	}
	return data.Commit{SHA: sha}, nil
}
