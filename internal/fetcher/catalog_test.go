package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"sarifgrab/internal/faults"
)

func TestCatalog_ListAll_PaginatesAndEnriches(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			if got := r.URL.Query().Get("per_page"); got != "100" {
				t.Errorf("per_page = %q, want 100", got)
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/widgets/code-scanning/analyses?page=2&per_page=100>; rel="next"`, serverURL))
			fmt.Fprintf(w, `[{"id":1,"commit_sha":"%s","created_at":"2024-01-01T10:00:00Z","tool":{"name":"CodeQL"}},
				{"id":2,"commit_sha":"%s","created_at":"2024-01-02T10:00:00Z","tool":{"name":"CodeQL"}}]`, sha("a"), sha("b"))
		case "2":
			fmt.Fprintf(w, `[{"id":3,"commit_sha":"%s","created_at":"2024-01-03T10:00:00Z","tool":{"name":"Semgrep"}}]`, sha("a"))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	commitCalls := map[string]int{}
	mux.HandleFunc("GET /repos/acme/widgets/git/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		s := r.PathValue("sha")
		commitCalls[s]++
		if s == sha("b") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		fmt.Fprintf(w, `{"sha":"%s","message":"Fix the widget","author":{"name":"Mona"}}`, s)
	})

	client, server := newTestClient(t, mux)
	serverURL = server.URL

	reports, err := NewCatalog(client).ListAll(context.Background(), testRepo)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, want := range []int64{1, 2, 3} {
		if reports[i].ID != want {
			t.Fatalf("report %d has ID %d, want %d (order must be preserved)", i, reports[i].ID, want)
		}
	}
	if reports[2].ToolName != "Semgrep" || reports[2].CreatedAt.Day() != 3 {
		t.Fatalf("unexpected report: %+v", reports[2])
	}
	if reports[0].AuthorName != "Mona" || reports[0].CommitMessage != "Fix the widget" {
		t.Fatalf("expected enrichment, got %+v", reports[0])
	}
	// A vanished commit leaves the fields blank instead of failing the listing.
	if reports[1].AuthorName != "" || reports[1].CommitMessage != "" {
		t.Fatalf("expected blank enrichment for missing commit, got %+v", reports[1])
	}
	if commitCalls[sha("a")] != 1 {
		t.Fatalf("expected shared commit to be looked up once, got %d", commitCalls[sha("a")])
	}
}

func TestCatalog_FilterBySha(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"id":101,"commit_sha":"%s"},{"id":5,"commit_sha":"%s"},{"id":102,"commit_sha":"%s"}]`, sha("c"), sha("d"), sha("c"))
	})
	commitCalls := 0
	mux.HandleFunc("GET /repos/acme/widgets/git/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		commitCalls++
		fmt.Fprintf(w, `{"sha":"%s","message":"m","author":{"name":"a"}}`, r.PathValue("sha"))
	})
	client, _ := newTestClient(t, mux)

	t.Run("exact matches in listing order without details", func(t *testing.T) {
		matches, err := NewCatalog(client).FilterBySha(context.Background(), testRepo, sha("c"))
		if err != nil {
			t.Fatalf("FilterBySha error: %v", err)
		}
		if len(matches) != 2 || matches[0].ID != 101 || matches[1].ID != 102 {
			t.Fatalf("unexpected matches: %+v", matches)
		}
		if commitCalls != 0 {
			t.Fatalf("expected no commit lookups, got %d", commitCalls)
		}
	})

	t.Run("prefix is not a match", func(t *testing.T) {
		matches, err := NewCatalog(client).FilterBySha(context.Background(), testRepo, sha("c")[:7])
		if err != nil {
			t.Fatalf("FilterBySha error: %v", err)
		}
		if len(matches) != 0 {
			t.Fatalf("expected no matches, got %+v", matches)
		}
	})

	t.Run("match details enrich matches only", func(t *testing.T) {
		commitCalls = 0
		matches, err := NewCatalog(client, WithMatchDetails(true)).FilterBySha(context.Background(), testRepo, sha("d"))
		if err != nil {
			t.Fatalf("FilterBySha error: %v", err)
		}
		if len(matches) != 1 || matches[0].AuthorName != "a" {
			t.Fatalf("unexpected matches: %+v", matches)
		}
		if commitCalls != 1 {
			t.Fatalf("expected one commit lookup, got %d", commitCalls)
		}
	})
}

func TestCatalog_ListingFaults(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   faults.Category
	}{
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"message":"down"}`, want: faults.CategoryServiceUnavailable},
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"Code scanning is not enabled"}`, want: faults.CategoryPermissionDenied},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Bad credentials"}`, want: faults.CategoryAuthentication},
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Not Found"}`, want: faults.CategoryNotFound},
		{name: "too many requests", status: http.StatusTooManyRequests, body: `{"message":"Too Many Requests"}`, want: faults.CategoryServiceUnavailable},
		{name: "shape mismatch", status: http.StatusOK, body: `{"id":"not-a-list"}`, want: faults.CategoryClientProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			client, _ := newTestClient(t, mux)

			_, err := NewCatalog(client).ListAll(context.Background(), testRepo)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := faults.Classify(err); got != tt.want {
				t.Fatalf("category = %s, want %s (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestCatalog_NoAnalysisFoundIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"no analysis found","documentation_url":"https://docs.github.com/rest"}`)
	})
	client, _ := newTestClient(t, mux)
	catalog := NewCatalog(client)

	reports, err := catalog.ListAll(context.Background(), testRepo)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no reports, got %d", len(reports))
	}

	matches, err := catalog.FilterBySha(context.Background(), testRepo, sha("a"))
	if err != nil {
		t.Fatalf("FilterBySha error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestCatalog_EnrichmentFaultPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"id":1,"commit_sha":"%s"}]`, sha("e"))
	})
	mux.HandleFunc("GET /repos/acme/widgets/git/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux)

	_, err := NewCatalog(client).ListAll(context.Background(), testRepo)
	if faults.Classify(err) != faults.CategoryServiceUnavailable {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestCommitCache(t *testing.T) {
	c := NewCommitCache(2)
	c.Set("a", commitInfo{AuthorName: "x"})
	c.Set("b", commitInfo{})
	c.Set("c", commitInfo{})
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
}
