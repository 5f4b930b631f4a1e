package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sarifgrab/internal/data"
	gh "sarifgrab/internal/github"
)

var testRepo = data.RepositoryRef{Owner: "acme", Name: "widgets"}

func sha(c string) string {
	return strings.Repeat(c, 40)
}

func newTestClient(t *testing.T, mux *http.ServeMux) (*gh.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := gh.NewClient(context.Background(), "dummy", gh.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}
