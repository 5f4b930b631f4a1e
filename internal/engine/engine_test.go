package engine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sarifgrab/internal/config"
	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	gh "sarifgrab/internal/github"
)

func newTestEngine(t *testing.T, mux *http.ServeMux) (*Engine, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := gh.NewClient(context.Background(), "dummy", gh.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	var stdout, stderr bytes.Buffer
	e := NewEngine(client)
	e.Stdout = &stdout
	e.Stderr = &stderr
	e.Program = "sarifgrab"
	return e, &stdout, &stderr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Repository.Owner = "acme"
	cfg.Repository.Name = "widgets"
	cfg.Output.Dir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func analysesJSON(head string, ids ...int) string {
	var items []string
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{"id":%d,"commit_sha":%q,"created_at":"2024-03-01T12:00:00Z","tool":{"name":"CodeQL"}}`, id, head))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func serveSARIF(mux *http.ServeMux, id string, body []byte) {
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses/"+id, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sarif+json")
		_, _ = w.Write(body)
	})
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEngine_Run_GetWithOneMissingReport(t *testing.T) {
	mux := http.NewServeMux()
	serveSARIF(mux, "11", []byte(`{"runs":[11]}`))
	serveSARIF(mux, "33", []byte(`{"runs":[33]}`))
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses/22", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	e, stdout, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)

	req, _ := data.NewByIDRequest([]string{"11", "22", "33"})
	if code := e.Run(context.Background(), cfg, req); code != faults.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	if got := strings.Join(dirEntries(t, cfg.Output.Dir), ","); got != "analysis_11.sarif,analysis_33.sarif" {
		t.Fatalf("files = %s", got)
	}
	out := stdout.String()
	for _, want := range []string{"Getting reports...", "Report does not exist for https://github.com/acme/widgets/code-scanning/analyses/22", "...done."} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestEngine_Run_PRWithTwoMatchesWritesIdenticalBytes(t *testing.T) {
	head := sha("a")
	bodies := map[string][]byte{
		"101": []byte("{\"version\":\"2.1.0\", \"runs\":[]}\n"),
		"102": []byte("{ \"version\" : \"2.1.0\",\r\n\"runs\":[{\"x\":\"\\u00e9\"}]}"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":7,"head":{"sha":%q}}`, head)
	})
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysesJSON(head, 101, 102))
	})
	for id, b := range bodies {
		serveSARIF(mux, id, b)
	}
	e, stdout, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)

	req, _ := data.NewByPRRequest([]string{"7"})
	if code := e.Run(context.Background(), cfg, req); code != faults.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	for id, want := range bodies {
		got, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "pr_7_analysis_"+id+".sarif"))
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("report %s differs:\n got %q\nwant %q", id, got, want)
		}
	}
	if !strings.Contains(stdout.String(), "  HEAD is "+head) {
		t.Fatalf("expected HEAD line, got:\n%s", stdout.String())
	}
}

func TestEngine_Run_PRWithoutAnalyses(t *testing.T) {
	head := sha("b")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":7,"head":{"sha":%q}}`, head)
	})
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysesJSON(sha("c"), 1))
	})
	e, stdout, _ := newTestEngine(t, mux)
	cfg := testConfig(t)

	req, _ := data.NewByPRRequest([]string{"7"})
	if code := e.Run(context.Background(), cfg, req); code != faults.ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if n := len(dirEntries(t, cfg.Output.Dir)); n != 0 {
		t.Fatalf("expected no files, got %d", n)
	}
	want := "  No analysis reports found for SHA " + head + " for PR #7 in https://github.com/acme/widgets"
	if !strings.Contains(stdout.String(), want) {
		t.Fatalf("expected %q, got:\n%s", want, stdout.String())
	}
}

func TestEngine_Run_ListRepositoryWithoutAnalyses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"no analysis found"}`)
	})
	e, stdout, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)

	if code := e.Run(context.Background(), cfg, data.NewListRequest()); code != faults.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "ID  ") || !strings.Contains(out, "\n\nTo get a report issue the command") {
		t.Fatalf("expected empty table, got:\n%s", out)
	}
	if strings.Contains(out, "For example:") {
		t.Fatalf("expected no example for an empty table, got:\n%s", out)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected no diagnostics, got:\n%s", stderr.String())
	}
}

func TestEngine_Run_ShaAuthFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/commits/abcd", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})
	e, _, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)

	req, _ := data.NewByShaRequest([]string{"abcd", "ef01"})
	code := e.Run(context.Background(), cfg, req)
	if code == faults.ExitOK {
		t.Fatalf("expected non-zero exit code")
	}
	if n := len(dirEntries(t, cfg.Output.Dir)); n != 0 {
		t.Fatalf("expected no files, got %d", n)
	}
	msg := stderr.String()
	if !strings.Contains(msg, "GITHUB_PAT") || strings.Count(msg, "Bad credentials") != 1 {
		t.Fatalf("expected one authentication diagnostic, got:\n%s", msg)
	}
}

func TestEngine_Run_ListJSON(t *testing.T) {
	head := sha("d")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/code-scanning/analyses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysesJSON(head, 3, 2, 1))
	})
	mux.HandleFunc("GET /repos/acme/widgets/git/commits/"+head, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"sha":%q,"message":"Initial commit","author":{"name":"Mona"}}`, head)
	})
	e, stdout, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)
	cfg.Output.Format = "json"

	if code := e.Run(context.Background(), cfg, data.NewListRequest()); code != faults.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if strings.Count(out, `"commit_message": "Initial commit"`) != 3 {
		t.Fatalf("expected three enriched reports, got:\n%s", out)
	}
}

func TestEngine_Run_OutFileSink(t *testing.T) {
	mux := http.NewServeMux()
	serveSARIF(mux, "11", []byte(`{}`))
	e, _, stderr := newTestEngine(t, mux)
	cfg := testConfig(t)
	cfg.Output.Out = filepath.Join(t.TempDir(), "summary.ndjson")

	req, _ := data.NewByIDRequest([]string{"11"})
	if code := e.Run(context.Background(), cfg, req); code != faults.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	b, err := os.ReadFile(cfg.Output.Out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), `"type":"report.downloaded"`) {
		t.Fatalf("expected downloaded event in summary, got:\n%s", b)
	}
}
