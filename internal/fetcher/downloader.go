package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	gh "sarifgrab/internal/github"
)

// MediaTypeSARIF asks the analyses endpoint for the SARIF document instead
// of the analysis metadata.
const MediaTypeSARIF = "application/sarif+json"

// Downloader saves the SARIF body of single analyses to disk.
type Downloader struct {
	client *gh.Client
	outDir string
}

// NewDownloader returns a Downloader writing relative destinations under
// outDir ("" means the working directory).
func NewDownloader(client *gh.Client, outDir string) *Downloader {
	return &Downloader{client: client, outDir: outDir}
}

// Fetch downloads analysis reportID and writes it byte for byte to dest.
//
// Any HTTP status other than 200 yields a MISSING outcome and no file; that
// is never a session-level error. A transport failure or a local write
// failure is returned as an error.
func (d *Downloader) Fetch(ctx context.Context, repo data.RepositoryRef, reportID string, dest string) (data.FetchOutcome, error) {
	outcome := data.FetchOutcome{RequestedKey: reportID, ReportID: reportID}
	if d == nil || d.client == nil || d.client.Client == nil {
		return outcome, fmt.Errorf("downloader: nil GitHub client (use NewDownloader)")
	}
	op := fmt.Sprintf("downloading analysis %s", reportID)

	u := fmt.Sprintf("repos/%s/%s/code-scanning/analyses/%s",
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(reportID))
	req, err := d.client.Client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return outcome, faults.New(faults.CategoryUnclassified, op, repo.String(), err)
	}
	req.Header.Set("Accept", MediaTypeSARIF)

	var body bytes.Buffer
	resp, err := d.client.Client.Do(ctx, req, &body)
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	if err != nil && status == 0 {
		status = faults.StatusOf(err)
	}

	if status != http.StatusOK {
		if status == 0 {
			// No HTTP response at all: the service could not be reached.
			return outcome, faults.Wrap(op, repo.String(), err)
		}
		outcome.Status = data.OutcomeMissing
		outcome.Category = faults.CategoryNotFound
		outcome.Message = fmt.Sprintf("Report does not exist for %s/code-scanning/analyses/%s (HTTP %d)", repo.HTMLURL(), reportID, status)
		return outcome, nil
	}
	if err != nil {
		// 200 but the body could not be read completely.
		return outcome, faults.Wrap(op, repo.String(), err)
	}

	path := d.resolve(dest)
	n, err := writeFile(path, body.Bytes())
	if err != nil {
		return outcome, faults.New(faults.CategoryUnclassified, fmt.Sprintf("writing %s", path), repo.String(), err)
	}

	outcome.Status = data.OutcomeDownloaded
	outcome.BytesWritten = n
	outcome.DestinationPath = path
	return outcome, nil
}

func (d *Downloader) resolve(dest string) string {
	if filepath.IsAbs(dest) || d.outDir == "" || d.outDir == "." {
		return dest
	}
	return filepath.Join(d.outDir, dest)
}

func writeFile(path string, content []byte) (int64, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(content)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return int64(n), err
	}
	if n != len(content) {
		return int64(n), errors.New("short write")
	}
	return int64(n), nil
}
