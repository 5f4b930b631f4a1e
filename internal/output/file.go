package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSink writes structured output to a file (see --out).
type FileSink struct {
	path string
	file *os.File
	buf  *bufio.Writer
	*EmitSink
}

// NewFileSink creates path, inferring the format from its extension when
// format is empty.
func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if format == "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".json":
			format = "json"
		case ".ndjson", ".jsonl":
			format = "ndjson"
		case ".yaml", ".yml":
			format = "yaml"
		default:
			return nil, fmt.Errorf("cannot infer output format from file extension %q", ext)
		}
	}
	if format == "text" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	buf := bufferedFile(f)
	emit, err := NewEmitSink(buf, format)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	return &FileSink{path: path, file: f, buf: buf, EmitSink: emit}, nil
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Close() error {
	err := s.EmitSink.Close()
	if flushErr := s.buf.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
