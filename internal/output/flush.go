package output

import (
	"bufio"
	"io"
)

// flushWriter is a buffered writer such as *bufio.Writer.
type flushWriter interface {
	io.Writer
	Flush() error
}

// flushEvent pushes the lines of one event out of any buffer in front of w,
// so a --out NDJSON file tailed during a long batch stays current.
func flushEvent(w io.Writer) error {
	fw, ok := w.(flushWriter)
	if !ok {
		return nil
	}
	return fw.Flush()
}

func bufferedFile(w io.Writer) *bufio.Writer {
	return bufio.NewWriterSize(w, 32*1024)
}
