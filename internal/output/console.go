package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"sarifgrab/internal/data"
)

const (
	messageWidth = 40
	dateLayout   = "2006-01-02 15:04:05 UTC"
)

// ConsoleSink renders human-readable progress lines and the list table.
type ConsoleSink struct {
	writer  io.Writer
	program string
	warn    *color.Color
	mu      sync.Mutex
}

// NewConsoleSink writes to w. program is the command name used in the list
// usage hint.
func NewConsoleSink(w io.Writer, program string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if program == "" {
		program = "sarifgrab"
	}
	return &ConsoleSink{
		writer:  w,
		program: program,
		warn:    color.New(color.FgYellow),
	}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := v.(type) {
	case Event:
		if err := s.writeEvent(t); err != nil {
			return err
		}
	case Listing:
		if err := s.writeListing(t); err != nil {
			return err
		}
	default:
		return nil
	}
	return flushEvent(s.writer)
}

func (s *ConsoleSink) Close() error { return nil }

func (s *ConsoleSink) writeEvent(e Event) error {
	repoURL := "https://github.com/" + e.Repo

	var line string
	warn := false
	switch e.Type {
	case EventRunStarted:
		switch e.Kind {
		case data.KindList:
			line = fmt.Sprintf("Listing available reports for %s...", repoURL)
		case data.KindByID:
			line = "Getting reports..."
		}
	case EventItemStarted:
		switch e.Kind {
		case data.KindByID:
			line = fmt.Sprintf("  Getting SARIF report with ID %s...", e.Key)
		case data.KindByPR:
			line = fmt.Sprintf("Getting SARIF report(s) for PR #%s in %s:", e.Key, repoURL)
		case data.KindBySha:
			line = fmt.Sprintf("Getting SARIF report(s) for SHA %s in %s:", e.Key, repoURL)
		}
	case EventCommitResolved:
		if e.Kind == data.KindByPR {
			line = "  HEAD is " + e.SHA
		} else {
			line = "  Commit is " + e.SHA
		}
	case EventReportFound:
		line = "  Found Report " + e.ReportID
	case EventReportDownloaded:
		if e.Outcome != nil {
			line = "  Report Downloaded to " + e.Outcome.DestinationPath
		}
	case EventItemEmpty:
		if e.Kind == data.KindByPR {
			line = fmt.Sprintf("  No analysis reports found for SHA %s for PR #%s in %s", e.SHA, e.Key, repoURL)
		} else {
			line = fmt.Sprintf("  No analysis reports found for SHA %s in %s", e.SHA, repoURL)
		}
	case EventReportMissing, EventItemMissing:
		line, warn = "  "+e.Message, true
	case EventRunFinished:
		if e.Kind == data.KindByID {
			line = "...done."
		}
	}
	if line == "" {
		return nil
	}
	if warn {
		_, err := s.warn.Fprintln(s.writer, line)
		return err
	}
	_, err := fmt.Fprintln(s.writer, line)
	return err
}

func (s *ConsoleSink) writeListing(l Listing) error {
	tw := tabwriter.NewWriter(s.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTool\tCommit SHA(7)\tCommit date\tCommit author\tCommit message")
	for _, r := range l.Reports {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			cell(r.ToolName),
			data.ShortSHA(r.CommitSHA),
			formatDate(r.CreatedAt),
			cell(r.AuthorName),
			truncate(cell(r.CommitMessage), messageWidth),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	base := fmt.Sprintf("%s get -o %s -r %s", s.program, l.Repo.Owner, l.Repo.Name)
	footer := "\nTo get a report issue the command\n  " + base + " [ID]\n" +
		"where [ID] is the ID of the analysis report you are interested in from the table above.\n"
	if n := len(l.Reports); n > 0 {
		footer += "\nFor example:\n  " + base + " " + strconv.FormatInt(l.Reports[n-1].ID, 10) + "\n" +
			"to get the last report on that table\n"
	}
	_, err := io.WriteString(s.writer, footer)
	return err
}

// cell collapses whitespace so a value stays on one table line.
func cell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to fewer than width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) < width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-4]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
