package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"sarifgrab/internal/config"
	"sarifgrab/internal/data"
	"sarifgrab/internal/faults"
	"sarifgrab/internal/fetcher"
	gh "sarifgrab/internal/github"
	"sarifgrab/internal/output"
	"sarifgrab/internal/progress"
)

type Engine struct {
	Client *gh.Client

	// Stdout receives console or structured output, Stderr the spinner and
	// diagnostics. Both default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// Program is the command name shown in usage hints.
	Program string
}

func NewEngine(client *gh.Client) *Engine {
	return &Engine{
		Client: client,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func setupOutputManager(cfg *config.Config, stdout io.Writer, program string) (*output.Manager, error) {
	outMgr := output.NewManager()

	if cfg.Output.Format == "text" {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, program)); err != nil {
			return nil, err
		}
	} else {
		es, err := output.NewEmitSink(stdout, cfg.Output.Format)
		if err != nil {
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, "")
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// NewPlanner wires the GitHub backed catalog, resolver and downloader.
func (e *Engine) NewPlanner(cfg *config.Config, sink output.Sink) *Planner {
	return &Planner{
		Catalog:  fetcher.NewCatalog(e.Client, fetcher.WithMatchDetails(cfg.Runtime.Verbose)),
		Resolver: fetcher.NewResolver(e.Client),
		Fetcher:  fetcher.NewDownloader(e.Client, cfg.Output.Dir),
		Sink:     sink,
		Progress: progress.NewSpinner(e.stderr(), cfg.Output.Progress),
	}
}

// Run executes req and returns the process exit code. A fault that ends the
// run is reported once on Stderr.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, req data.ReportRequest) int {
	outMgr, err := setupOutputManager(cfg, e.stdout(), e.Program)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return faults.ExitFatal
	}

	_, runErr := e.NewPlanner(cfg, outMgr).Execute(ctx, cfg.Repo(), req)
	closeErr := outMgr.Close()

	if runErr != nil {
		ReportFault(e.stderr(), runErr, cfg.Runtime.Verbose)
		return faults.ExitCode(runErr)
	}
	if closeErr != nil {
		fmt.Fprintf(e.stderr(), "Error writing output: %v\n", closeErr)
		return faults.ExitFault
	}
	return faults.ExitOK
}

// ReportFault prints the diagnostic for err. Verbose mode adds the
// underlying error.
func ReportFault(w io.Writer, err error, verbose bool) {
	_, _ = color.New(color.FgRed).Fprintln(w, faults.MessageFor(err))
	if !verbose {
		return
	}
	cause := err
	var f *faults.Fault
	if errors.As(err, &f) && f.Err != nil {
		cause = f.Err
	}
	fmt.Fprintf(w, "[verbose] cause: %v\n", cause)
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}
