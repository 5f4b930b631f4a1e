package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sarifgrab/internal/config"
	"sarifgrab/internal/faults"
	"sarifgrab/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const rootLong = `sarifgrab downloads GitHub Code Scanning analyses as SARIF files.

It works against a single repository and never modifies it. Reports can be
listed, or retrieved by analysis ID, by pull request (its HEAD commit) or by
commit SHA prefix.

Examples:
	# List the analyses of a repository
	sarifgrab list -o acme -r widgets

	# Download analyses 11 and 22 to ./reports
	sarifgrab get -o acme -r widgets -d reports 11,22

	# Download every analysis of the HEAD commit of PR #7
	sarifgrab pr -o acme -r widgets 7

	# Download every analysis of a commit
	sarifgrab sha -o acme -r widgets 3f2a9c1

Authentication:
	Sources (in order):
	1) GITHUB_PAT environment variable
	2) GITHUB_TOKEN environment variable
	3) GitHub CLI (gh) authentication via gh auth token
	A .env file in the working directory is loaded first. Variables already
	set in the environment win. The token needs the security_events scope
	(or Code scanning alerts: Read for fine-grained tokens).

Output:
	Files are written as analysis_<ID>.sarif, pr_<N>_analysis_<ID>.sarif or
	sha_<PREFIX>_analysis_<ID>.sarif under --output-dir, byte for byte as
	served by GitHub.
	--format selects console output: text (default), json, yaml, or ndjson.
	NDJSON mode emits one lifecycle Event per line with a "type" field
	(run.started, item.started, commit.resolved, report.listed, report.found,
	report.downloaded, report.missing, item.empty, item.missing, run.finished).

Exit codes:
	0 = run completed (missing reports, PRs or commits are reported, not fatal)
	1 = a GitHub API fault aborted the run
	3 = fatal error (invalid invocation or missing credentials, nothing ran)`

// exitError carries a process exit code out of a command's RunE.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitWith(code int) error {
	if code == faults.ExitOK {
		return nil
	}
	return &exitError{code: code}
}

// app is the state shared by the commands of one tree.
type app struct {
	cfg        *config.Config
	noProgress bool
}

// NewRootCommand builds a fresh command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	a := &app{cfg: config.New()}

	root := &cobra.Command{
		Use:           "sarifgrab",
		Short:         "Download GitHub Code Scanning analyses as SARIF files",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate),
	}
	root.SetVersionTemplate("{{.Version}}\n")

	// MAINTAINER NOTE: If you add/change/remove flags here, keep the config
	// fields in internal/config/config.go in sync.
	pf := root.PersistentFlags()

	// Repository
	pf.StringVarP(&a.cfg.Repository.Owner, flags.FlagOwner, flags.ShortOwner, "", "Account owning the repository (required)")
	pf.StringVarP(&a.cfg.Repository.Name, flags.FlagRepo, flags.ShortRepo, "", "Repository name (required)")

	// Output
	pf.StringVarP(&a.cfg.Output.Dir, flags.FlagOutputDir, flags.ShortOutputDir, a.cfg.Output.Dir, "Directory downloaded SARIF files are written to")
	pf.StringVar(&a.cfg.Output.Format, flags.FlagFormat, a.cfg.Output.Format, "Console output format: text|json|ndjson|yaml")
	pf.StringVar(&a.cfg.Output.Out, flags.FlagOut, "", "Also write structured output to this path (.json, .ndjson, .jsonl, .yaml, .yml)")
	pf.BoolVar(&a.noProgress, flags.FlagNoProgress, false, "Disable the spinner shown while listing analyses")

	// Runtime
	pf.StringVar(&a.cfg.Runtime.APIURL, flags.FlagAPIURL, a.cfg.Runtime.APIURL, "GitHub REST API base URL (GitHub Enterprise Server: https://HOST/api/v3/)")
	pf.BoolVarP(&a.cfg.Runtime.Verbose, flags.FlagVerbose, flags.ShortVerbose, false, "Enable verbose logging (prints every GitHub API call and full error details)")
	pf.BoolVarP(&a.cfg.Runtime.ExtraVerbose, flags.FlagExtraVerbose, flags.ShortExtraVerbose, false, "Like --verbose, and also print the effective configuration and the authenticated user")

	root.AddCommand(
		newListCommand(a),
		newGetCommand(a),
		newPRCommand(a),
		newShaCommand(a),
		newVersionCommand(),
	)
	return root
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return faults.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Cobra parse errors: unknown command or flag, bad flag value.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return faults.ExitFatal
}
