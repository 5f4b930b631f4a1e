package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sarifgrab/internal/config"
	"sarifgrab/internal/data"
	"sarifgrab/internal/engine"
	"sarifgrab/internal/faults"
	gh "sarifgrab/internal/github"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the code scanning analyses of the repository",
		Long: `List every code scanning analysis of the repository with its tool,
commit, date, commit author and commit message. No files are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, func() (data.ReportRequest, error) {
				return data.NewListRequest(), nil
			})
		},
	}
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID[,ID...]...",
		Short: "Download analyses by ID",
		Long: `Download analyses by ID to analysis_<ID>.sarif.

An ID that does not exist is reported and skipped; the other IDs are still
downloaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, func() (data.ReportRequest, error) {
				return data.NewByIDRequest(config.SplitCommaList(args))
			})
		},
	}
}

func newPRCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pr NUMBER[,NUMBER...]...",
		Short: "Download every analysis of a pull request's HEAD commit",
		Long: `Download every analysis of the HEAD commit of each pull request to
pr_<NUMBER>_analysis_<ID>.sarif.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, func() (data.ReportRequest, error) {
				return data.NewByPRRequest(config.SplitCommaList(args))
			})
		},
	}
}

func newShaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sha PREFIX[,PREFIX...]...",
		Short: "Download every analysis of a commit",
		Long: fmt.Sprintf(`Download every analysis of the commit each SHA prefix (%d to %d lowercase
hex characters) resolves to, to sha_<PREFIX>_analysis_<ID>.sarif.`, data.MinSHAPrefixLen, data.MaxSHAPrefixLen),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, func() (data.ReportRequest, error) {
				return data.NewByShaRequest(config.SplitCommaList(args))
			})
		},
	}
}

// runRequest validates the invocation, authenticates and hands the request
// to the engine. Nothing touches the network before validation succeeds.
func (a *app) runRequest(cmd *cobra.Command, build func() (data.ReportRequest, error)) error {
	stderr := cmd.ErrOrStderr()
	cfg := a.cfg
	cfg.Output.Progress = !a.noProgress

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitWith(faults.ExitFatal)
	}
	req, err := build()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitWith(faults.ExitFatal)
	}

	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		fmt.Fprintf(stderr, "Error: failed to load %s: %v\n", config.DotEnvFile, err)
		return exitWith(faults.ExitFatal)
	}

	ctx := cmd.Context()
	token, source, err := gh.ResolveAuthToken(ctx, "", gh.HostForAPI(cfg.Runtime.APIURL))
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to resolve GitHub auth token: %v\n", err)
		return exitWith(faults.ExitFatal)
	}
	if strings.TrimSpace(token) == "" {
		engine.ReportFault(stderr, faults.ErrMissingCredential, false)
		return exitWith(faults.ExitCode(faults.ErrMissingCredential))
	}
	if cfg.Runtime.Verbose {
		fmt.Fprintf(stderr, "[verbose] auth: using token from %s\n", source)
	}

	client, err := gh.NewClient(ctx, token,
		gh.WithVerbose(cfg.Runtime.Verbose, stderr),
		gh.WithBaseURL(cfg.Runtime.APIURL),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create GitHub client: %v\n", err)
		return exitWith(faults.ExitFatal)
	}

	if cfg.Runtime.ExtraVerbose {
		if err := dumpConfig(stderr, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitWith(faults.ExitFatal)
		}
		login, err := client.Login(ctx)
		if err != nil {
			err = faults.Wrap("looking up the authenticated user", cfg.Repo().String(), err)
			engine.ReportFault(stderr, err, cfg.Runtime.Verbose)
			return exitWith(faults.ExitCode(err))
		}
		fmt.Fprintf(stderr, "Running as @%s\n", login)
	}

	eng := engine.NewEngine(client)
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = stderr
	eng.Program = cmd.Root().Name()
	return exitWith(eng.Run(ctx, cfg, req))
}

func dumpConfig(w io.Writer, cfg *config.Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Fprintf(w, "[verbose] effective configuration:\n%s", b)
	return nil
}
