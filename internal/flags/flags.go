package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// its tests, so Cobra wiring and argument building cannot drift apart.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.PersistentFlags().StringVarP(&cfg.Repository.Owner, flags.FlagOwner, flags.ShortOwner, "", "...")
//	arg := "--" + flags.FlagOwner
const (
	// Repository
	FlagOwner = "owner"
	FlagRepo  = "repo"

	// Output
	FlagOutputDir  = "output-dir"
	FlagFormat     = "format"
	FlagOut        = "out"
	FlagNoProgress = "no-progress"

	// Runtime
	FlagAPIURL       = "api-url"
	FlagVerbose      = "verbose"
	FlagExtraVerbose = "extra-verbose"
)

// Single letter shorthands.
const (
	ShortOwner        = "o"
	ShortRepo         = "r"
	ShortOutputDir    = "d"
	ShortVerbose      = "v"
	ShortExtraVerbose = "V"
)
