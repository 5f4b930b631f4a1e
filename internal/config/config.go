package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"sarifgrab/internal/data"
)

const DefaultAPIURL = "https://api.github.com/"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep the CLI
	// flags in internal/cli/root.go in sync.
	Repository Repository `yaml:"repository"`
	Output     Output     `yaml:"output"`
	Runtime    Runtime    `yaml:"runtime"`
}

type Repository struct {
	// Owner is the account owning the repository (see --owner).
	Owner string `yaml:"owner"`

	// Name is the repository name (see --repo).
	Name string `yaml:"name"`
}

type Output struct {
	// Dir is where downloaded SARIF files are written (see --output-dir).
	// Relative destinations are resolved under it.
	Dir string `yaml:"dir"`

	// Format controls console output (see --format).
	// Allowed values: text, json, ndjson, yaml.
	Format string `yaml:"format"`

	// Out additionally writes a structured summary to this path (see --out).
	// The format is inferred from the extension: .json, .ndjson, .jsonl,
	// .yaml or .yml.
	Out string `yaml:"out,omitempty"`

	// Progress enables the spinner while listing analyses. It only animates
	// when stderr is a terminal.
	Progress bool `yaml:"progress"`
}

type Runtime struct {
	// APIURL is the GitHub REST API base (see --api-url). GitHub Enterprise
	// Server uses https://HOST/api/v3/.
	APIURL string `yaml:"api_url"`

	// Verbose logs every GitHub API call (see --verbose).
	Verbose bool `yaml:"verbose"`

	// ExtraVerbose implies Verbose and also prints the effective config and
	// the authenticated login (see --extra-verbose).
	ExtraVerbose bool `yaml:"extra_verbose"`
}

func New() *Config {
	return &Config{
		Output: Output{
			Dir:      ".",
			Format:   "text",
			Progress: true,
		},
		Runtime: Runtime{
			APIURL: DefaultAPIURL,
		},
	}
}

var (
	ownerPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	repoPattern  = regexp.MustCompile(`^[a-z0-9-]*$`)
)

// ValidateOwner accepts lowercase alphanumerics and single hyphens, not at
// either end.
func ValidateOwner(owner string) error {
	if owner == "" {
		return errors.New("--owner is required")
	}
	if !ownerPattern.MatchString(owner) || strings.Contains(owner, "--") {
		return fmt.Errorf("OWNER may only contain alphanumeric characters or single hyphens, and cannot begin or end with a hyphen. %q fails this test", owner)
	}
	return nil
}

// ValidateRepoName accepts lowercase alphanumerics and hyphens.
func ValidateRepoName(name string) error {
	if name == "" {
		return errors.New("--repo is required")
	}
	if !repoPattern.MatchString(name) {
		return fmt.Errorf("REPO may only contain alphanumeric characters or hyphens. %q fails this test", name)
	}
	return nil
}

func (c *Config) Validate() error {
	c.Repository.Owner = strings.TrimSpace(c.Repository.Owner)
	c.Repository.Name = strings.TrimSpace(c.Repository.Name)

	var missing []string
	if c.Repository.Owner == "" {
		missing = append(missing, "--owner")
	}
	if c.Repository.Name == "" {
		missing = append(missing, "--repo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flag(s): %s", strings.Join(missing, " "))
	}
	if err := ValidateOwner(c.Repository.Owner); err != nil {
		return err
	}
	if err := ValidateRepoName(c.Repository.Name); err != nil {
		return err
	}

	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	switch c.Output.Format {
	case "text", "json", "ndjson", "yaml":
	default:
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json, ndjson, yaml)", c.Output.Format)
	}

	c.Output.Out = strings.TrimSpace(c.Output.Out)
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = "."
	}

	if c.Runtime.ExtraVerbose {
		c.Runtime.Verbose = true
	}

	apiURL, err := normalizeAPIURL(c.Runtime.APIURL)
	if err != nil {
		return fmt.Errorf("invalid --api-url value: %w", err)
	}
	c.Runtime.APIURL = apiURL

	return nil
}

// Repo returns the validated repository reference. Call Validate first.
func (c *Config) Repo() data.RepositoryRef {
	return data.RepositoryRef{Owner: c.Repository.Owner, Name: c.Repository.Name}
}

func normalizeAPIURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultAPIURL, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SplitCommaList flattens repeated and comma separated values, dropping
// empty entries. Order and duplicates are preserved.
func SplitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
