package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adminkit/toggle/client"
)

const initCheckTimeout = 10 * time.Second

// profileConfig holds connection settings for a single profile.
type profileConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// profilesFile is the layout of ~/.togglectl/config.yaml.
type profilesFile struct {
	Profiles      map[string]profileConfig `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type initOptions struct {
	profile   string
	url       string
	apiKey    string
	skipCheck bool
}

func newInitCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save a server profile to ~/.togglectl/config.yaml",
		Long: "Prompts for a toggled URL and API key, checks them against the server " +
			"and stores them as a named profile. Passing --url or --api-key skips the prompts.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			interactive := opts.url == "" && opts.apiKey == ""
			if interactive {
				if err := promptProfile(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), &opts); err != nil {
					return err
				}
			}
			return runInit(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "default", "Profile name to create or replace")
	cmd.Flags().StringVar(&opts.url, "url", "", "toggled URL")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key issued by 'toggled apikey create'")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-check", false, "Save without contacting the server")
	return cmd
}

func promptProfile(r *bufio.Reader, w io.Writer, opts *initOptions) error {
	fmt.Fprintf(w, "togglectl profile %q\n\n", opts.profile)

	opts.url = ask(r, w, "Server URL", defaultURL)
	opts.apiKey = ask(r, w, "API key", "")

	return nil
}

// ask prints label and returns the trimmed answer, or def when it is empty.
func ask(r *bufio.Reader, w io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "  %s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "  %s: ", label)
	}

	line, _ := r.ReadString('\n') //nolint:errcheck // EOF leaves the default
	if line = strings.TrimSpace(line); line != "" {
		return line
	}

	return def
}

func runInit(ctx context.Context, w io.Writer, opts initOptions) error {
	if opts.url == "" {
		opts.url = defaultURL
	}
	if opts.apiKey == "" {
		return errors.New("an API key is required")
	}
	if opts.profile == "" {
		opts.profile = "default"
	}

	p := profileConfig{URL: strings.TrimRight(opts.url, "/"), APIKey: opts.apiKey}

	if !opts.skipCheck {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := checkProfile(ctx, w, p); err != nil {
			return err
		}
	}

	path, err := saveProfile(opts.profile, p)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(w, "Profile %q saved to %s and made active.\n", opts.profile, path)
	fmt.Fprintln(w, "Run 'togglectl doctor' to verify the setup.")

	return nil
}

// checkProfile requires a reachable server. A key the server does not accept
// only produces a warning, since guards may be reconfigured later.
func checkProfile(ctx context.Context, w io.Writer, p profileConfig) error {
	ctx, cancel := context.WithTimeout(ctx, initCheckTimeout)
	defer cancel()

	c := client.New(p.URL, client.WithAPIKey(p.APIKey))

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", p.URL, err)
	}
	fmt.Fprintf(w, "Connected to toggled %s (database %s)\n", health.Version, health.Database)

	if _, _, err := c.Audit.Query(ctx, &client.AuditQueryOptions{Limit: 1}); err != nil {
		if client.IsUnauthorized(err) {
			fmt.Fprintln(w, "warning: the key is not accepted by any allowed guard")
			return nil
		}
		return fmt.Errorf("checking API key: %w", err)
	}

	fmt.Fprintln(w, "API key accepted")

	return nil
}

// saveProfile stores p under name, keeps the other profiles and makes name
// the active profile. The file is written with mode 0600.
func saveProfile(name string, p profileConfig) (string, error) {
	path, cfg, err := loadProfiles()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		cfg = &profilesFile{}
	default:
		return "", err
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]profileConfig)
	}
	cfg.Profiles[name] = p
	cfg.ActiveProfile = name

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}
