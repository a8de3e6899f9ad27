// Command geolocate looks up geolocation data for IP addresses using the
// ip2location.io or ipgeolocation.io APIs.
//
// Usage examples:
//
//	geolocate ip2location --addrs 1.1.1.1 8.8.8.8
//	geolocate ipgeolocation --file ips.txt
//	geolocate config --show
//	geolocate completions zsh ~/.zfunc
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/westernwontons/geolocate/internal/config"
	"github.com/westernwontons/geolocate/internal/env"
	"github.com/westernwontons/geolocate/internal/geolocation"
	"github.com/westernwontons/geolocate/internal/logging"
	"github.com/westernwontons/geolocate/internal/output"
	"github.com/westernwontons/geolocate/internal/provider"
)

var version = "dev"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	noColor    bool
	verbose    bool
	endpoint   string

	logger     zerolog.Logger
	httpClient geolocation.Doer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geolocate",
		Short: "Look up geolocation data of IP addresses",
		Long: `Look up geolocation data of IP addresses with the ip2location.io or
ipgeolocation.io APIs. API keys are read from the configuration file,
see 'geolocate config --help'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: user config dir, or $GEOLOCATE_CONFIG)")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log requests to stderr")
	cmd.PersistentFlags().StringVar(&a.endpoint, "endpoint", "", "Override the provider base URL")
	_ = cmd.PersistentFlags().MarkHidden("endpoint")

	for _, p := range provider.All {
		cmd.AddCommand(lookupCmd(a, p))
	}
	cmd.AddCommand(configCmd(a))
	cmd.AddCommand(completionsCmd())

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := env.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.New(logging.Config{
		Level:  level,
		Pretty: true,
		Out:    cmd.ErrOrStderr(),
	})

	plain := a.noColor || cmd.OutOrStdout() != os.Stdout || !output.IsTerminal()
	if plain && output.ColorsEnabled() {
		output.DisableColors()
	}
	return nil
}

// resolveConfigPath returns --config, $GEOLOCATE_CONFIG or the default path.
func (a *app) resolveConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// loadStore reads the credential file once and applies env overrides.
func (a *app) loadStore() (*config.Store, error) {
	path, err := a.resolveConfigPath()
	if err != nil {
		return nil, err
	}

	store, err := config.Load(path)
	if errors.Is(err, config.ErrParse) || errors.Is(err, config.ErrInvalid) {
		return nil, fmt.Errorf("%w (run 'geolocate config --edit' to fix it)", err)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Debug().Str("path", path).Int("keys", len(store.Keys)).Msg("configuration loaded")
	return store.WithEnv(), nil
}

func (a *app) endpoints() provider.Endpoints {
	if a.endpoint == "" {
		return provider.DefaultEndpoints
	}
	return provider.Endpoints{Ip2Location: a.endpoint, IpGeolocation: a.endpoint}
}
