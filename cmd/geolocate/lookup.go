package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/westernwontons/geolocate/internal/geolocation"
	"github.com/westernwontons/geolocate/internal/input"
	"github.com/westernwontons/geolocate/internal/logging"
	"github.com/westernwontons/geolocate/internal/output"
	"github.com/westernwontons/geolocate/internal/provider"
	"github.com/westernwontons/geolocate/internal/report"
	"github.com/westernwontons/geolocate/internal/stats"
)

func lookupCmd(a *app, p provider.Provider) *cobra.Command {
	var (
		addrs     []string
		file      string
		reportDir string
	)

	cmd := &cobra.Command{
		Use:   p.String() + " [ADDR...]",
		Short: fmt.Sprintf("Use the %s API", p),
		Long: fmt.Sprintf(`Fetch geolocation data from the %[1]s API.

Addresses come either from --addrs (and extra arguments) or from --file,
which holds one IPv4 or IPv6 address per line. Several addresses are
looked up concurrently and printed as one JSON array in input order.

Examples:
  geolocate %[1]s --addrs 1.1.1.1
  geolocate %[1]s -a 1.1.1.1 8.8.8.8 2001:4860:4860::8888
  geolocate %[1]s --file ips.txt
  geolocate %[1]s --file ips.txt --report reports`, p),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := append(append([]string{}, addrs...), args...)
			parsed, err := input.ParseAddresses(values)
			if err != nil {
				return err
			}

			opts := input.Options{
				Addresses:    parsed,
				AddressesSet: cmd.Flags().Changed("addrs") || len(args) > 0,
				File:         file,
			}
			return a.runLookup(cmd, p, opts, reportDir)
		},
	}

	cmd.Flags().StringSliceVarP(&addrs, "addrs", "a", nil, "IP addresses to look up, IPv4 or IPv6")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File to read newline separated IP addresses from")
	cmd.Flags().StringVar(&reportDir, "report", "", "Also save the results as a timestamped JSON report in this directory")

	return cmd
}

func (a *app) runLookup(cmd *cobra.Command, p provider.Provider, opts input.Options, reportDir string) error {
	mode, err := input.Validate(opts)
	if err != nil {
		return err
	}

	addrs, err := input.Resolve(mode, opts)
	if err != nil {
		return err
	}

	// Credentials are read after the addresses so a bad address file is
	// reported even when no key is configured. Nothing is sent without a key.
	store, err := a.loadStore()
	if err != nil {
		return err
	}
	apiKey, err := store.Token(p)
	if err != nil {
		return err
	}

	a.logger.Debug().
		Str("provider", p.String()).
		Str("mode", mode.String()).
		Int("addresses", len(addrs)).
		Msg("starting lookup")

	var latencies stats.Recorder
	client := geolocation.NewClient(a.httpClient, logging.WithComponent(a.logger, "fetch")).Record(&latencies)
	fetcher := &geolocation.Fetcher{
		Client:    client,
		Provider:  p,
		APIKey:    apiKey,
		Endpoints: a.endpoints(),
	}

	results, err := fetcher.Fetch(cmd.Context(), addrs)
	summary := latencies.Summary()
	a.logger.Debug().
		Int("answered", summary.Count).
		Dur("p50", summary.P50).
		Dur("p95", summary.P95).
		Dur("max", summary.Max).
		Msg("lookup finished")
	if err != nil {
		return err
	}

	if err := output.RenderJSON(cmd.OutOrStdout(), results, output.ColorsEnabled()); err != nil {
		return err
	}

	if reportDir == "" {
		return nil
	}
	path, err := report.New(time.Now(), p.String(), addrs, summary, results).Write(reportDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "JSON report written to: %s\n", path)
	return nil
}
