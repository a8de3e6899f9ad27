package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/westernwontons/geolocate/internal/config"
	"github.com/westernwontons/geolocate/internal/editor"
	"github.com/westernwontons/geolocate/internal/env"
	"github.com/westernwontons/geolocate/internal/output"
)

var (
	ErrShowEditExclusive = errors.New("arguments --edit and --show are mutually exclusive")
	ErrShowEditMissing   = errors.New("either --edit or --show has to be provided")
	ErrBadAssignment     = errors.New("expected NAME=KEY")
)

type configAction int

const (
	actionShow configAction = iota
	actionEdit
)

// pickConfigAction enforces that exactly one of --show and --edit is set.
func pickConfigAction(show, edit bool) (configAction, error) {
	switch {
	case show && edit:
		return 0, ErrShowEditExclusive
	case show:
		return actionShow, nil
	case edit:
		return actionEdit, nil
	default:
		return 0, ErrShowEditMissing
	}
}

func configCmd(a *app) *cobra.Command {
	var (
		show      bool
		edit      bool
		printPath bool
		set       []string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
		Long: `Show or edit the file holding the API key of each provider.

The file is created from a template on first use. --edit opens it in
$EDITOR (nano when unset) and validates it once the editor exits.

Examples:
  geolocate config --show
  geolocate config --edit
  geolocate config --set ip2location=YOUR_KEY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolveConfigPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if printPath {
				fmt.Fprintln(out, path)
				return nil
			}

			if len(set) > 0 {
				if err := a.setKeys(path, set); err != nil {
					return err
				}
				if !show && !edit {
					fmt.Fprintf(out, "Configuration saved to %s\n", path)
					return nil
				}
			}

			action, err := pickConfigAction(show, edit)
			if err != nil {
				return err
			}

			switch action {
			case actionShow:
				store, err := a.loadStore()
				if err != nil {
					return err
				}
				output.RenderKeys(out, path, store.Pairs())
				return nil
			default:
				return a.editConfig(cmd, path)
			}
		},
	}

	cmd.Flags().BoolVarP(&show, "show", "s", false, "Print the configured API keys")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Open the configuration file in $EDITOR")
	cmd.Flags().BoolVar(&printPath, "print-path", false, "Print the configuration file path and exit")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Store an API key as NAME=KEY (repeatable)")

	return cmd
}

func (a *app) setKeys(path string, assignments []string) error {
	store, err := config.Load(path)
	if err != nil {
		return err
	}

	for _, assignment := range assignments {
		name, key, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("%w, got %q", ErrBadAssignment, assignment)
		}
		if err := store.Set(name, key); err != nil {
			return err
		}
	}

	if err := config.Save(path, store); err != nil {
		return err
	}
	a.logger.Debug().Str("path", path).Int("keys", len(assignments)).Msg("configuration saved")
	return nil
}

func (a *app) editConfig(cmd *cobra.Command, path string) error {
	if err := config.Ensure(path); err != nil {
		return err
	}

	ed := editor.New(env.Editor())
	ed.Stdout = cmd.OutOrStdout()
	ed.Stderr = cmd.ErrOrStderr()
	a.logger.Debug().Str("editor", ed.Command).Str("path", path).Msg("opening editor")

	if err := ed.Open(cmd.Context(), path); err != nil {
		return err
	}

	_, err := a.loadStore()
	return err
}
