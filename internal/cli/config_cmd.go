package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/weekplan/internal/config"
)

func newConfigCmd(rt *Runtime) *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Prints file values merged with WEEKPLAN_* environment overrides. API keys are redacted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.App().Config
			if cfg == nil {
				return errors.New("no configuration loaded")
			}
			if showPath {
				path := rt.flags.ConfigPath
				if path == "" {
					path = config.DefaultPath(cfg.Home)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&showPath, "path", false, "Print the config file location only")

	return cmd
}
