package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/notos/internal/config"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after the file, NOTOS_* environment variables and
flags have been applied, in the config file's TOML format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showPath {
				path := flags.configPath
				if path == "" {
					path = config.DefaultPath()
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}

			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&showPath, "path", false, "print the config file path only")
	return cmd
}
