package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/notos/internal/plugin"
	"github.com/dshills/notos/internal/ui"
)

// Output formats for plugins list.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

func newPluginsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect plugins",
	}
	cmd.AddCommand(newPluginsListCmd(flags))
	return cmd
}

func newPluginsListCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load plugins and list them",
		Long: `Load every plugin the editor would load, print them in load order and
unload them again. Libraries that fail to load are reported in the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case formatText, formatYAML, formatJSON:
			default:
				return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
			}

			application, err := flags.newApp(cmd, "")
			if err != nil {
				return err
			}
			defer application.Shutdown()

			if err := application.Start(ui.NewHeadless()); err != nil {
				return err
			}

			var infos []plugin.Info
			if m := application.Plugins(); m != nil {
				infos = m.List()
			}
			return writePluginList(cmd.OutOrStdout(), format, infos)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format (text, yaml, json)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formatText, formatYAML, formatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func writePluginList(w io.Writer, format string, infos []plugin.Info) error {
	if infos == nil {
		infos = []plugin.Info{}
	}

	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "No plugins loaded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSOURCE")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Name, info.Path)
	}
	return tw.Flush()
}
