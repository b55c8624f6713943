package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/notos/internal/ui"
)

type applyFlags struct {
	menus  []string
	sel    string
	output string
	stdout bool
}

func newApplyCmd(flags *globalFlags) *cobra.Command {
	af := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Run plugin menu entries on a file without a terminal",
		Long: `Load plugins, click the given menu entries in order against the file and
write the result back.

Menu paths separate levels with " > ":

  notos apply notes.txt --menu "Edit > Uppercase"
  notos apply data.json --select 10:42 --menu "Plugins > Format JSON" --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, flags, af, args[0])
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&af.menus, "menu", nil, "menu path to click (repeatable)")
	f.StringVar(&af.sel, "select", "", "byte range START:END to select before clicking")
	f.StringVarP(&af.output, "output", "o", "", "write the result here instead of the input file")
	f.BoolVar(&af.stdout, "stdout", false, "print the result instead of writing a file")
	_ = cmd.MarkFlagRequired("menu")
	return cmd
}

func runApply(cmd *cobra.Command, flags *globalFlags, af *applyFlags, file string) error {
	application, err := flags.newApp(cmd, file)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	doc := application.Document()
	if af.sel != "" {
		start, end, err := parseRange(af.sel)
		if err != nil {
			return err
		}
		if end > len(doc.Content()) {
			return fmt.Errorf("selection %s is past the end of %s (%d bytes)", af.sel, file, len(doc.Content()))
		}
		doc.Select(start, end)
	}

	h := ui.NewHeadless()
	if err := application.Start(h); err != nil {
		return err
	}

	for _, menu := range af.menus {
		if _, err := application.ApplyMenu(h, ui.SplitPath(menu)...); err != nil {
			return err
		}
	}

	if af.stdout {
		_, err := io.WriteString(cmd.OutOrStdout(), doc.Content())
		return err
	}
	if af.output != "" {
		return doc.SaveAs(af.output)
	}
	if doc.IsModified() {
		return doc.Save()
	}
	return nil
}

// parseRange parses "START:END" into byte offsets.
func parseRange(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: want START:END", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", a, err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", b, err)
	}
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("invalid range %q: want 0 <= START <= END", s)
	}
	return start, end, nil
}
