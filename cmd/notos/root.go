package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/notos/internal/app"
	"github.com/dshills/notos/internal/config"
	"github.com/dshills/notos/internal/ui"
)

// globalFlags are the flags shared by every command.
type globalFlags struct {
	configPath string
	pluginDirs []string
	libraries  []string
	noPlugins  bool
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "notos [file]",
		Short: "A small text editor with loadable plugins",
		Long: `notos is a terminal text editor extended by plugins.

Plugins are Go plugin libraries (.so, .dylib) and Lua scripts (.lua) found in
the plugin directories. They add menus and windows and edit the document
through actions.

Keys:
  F10        open the menu bar
  Ctrl-S     save
  Ctrl-Z     undo
  Ctrl-A     select all
  Ctrl-Q     quit`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runEditor(cmd, flags, file)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	pf.StringArrayVar(&flags.pluginDirs, "plugin-dir", nil, "plugin directory to scan (repeatable, replaces the configured directories)")
	pf.StringArrayVar(&flags.libraries, "plugin", nil, "plugin library to load (repeatable)")
	pf.BoolVar(&flags.noPlugins, "no-plugins", false, "do not load plugins")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")

	cmd.AddCommand(
		newPluginsCmd(flags),
		newApplyCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration and applies the command-line flags.
func (f *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, explicit := f.configPath, f.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}

	if changed(cmd, "plugin-dir") {
		cfg.Plugins.Dirs = f.pluginDirs
	}
	cfg.Plugins.Libraries = append(cfg.Plugins.Libraries, f.libraries...)
	if f.noPlugins {
		cfg.Plugins.Enabled = false
	}
	if changed(cmd, "log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed(cmd, "log-file") {
		cfg.Log.File = f.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads the configuration and creates the application. Logs go to
// the command's stderr unless a log file is configured.
func (f *globalFlags) newApp(cmd *cobra.Command, file string) (*app.Application, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(app.Options{
		Config:    cfg,
		File:      file,
		LogOutput: cmd.ErrOrStderr(),
	})
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && flag.Changed
}

// runEditor runs the terminal editor until the user quits.
func runEditor(cmd *cobra.Command, flags *globalFlags, file string) error {
	application, err := flags.newApp(cmd, file)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	term, err := ui.NewTerminal(application.Config().Editor.TabWidth)
	if err != nil {
		return err
	}

	// Terminal signals end the session the same way Ctrl-Q does.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-signals:
			_ = term.RequestQuit()
		case <-done:
		}
	}()

	return application.Run(term)
}
