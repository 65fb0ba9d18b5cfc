package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/relgraph/internal/config"
	"github.com/recera/relgraph/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        *config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "relgraph",
		Short: "relgraph - interactive relationship graphs for data catalogs",
		Long: `relgraph lays out the resources of a data catalog and the typed relations
between them as a force-directed graph. Render it to PNG or SVG, serve it
over HTTP and WebSocket, or explore it in the terminal.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to relgraph.toml")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")

	// Add commands
	rootCmd.AddCommand(newRenderCommand(g))
	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newExploreCommand(g))
	rootCmd.AddCommand(newInspectCommand(g))

	return rootCmd
}

// load reads the configuration and installs the logger. Flags win over the
// file and the environment.
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if _, err := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

// datasetPath picks the positional argument over the configured path.
func (g *globals) datasetPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if g.cfg.Dataset.Path != "" {
		return g.cfg.Dataset.Path, nil
	}
	return "", fmt.Errorf("no dataset: pass a file or set dataset.path in %s", config.DefaultFile)
}
