package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recera/relgraph/cmd/relgraph/internal/ui"
	"github.com/recera/relgraph/internal/logging"
	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
)

func newExploreCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [dataset]",
		Short: "Explore the graph in the terminal",
		Long: `Opens a full-screen terminal view of the graph. Click a node to select it,
drag to pan, scroll to zoom; press ? for the key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.datasetPath(args)
			if err != nil {
				return err
			}
			ds, err := dataset.Load(path)
			if err != nil {
				return err
			}

			// The terminal UI owns the screen while it runs.
			slog.SetDefault(logging.Discard())
			v, err := newViewer(g.cfg, ds, graphviewer.Viewport{}, nil, nil)
			if err != nil {
				return err
			}
			if err := v.Start(); err != nil {
				return err
			}
			defer v.Stop()

			p := tea.NewProgram(ui.NewModel(v), tea.WithAltScreen(), tea.WithMouseAllMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("explore: %w", err)
			}
			return nil
		},
	}
	return cmd
}
