package main

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recera/relgraph/internal/config"
	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/renderer/headless"
	"github.com/recera/relgraph/pkg/scheduler"
)

// sceneStats summarizes a dataset and the scene built from it.
type sceneStats struct {
	Resources     int
	Relations     int
	Categories    int
	Memberships   int
	Included      int
	Nodes         int
	CategoryNodes int
	Edges         int
	Dropped       int
	EdgesByKind   map[dataset.RelationKind]int
	Ticks         int
	Extent        float64
	AtRest        bool
	Lines         int
	Circles       int
	Labels        int
}

func newInspectCommand(g *globals) *cobra.Command {
	var ticks int

	cmd := &cobra.Command{
		Use:   "inspect [dataset]",
		Short: "Print dataset and scene statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.datasetPath(args)
			if err != nil {
				return err
			}
			ds, err := dataset.Load(path)
			if err != nil {
				return err
			}
			stats, err := inspectDataset(g.cfg, ds, ticks)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), path, stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 0, "Layout ticks to run before measuring")
	return cmd
}

// inspectDataset builds the scene the viewer would show, optionally runs
// the layout, and draws one frame onto a recording surface.
func inspectDataset(cfg *config.Config, ds *dataset.Dataset, ticks int) (sceneStats, error) {
	stats := sceneStats{
		Resources:   len(ds.Resources),
		Relations:   len(ds.Relations),
		Categories:  len(ds.Categories),
		Memberships: len(ds.Memberships),
		EdgesByKind: make(map[dataset.RelationKind]int),
		Ticks:       ticks,
	}

	vp := graphviewer.Viewport{Width: float64(cfg.Render.Width), Height: float64(cfg.Render.Height)}
	ticker := scheduler.NewManual()
	v, err := newViewer(cfg, ds, vp, ticker, nil)
	if err != nil {
		return stats, err
	}
	if err := v.Start(); err != nil {
		return stats, err
	}
	defer v.Stop()
	ticker.Step(ticks)

	stats.Included = len(cfg.Filter().Apply(*ds).Resources)

	f := v.Frame()
	stats.Nodes = len(f.Nodes)
	stats.Edges = len(f.Edges)
	stats.AtRest = f.AtRest
	categories := make(map[graphviewer.NodeID]bool)
	for _, n := range f.Nodes {
		if _, ok := n.Kind.(graphviewer.CategoryNode); ok {
			categories[n.ID] = true
			stats.CategoryNodes++
		}
		stats.Extent = math.Max(stats.Extent, math.Hypot(n.X, n.Y))
	}
	relationEdges := 0
	for _, e := range f.Edges {
		stats.EdgesByKind[e.Kind]++
		if !categories[e.Source] && !categories[e.Target] {
			relationEdges++
		}
	}
	stats.Dropped = stats.Relations - relationEdges

	rec := headless.NewRecorder(vp.Width, vp.Height)
	v.FitGraph(cfg.Render.FitPadding)
	v.Render(rec)
	stats.Lines = rec.Count(headless.OpLine)
	stats.Circles = rec.Count(headless.OpFillCircle)
	stats.Labels = rec.Count(headless.OpText)
	return stats, nil
}

func printStats(w io.Writer, path string, s sceneStats) {
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	label := color.New(color.Faint).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	row := func(name string, value any) {
		fmt.Fprintf(w, "  %-16s %v\n", label(name), value)
	}

	fmt.Fprintln(w, title("dataset"), path)
	row("resources", s.Resources)
	row("relations", s.Relations)
	row("categories", s.Categories)
	row("memberships", s.Memberships)
	row("included", s.Included)

	fmt.Fprintln(w, title("scene"))
	row("nodes", fmt.Sprintf("%d (%d categories)", s.Nodes, s.CategoryNodes))
	row("edges", s.Edges)
	kinds := make([]string, 0, len(s.EdgesByKind))
	for k := range s.EdgesByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		row("  "+k, s.EdgesByKind[dataset.RelationKind(k)])
	}
	if s.Dropped > 0 {
		row("dropped", warn(fmt.Sprintf("%d relations (unselected kind or missing endpoint)", s.Dropped)))
	}

	fmt.Fprintln(w, title("layout"))
	row("ticks", s.Ticks)
	row("extent", fmt.Sprintf("%.1f", s.Extent))
	row("at rest", s.AtRest)

	fmt.Fprintln(w, title("frame"))
	row("lines", s.Lines)
	row("circles", s.Circles)
	row("labels", s.Labels)
}
