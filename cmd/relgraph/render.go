package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/renderer/raster"
	"github.com/recera/relgraph/pkg/renderer/svg"
	"github.com/recera/relgraph/pkg/scheduler"
)

type renderOptions struct {
	output string
	format string
	width  int
	height int
	ticks  int
	fit    bool
	focus  string
}

func newRenderCommand(g *globals) *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Lay out a dataset headlessly and write a PNG or SVG",
		Long: `Runs the force-directed layout for a fixed number of ticks without a
display and writes the final frame. The format follows --format, then the
output extension, then render.format from the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.datasetPath(args)
			if err != nil {
				return err
			}
			rc := g.cfg.Render
			if !cmd.Flags().Changed("width") {
				opts.width = rc.Width
			}
			if !cmd.Flags().Changed("height") {
				opts.height = rc.Height
			}
			if !cmd.Flags().Changed("ticks") {
				opts.ticks = rc.Ticks
			}
			return runRender(g, path, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "graph.png", "Output file, - for stdout")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (png, svg)")
	cmd.Flags().IntVar(&opts.width, "width", 800, "Image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 600, "Image height in pixels")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 300, "Layout ticks to run before rendering")
	cmd.Flags().BoolVar(&opts.fit, "fit", true, "Fit the graph into the image")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "Center and select this node id")

	return cmd
}

func runRender(g *globals, path string, opts renderOptions, stdout, stderr io.Writer) error {
	format, err := outputFormat(opts.format, opts.output, g.cfg.Render.Format)
	if err != nil {
		return err
	}
	if opts.ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", opts.ticks)
	}

	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}

	vp := graphviewer.Viewport{Width: float64(opts.width), Height: float64(opts.height)}
	ticker := scheduler.NewManual()
	v, err := newViewer(g.cfg, ds, vp, ticker, nil)
	if err != nil {
		return err
	}
	if err := v.Start(); err != nil {
		return err
	}
	defer v.Stop()
	ticker.Step(opts.ticks)

	if opts.fit {
		v.FitGraph(g.cfg.Render.FitPadding)
	}
	if opts.focus != "" {
		if err := v.FocusNode(graphviewer.NodeID(opts.focus), v.Frame().Transform.Zoom); err != nil {
			return fmt.Errorf("focus %s: %w", opts.focus, err)
		}
		f := v.Frame()
		if n, ok := f.Node(graphviewer.NodeID(opts.focus)); ok {
			sx, sy := f.Transform.ToScreen(f.Viewport, n.X, n.Y)
			v.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerDown, X: sx, Y: sy})
			v.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerUp, X: sx, Y: sy})
		}
	}

	f := v.Frame()
	display := f.Display(v.Theme())

	var out io.Writer = stdout
	if opts.output != "-" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	switch format {
	case "svg":
		err = svg.RenderSVG(out, f, display, opts.width, opts.height)
	default:
		err = raster.RenderPNG(out, f, display, opts.width, opts.height)
	}
	if err != nil {
		return err
	}

	if opts.output != "-" {
		ok := color.New(color.FgGreen, color.Bold).SprintFunc()
		dim := color.New(color.Faint).SprintFunc()
		fmt.Fprintf(stderr, "%s %d nodes, %d edges %s %s\n",
			ok("✓ rendered"), len(f.Nodes), len(f.Edges),
			dim(fmt.Sprintf("(%d ticks, zoom %.2f) →", opts.ticks, f.Transform.Zoom)), opts.output)
	}
	return nil
}

// outputFormat resolves the format: explicit flag, output extension, then
// the configured default.
func outputFormat(flag, output, fallback string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = strings.ToLower(fallback)
		}
	}
	switch format {
	case "png", "svg":
		return format, nil
	}
	return "", fmt.Errorf("unsupported output format %q", format)
}
