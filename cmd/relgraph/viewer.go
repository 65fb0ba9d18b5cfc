package main

import (
	"log/slog"

	"github.com/recera/relgraph/internal/config"
	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/scheduler"
)

// newViewer builds a viewer from the configuration. A nil ticker uses the
// real interval scheduler.
func newViewer(cfg *config.Config, ds *dataset.Dataset, vp graphviewer.Viewport, ticker scheduler.Ticker, onSelect func(graphviewer.SelectionEvent)) (*graphviewer.Viewer, error) {
	settings, err := cfg.ViewerSettings()
	if err != nil {
		return nil, err
	}
	theme := cfg.Theme()
	return graphviewer.NewViewer(ds, graphviewer.ViewerOptions{
		Settings:       &settings,
		Layout:         cfg.LayoutSettings(),
		Filter:         cfg.Filter(),
		Theme:          &theme,
		Viewport:       vp,
		TickInterval:   cfg.Viewer.TickInterval.Duration,
		Ticker:         ticker,
		OnNodeSelected: onSelect,
		Logger:         slog.Default(),
	}), nil
}
