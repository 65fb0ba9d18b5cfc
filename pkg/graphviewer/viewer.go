package graphviewer

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/reactive"
	"github.com/recera/relgraph/pkg/scheduler"
)

// DefaultTickInterval is the layout step interval (20 Hz).
const DefaultTickInterval = 50 * time.Millisecond

// DefaultFitPadding is the margin FitGraph keeps around the graph.
const DefaultFitPadding = 40

// ViewerOptions configures a Viewer. Zero values take defaults.
type ViewerOptions struct {
	Settings     *Settings
	Layout       LayoutSettings
	Filter       dataset.Filter
	Theme        *Theme
	Viewport     Viewport
	TickInterval time.Duration
	// Ticker drives the layout; nil uses a scheduler.Interval.
	Ticker scheduler.Ticker
	// OnNodeSelected is called synchronously, without viewer locks held,
	// whenever a click lands on a node.
	OnNodeSelected func(SelectionEvent)
	QualityColor   func(score float64) color.NRGBA
	Logger         *slog.Logger
}

// Viewer owns one scene, its layout simulation, the interaction controller
// and the ticker. Pointer input, settings changes and ticks may come from
// different goroutines; renderers read the last committed Frame.
type Viewer struct {
	mu       sync.Mutex
	logger   *slog.Logger
	source   *dataset.Dataset
	included *dataset.Dataset
	filter   dataset.Filter
	settings Settings
	base     LayoutSettings
	theme    Theme
	colorOf  func(float64) color.NRGBA
	sim      *Simulation
	ctrl     *Controller
	seq      uint64
	// selSeq is the Seq of the newest frame applied to selection. It is
	// only touched inside selection.UpdateIf.
	selSeq uint64

	ticker   scheduler.Ticker
	interval time.Duration
	onSelect func(SelectionEvent)

	front     atomic.Pointer[Frame]
	frames    *reactive.State[*Frame]
	selection *reactive.State[SelectionEvent]
}

// NewViewer builds the initial scene from ds. The layout does not move
// until Start is called or Tick is driven by hand.
func NewViewer(ds *dataset.Dataset, opts ViewerOptions) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := opts.Ticker
	if ticker == nil {
		ticker = scheduler.NewInterval(logger)
	}
	if ds == nil {
		ds = &dataset.Dataset{}
	}

	v := &Viewer{
		logger:    logger.With("component", "viewer"),
		source:    ds,
		filter:    opts.Filter,
		settings:  settings.Clamp(),
		base:      opts.Layout.withDefaults(),
		theme:     theme,
		colorOf:   opts.QualityColor,
		ticker:    ticker,
		interval:  interval,
		onSelect:  opts.OnNodeSelected,
		frames:    reactive.NewState[*Frame](nil),
		selection: reactive.NewState(SelectionEvent{}),
	}
	v.ctrl = NewController(nil)
	v.ctrl.SetViewport(opts.Viewport)

	v.mu.Lock()
	v.rebuildLocked()
	f := v.commitLocked()
	v.mu.Unlock()
	v.frames.Set(f)
	return v
}

// Start begins ticking the layout.
func (v *Viewer) Start() error {
	if err := v.ticker.Start(v.interval, v.Tick); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	v.logger.Debug("viewer started", "interval", v.interval)
	return nil
}

// Stop halts the ticker. It is safe to call more than once.
func (v *Viewer) Stop() {
	v.ticker.Stop()
	v.logger.Debug("viewer stopped")
}

// Running reports whether the ticker is active.
func (v *Viewer) Running() bool { return v.ticker.Running() }

// Tick advances the layout one step and publishes the new frame.
func (v *Viewer) Tick() {
	v.mu.Lock()
	moved := v.sim.Step()
	if moved == 0 && v.sim.AtRest() {
		v.mu.Unlock()
		return
	}
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// Frame returns the last committed frame. It never returns nil.
func (v *Viewer) Frame() *Frame { return v.front.Load() }

// Frames notifies subscribers of every committed frame.
func (v *Viewer) Frames() reactive.Signal[*Frame] { return v.frames }

// Selection holds the current selection; an empty NodeID means none.
func (v *Viewer) Selection() reactive.Signal[SelectionEvent] { return v.selection }

// Dataset returns the unfiltered dataset.
func (v *Viewer) Dataset() *dataset.Dataset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source
}

// Settings returns the current (clamped) settings.
func (v *Viewer) Settings() Settings {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settings
}

// Theme returns the render theme.
func (v *Viewer) Theme() Theme { return v.theme }

// SetDataset replaces the dataset and rebuilds the scene. Positions and
// interaction state reset; the view transform is kept.
func (v *Viewer) SetDataset(ds *dataset.Dataset) {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	v.mu.Lock()
	v.source = ds
	v.rebuildLocked()
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// SetFilter changes the resource filter and rebuilds the scene.
func (v *Viewer) SetFilter(f dataset.Filter) {
	v.mu.Lock()
	v.filter = f
	v.rebuildLocked()
	fr := v.commitLocked()
	v.mu.Unlock()
	v.publish(fr, nil)
}

// SetSettings applies new settings. Changes to categories, node size or
// relation types rebuild the scene; relation strength only retunes the
// running layout; label visibility only affects drawing.
func (v *Viewer) SetSettings(s Settings) {
	s = s.Clamp()
	v.mu.Lock()
	prev := v.settings
	v.settings = s
	if prev.sceneChanged(s) {
		v.rebuildLocked()
	} else {
		v.sim.SetSettings(s.Layout(v.base))
	}
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// Resize records the surface size used for hit-testing.
func (v *Viewer) Resize(vp Viewport) {
	v.mu.Lock()
	v.ctrl.SetViewport(vp)
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// Handle feeds one pointer event through the controller. A click on a node
// calls OnNodeSelected before Handle returns, on the caller's goroutine.
func (v *Viewer) Handle(evt PointerEvent) {
	v.mu.Lock()
	sel, ok := v.ctrl.Handle(v.sim.Nodes(), evt)
	f := v.commitLocked()
	v.mu.Unlock()
	var events []SelectionEvent
	if ok {
		events = []SelectionEvent{sel}
	}
	v.publish(f, events)
}

// FitGraph zooms and pans so that every node is visible.
func (v *Viewer) FitGraph(padding float64) {
	v.mu.Lock()
	v.ctrl.FitGraph(v.sim.Nodes(), padding)
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// ResetView restores identity zoom and pan.
func (v *Viewer) ResetView() {
	v.Handle(PointerEvent{Type: ResetView})
}

// SetZoom sets an absolute zoom level, clamped.
func (v *Viewer) SetZoom(z float64) {
	v.mu.Lock()
	v.ctrl.SetTransform(v.ctrl.Transform().WithZoom(z))
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// Pan shifts the view by dx, dy screen pixels.
func (v *Viewer) Pan(dx, dy float64) {
	v.mu.Lock()
	v.ctrl.SetTransform(v.ctrl.Transform().Panned(dx, dy))
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
}

// FocusNode centers the view on a node at the given zoom.
func (v *Viewer) FocusNode(id NodeID, zoom float64) error {
	v.mu.Lock()
	if err := v.ctrl.FocusNode(v.sim.Nodes(), id, zoom); err != nil {
		v.mu.Unlock()
		return err
	}
	f := v.commitLocked()
	v.mu.Unlock()
	v.publish(f, nil)
	return nil
}

// Render paints the current frame onto s.
func (v *Viewer) Render(s Surface) {
	f := v.Frame()
	Render(s, f, f.Display(v.theme))
}

func (v *Viewer) rebuildLocked() {
	ds := v.source
	if len(v.filter.Types) > 0 || v.filter.MinQuality > 0 || v.filter.Query != "" {
		filtered := v.filter.Apply(*ds)
		ds = &filtered
	}
	v.included = ds

	opts := v.settings.SceneOptions()
	opts.QualityColor = v.colorOf
	opts.Logger = v.logger
	scene := BuildScene(ds, opts)
	v.sim = NewSimulation(scene, v.settings.Layout(v.base))
	v.ctrl.ResetInteraction()
	v.logger.Debug("scene rebuilt", "nodes", len(scene.Nodes), "edges", len(scene.Edges))
}

func (v *Viewer) commitLocked() *Frame {
	v.seq++
	f := &Frame{
		Seq:         v.seq,
		Nodes:       v.sim.Nodes(),
		Edges:       v.sim.Edges(),
		Transform:   v.ctrl.Transform(),
		Viewport:    v.ctrl.Viewport(),
		Interaction: v.ctrl.State(),
		Settings:    v.settings,
		AtRest:      v.sim.AtRest(),
	}
	v.front.Store(f)
	return f
}

// publish runs after the lock is released. events are the selections made
// by the caller's own critical section; they are delivered here and nowhere
// else. Frames and the selection state only move forward in Seq, so a
// publish that loses the race to a newer one changes nothing.
func (v *Viewer) publish(f *Frame, events []SelectionEvent) {
	v.frames.UpdateIf(func(cur *Frame) (*Frame, bool) {
		if cur != nil && cur.Seq > f.Seq {
			return cur, false
		}
		return f, true
	})
	v.selection.UpdateIf(func(cur SelectionEvent) (SelectionEvent, bool) {
		if f.Seq < v.selSeq {
			return cur, false
		}
		v.selSeq = f.Seq
		if n := len(events); n > 0 {
			return events[n-1], true
		}
		if cur.NodeID == f.Interaction.SelectedID {
			return cur, false
		}
		// Cleared by a click on empty canvas or a rebuild.
		return f.selection(), true
	})
	if v.onSelect == nil {
		return
	}
	for _, evt := range events {
		v.onSelect(evt)
	}
}
