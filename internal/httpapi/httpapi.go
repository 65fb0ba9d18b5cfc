// Package httpapi exposes a Viewer over HTTP: scene JSON, rendered PNG and
// SVG frames, pointer and view commands, settings and the live WebSocket.
package httpapi

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recera/relgraph/internal/cache"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/live"
	"github.com/recera/relgraph/pkg/renderer/raster"
	"github.com/recera/relgraph/pkg/renderer/svg"
)

const (
	defaultWidth     = 800
	defaultHeight    = 600
	maxDimension     = 4096
	defaultFocusZoom = 1.5
)

// Options configures the Handler. Zero values take defaults.
type Options struct {
	Cache           *cache.Cache
	Live            *live.Server
	AllowAllOrigins bool
	AllowOrigins    []string
	FitPadding      float64
	Version         string
	Logger          *slog.Logger
}

// Handler serves one Viewer.
type Handler struct {
	viewer  *graphviewer.Viewer
	cache   *cache.Cache
	live    *live.Server
	opts    Options
	logger  *slog.Logger
	started time.Time
}

// New creates a Handler for v.
func New(v *graphviewer.Viewer, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FitPadding <= 0 {
		opts.FitPadding = graphviewer.DefaultFitPadding
	}
	return &Handler{
		viewer:  v,
		cache:   opts.Cache,
		live:    opts.Live,
		opts:    opts,
		logger:  logger.With("component", "httpapi"),
		started: time.Now(),
	}
}

// Router builds a gin engine with logging, recovery, CORS and every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(h.logger), corsMiddleware(h.opts))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches the handler's routes to r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.GET("/scene", h.scene)
	api.GET("/frame.png", h.framePNG)
	api.GET("/frame.svg", h.frameSVG)
	api.POST("/pointer", h.pointer)
	api.POST("/view/zoom", h.zoom)
	api.POST("/view/reset", h.reset)
	api.POST("/view/fit", h.fit)
	api.POST("/view/focus/:id", h.focus)
	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.putSettings)
	api.DELETE("/cache", h.purgeCache)

	if h.live != nil {
		r.GET("/live/:session", func(c *gin.Context) {
			h.live.Serve(c.Writer, c.Request, c.Param("session"))
		})
	}
}

func (h *Handler) health(c *gin.Context) {
	f := h.viewer.Frame()
	body := gin.H{
		"status":  "healthy",
		"version": h.opts.Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"seq":     f.Seq,
		"nodes":   len(f.Nodes),
		"edges":   len(f.Edges),
		"atRest":  f.AtRest,
		"running": h.viewer.Running(),
	}
	if h.live != nil {
		body["sessions"] = h.live.Sessions()
	}
	if h.cache != nil {
		body["cache"] = h.cache.GetStats()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) scene(c *gin.Context) {
	c.JSON(http.StatusOK, toScene(h.viewer.Frame()))
}

func (h *Handler) framePNG(c *gin.Context) {
	h.frame(c, "png", "image/png", raster.RenderPNG)
}

func (h *Handler) frameSVG(c *gin.Context) {
	h.frame(c, "svg", "image/svg+xml", svg.RenderSVG)
}

type renderFunc func(w io.Writer, f *graphviewer.Frame, display graphviewer.DisplaySettings, width, height int) error

// frame renders the current frame. Frames of a resting layout are cached by
// digest and size; ETag lets clients skip unchanged frames entirely.
func (h *Handler) frame(c *gin.Context, format, contentType string, render renderFunc) {
	f := h.viewer.Frame()
	width, height, err := frameSize(c, f.Viewport)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	digest := f.Digest()
	etag := `"` + digest[:16] + "-" + strconv.Itoa(width) + "x" + strconv.Itoa(height) + "." + format + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	key := format + "/" + cache.Key(digest, strconv.Itoa(width), strconv.Itoa(height))
	if h.cache != nil && f.AtRest {
		if entry, ok := h.cache.Get(key); ok {
			c.Header("X-Cache", "hit")
			c.Data(http.StatusOK, entry.ContentType, entry.Data)
			return
		}
	}

	var buf bytes.Buffer
	if err := render(&buf, f, f.Display(h.viewer.Theme()), width, height); err != nil {
		h.logger.Error("render frame", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	data := buf.Bytes()
	if h.cache != nil && f.AtRest {
		if err := h.cache.Put(key, contentType, data); err != nil {
			h.logger.Warn("cache frame", "format", format, "error", err)
		}
	}
	c.Header("X-Cache", "miss")
	c.Data(http.StatusOK, contentType, data)
}

// frameSize reads width and height query parameters, defaulting to the
// viewer's viewport and then to 800x600.
func frameSize(c *gin.Context, vp graphviewer.Viewport) (int, int, error) {
	width, height := defaultWidth, defaultHeight
	if vp.Ready() {
		width, height = int(vp.Width), int(vp.Height)
	}
	var err error
	if s := c.Query("width"); s != "" {
		if width, err = strconv.Atoi(s); err != nil {
			return 0, 0, errors.New("invalid width")
		}
	}
	if s := c.Query("height"); s != "" {
		if height, err = strconv.Atoi(s); err != nil {
			return 0, 0, errors.New("invalid height")
		}
	}
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return 0, 0, errors.New("size out of range")
	}
	return width, height, nil
}

func (h *Handler) pointer(c *gin.Context) {
	var req pointerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	pt, err := graphviewer.ParsePointerType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	evt := graphviewer.PointerEvent{Type: pt, X: req.X, Y: req.Y, Delta: req.Delta}
	if err := evt.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.viewer.Handle(evt)
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": toView(h.viewer.Frame())})
}

func (h *Handler) zoom(c *gin.Context) {
	var req zoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	switch {
	case req.Zoom != nil:
		h.viewer.SetZoom(*req.Zoom)
	case req.Direction == "in":
		h.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.ZoomIn})
	case req.Direction == "out":
		h.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.ZoomOut})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "zoom or direction required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": toView(h.viewer.Frame())})
}

func (h *Handler) reset(c *gin.Context) {
	h.viewer.ResetView()
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": toView(h.viewer.Frame())})
}

func (h *Handler) fit(c *gin.Context) {
	h.viewer.FitGraph(h.opts.FitPadding)
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": toView(h.viewer.Frame())})
}

func (h *Handler) focus(c *gin.Context) {
	req := focusReq{Zoom: defaultFocusZoom}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
			return
		}
	}
	id := graphviewer.NodeID(c.Param("id"))
	if err := h.viewer.FocusNode(id, req.Zoom); err != nil {
		if errors.Is(err, graphviewer.ErrUnknownNode) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": toView(h.viewer.Frame())})
}

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": toSettings(h.viewer.Settings())})
}

func (h *Handler) putSettings(c *gin.Context) {
	var patch settingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	s, err := patch.apply(h.viewer.Settings())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if patch.Filter != nil {
		h.viewer.SetFilter(patch.Filter.filter())
	}
	h.viewer.SetSettings(s)
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": toSettings(h.viewer.Settings())})
}

// purgeCache drops cached frames, all of them or one format's.
func (h *Handler) purgeCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "frame cache disabled"})
		return
	}
	format := c.Query("format")
	removed := 0
	switch format {
	case "":
		removed = h.cache.GetStats().EntryCount
		h.cache.Clear()
	case "png", "svg":
		removed = h.cache.InvalidatePrefix(format + "/")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown format " + format})
		return
	}
	h.logger.Info("frame cache purged", "format", format, "removed", removed)
	c.JSON(http.StatusOK, gin.H{"ok": true, "removed": removed})
}
