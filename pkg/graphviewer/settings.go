package graphviewer

import (
	"image/color"

	"github.com/recera/relgraph/pkg/dataset"
)

const (
	MinRelationStrength = 10
	MaxRelationStrength = 100
	MinNodeSize         = 10
	MaxNodeSize         = 40
)

// Settings is the user-facing filter and display state.
type Settings struct {
	ShowCategories bool
	ShowLabels     bool
	// RelationsOnly hides category nodes even when ShowCategories is set.
	RelationsOnly    bool
	RelationStrength float64 // 10-100
	NodeSize         float64 // 10-40
	RelationTypes    dataset.RelationSet
}

// DefaultSettings returns the settings a fresh view starts with.
func DefaultSettings() Settings {
	return Settings{
		ShowCategories:   false,
		ShowLabels:       true,
		RelationStrength: 50,
		NodeSize:         20,
		RelationTypes:    dataset.AllRelationSet(),
	}
}

// Clamp pulls numeric settings into their allowed ranges.
func (s Settings) Clamp() Settings {
	s.RelationStrength = clamp(s.RelationStrength, MinRelationStrength, MaxRelationStrength)
	s.NodeSize = clamp(s.NodeSize, MinNodeSize, MaxNodeSize)
	return s
}

// sceneChanged reports whether moving from s to o requires a scene rebuild.
func (s Settings) sceneChanged(o Settings) bool {
	if s.ShowCategories != o.ShowCategories || s.RelationsOnly != o.RelationsOnly || s.NodeSize != o.NodeSize {
		return true
	}
	a, b := s.RelationTypes.Names(), o.RelationTypes.Names()
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// SceneOptions derives scene builder options.
func (s Settings) SceneOptions() SceneOptions {
	return SceneOptions{
		ShowCategories: s.ShowCategories,
		RelationsOnly:  s.RelationsOnly,
		RelationTypes:  s.RelationTypes,
		NodeSize:       s.NodeSize,
	}
}

// Layout returns base with the attraction constant derived from
// RelationStrength.
func (s Settings) Layout(base LayoutSettings) LayoutSettings {
	base.Attraction = s.Clamp().RelationStrength / 100
	return base
}

// LayoutSettings are the physics constants of the simulation.
type LayoutSettings struct {
	Repulsion   float64 // default 1000
	Attraction  float64 // default 0.5 (relation strength 50)
	DT          float64 // default 0.1
	MaxDistance float64 // default 400
	MinDistance float64 // default 1
	// Epsilon enables the at-rest shortcut when positive: once a tick moves
	// the nodes less than Epsilon in total, recomputation is skipped.
	Epsilon float64
}

// DefaultLayoutSettings returns the default physics constants.
func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		Repulsion:   1000,
		Attraction:  0.5,
		DT:          0.1,
		MaxDistance: 400,
		MinDistance: 1,
	}
}

func (o LayoutSettings) withDefaults() LayoutSettings {
	d := DefaultLayoutSettings()
	if o.Repulsion > 0 {
		d.Repulsion = o.Repulsion
	}
	if o.Attraction > 0 {
		d.Attraction = o.Attraction
	}
	if o.DT > 0 {
		d.DT = o.DT
	}
	if o.MaxDistance > 0 {
		d.MaxDistance = o.MaxDistance
	}
	if o.MinDistance > 0 {
		d.MinDistance = o.MinDistance
	}
	if o.Epsilon > 0 {
		d.Epsilon = o.Epsilon
	}
	return d
}

// Theme holds the renderer's fixed colors.
type Theme struct {
	Background   color.NRGBA
	SelectedRing color.NRGBA
	HoveredRing  color.NRGBA
	Label        color.NRGBA
	LabelSize    float64
}

// DefaultTheme returns the light console theme.
func DefaultTheme() Theme {
	return Theme{
		Background:   color.NRGBA{0xff, 0xff, 0xff, 0xff},
		SelectedRing: color.NRGBA{0x25, 0x63, 0xeb, 0xff}, // blue
		HoveredRing:  color.NRGBA{0x9c, 0xa3, 0xaf, 0xff}, // gray
		Label:        color.NRGBA{0x1f, 0x29, 0x37, 0xff},
		LabelSize:    12,
	}
}

// DisplaySettings controls per-frame drawing.
type DisplaySettings struct {
	ShowLabels bool
	Theme      Theme
}

// DefaultDisplaySettings shows labels with the default theme.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{ShowLabels: true, Theme: DefaultTheme()}
}

// relationColors colors edges by relation kind.
var relationColors = map[dataset.RelationKind]color.NRGBA{
	dataset.Dependency:     {0xf9, 0x73, 0x16, 0xff},
	dataset.Similarity:     {0x3b, 0x82, 0xf6, 0xff},
	dataset.Derivation:     {0xa8, 0x55, 0xf7, 0xff},
	dataset.Usage:          {0x10, 0xb9, 0x81, 0xff},
	dataset.Composition:    {0xea, 0xb3, 0x08, 0xff},
	dataset.Classification: {0x94, 0xa3, 0xb8, 0xff},
}

// RelationColor returns the edge color of a relation kind.
func RelationColor(k dataset.RelationKind) color.NRGBA {
	if c, ok := relationColors[k]; ok {
		return c
	}
	return relationColors[dataset.Classification]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
