package httpapi

import (
	"fmt"
	"image/color"

	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
)

type nodeDTO struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Fill   string  `json:"fill"`
}

type edgeDTO struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

type transformDTO struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

type sceneDTO struct {
	Seq       uint64       `json:"seq"`
	AtRest    bool         `json:"atRest"`
	Nodes     []nodeDTO    `json:"nodes"`
	Edges     []edgeDTO    `json:"edges"`
	Transform transformDTO `json:"transform"`
	Selected  string       `json:"selected,omitempty"`
	Hovered   string       `json:"hovered,omitempty"`
	Digest    string       `json:"digest"`
}

type viewDTO struct {
	Seq       uint64       `json:"seq"`
	Transform transformDTO `json:"transform"`
	Selected  string       `json:"selected,omitempty"`
	Hovered   string       `json:"hovered,omitempty"`
	Dragging  bool         `json:"dragging"`
}

type settingsDTO struct {
	ShowCategories   bool     `json:"showCategories"`
	ShowLabels       bool     `json:"showLabels"`
	RelationsOnly    bool     `json:"relationsOnly"`
	RelationStrength float64  `json:"relationStrength"`
	NodeSize         float64  `json:"nodeSize"`
	RelationTypes    []string `json:"relationTypes"`
}

// settingsPatch is a partial update; nil fields keep their value.
type settingsPatch struct {
	ShowCategories   *bool      `json:"showCategories"`
	ShowLabels       *bool      `json:"showLabels"`
	RelationsOnly    *bool      `json:"relationsOnly"`
	RelationStrength *float64   `json:"relationStrength"`
	NodeSize         *float64   `json:"nodeSize"`
	RelationTypes    []string   `json:"relationTypes"`
	Filter           *filterDTO `json:"filter"`
}

type filterDTO struct {
	Types      []string `json:"types"`
	MinQuality float64  `json:"minQuality"`
	Query      string   `json:"query"`
}

type pointerReq struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
}

type zoomReq struct {
	Zoom      *float64 `json:"zoom"`
	Direction string   `json:"direction"` // "in" | "out"
}

type focusReq struct {
	Zoom float64 `json:"zoom"`
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func toTransform(t graphviewer.ViewTransform) transformDTO {
	return transformDTO{Zoom: t.Zoom, PanX: t.PanX, PanY: t.PanY}
}

func toScene(f *graphviewer.Frame) sceneDTO {
	out := sceneDTO{
		Seq:       f.Seq,
		AtRest:    f.AtRest,
		Nodes:     make([]nodeDTO, 0, len(f.Nodes)),
		Edges:     make([]edgeDTO, 0, len(f.Edges)),
		Transform: toTransform(f.Transform),
		Selected:  string(f.Interaction.SelectedID),
		Hovered:   string(f.Interaction.HoveredID),
		Digest:    f.Digest(),
	}
	for _, n := range f.Nodes {
		kind := ""
		if n.Kind != nil {
			kind = n.Kind.Name()
		}
		out.Nodes = append(out.Nodes, nodeDTO{
			ID:     string(n.ID),
			Kind:   kind,
			Label:  n.Label(),
			X:      n.X,
			Y:      n.Y,
			Radius: n.Radius,
			Fill:   hexColor(n.Fill),
		})
	}
	for _, e := range f.Edges {
		out.Edges = append(out.Edges, edgeDTO{
			ID:     e.ID,
			Source: string(e.Source),
			Target: string(e.Target),
			Kind:   string(e.Kind),
			Weight: e.Weight,
		})
	}
	return out
}

func toView(f *graphviewer.Frame) viewDTO {
	return viewDTO{
		Seq:       f.Seq,
		Transform: toTransform(f.Transform),
		Selected:  string(f.Interaction.SelectedID),
		Hovered:   string(f.Interaction.HoveredID),
		Dragging:  f.Interaction.Dragging,
	}
}

func toSettings(s graphviewer.Settings) settingsDTO {
	return settingsDTO{
		ShowCategories:   s.ShowCategories,
		ShowLabels:       s.ShowLabels,
		RelationsOnly:    s.RelationsOnly,
		RelationStrength: s.RelationStrength,
		NodeSize:         s.NodeSize,
		RelationTypes:    s.RelationTypes.Names(),
	}
}

// apply merges p into s.
func (p settingsPatch) apply(s graphviewer.Settings) (graphviewer.Settings, error) {
	if p.ShowCategories != nil {
		s.ShowCategories = *p.ShowCategories
	}
	if p.ShowLabels != nil {
		s.ShowLabels = *p.ShowLabels
	}
	if p.RelationsOnly != nil {
		s.RelationsOnly = *p.RelationsOnly
	}
	if p.RelationStrength != nil {
		s.RelationStrength = *p.RelationStrength
	}
	if p.NodeSize != nil {
		s.NodeSize = *p.NodeSize
	}
	if p.RelationTypes != nil {
		set, err := dataset.NewRelationSet(p.RelationTypes...)
		if err != nil {
			return s, err
		}
		s.RelationTypes = set
	}
	return s, nil
}

func (f filterDTO) filter() dataset.Filter {
	return dataset.Filter{Types: f.Types, MinQuality: f.MinQuality, Query: f.Query}
}
