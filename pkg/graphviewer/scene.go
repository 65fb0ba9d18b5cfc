package graphviewer

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/recera/relgraph/pkg/dataset"
)

const (
	// resourceRingMax caps the radius of the initial resource circle.
	resourceRingMax = 300
	// resourceRingStep is the ring radius contributed by each resource.
	resourceRingStep = 10
	// categoryRingRadius is the radius of the initial category circle.
	categoryRingRadius = 150
	// ClassificationWeight is the fixed weight of resource-category edges.
	ClassificationWeight = 0.5
)

// SceneOptions controls which parts of a dataset become nodes and edges.
type SceneOptions struct {
	ShowCategories bool
	RelationsOnly  bool
	RelationTypes  dataset.RelationSet
	NodeSize       float64
	// QualityColor maps a quality score to a fill; nil uses dataset.QualityColor.
	QualityColor func(score float64) color.NRGBA
	Logger       *slog.Logger
}

// BuildScene converts a dataset into nodes and edges. Resource nodes start
// evenly spaced on a circle of radius min(300, 10*count), category nodes on
// a circle of radius 150. Relations whose kind is not selected, or whose
// endpoints are not in the scene, are skipped.
//
// Nodes keep pointers into ds; ds must not be mutated while the scene is in use.
func BuildScene(ds *dataset.Dataset, opts SceneOptions) Scene {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	colorOf := opts.QualityColor
	if colorOf == nil {
		colorOf = dataset.QualityColor
	}
	// NodeSize is a diameter; the quality floor applies to the radius.
	baseSize := clamp(opts.NodeSize, MinNodeSize, MaxNodeSize) / 2

	var scene Scene
	if ds == nil {
		return scene
	}

	seen := make(map[NodeID]struct{}, len(ds.Resources))
	included := make([]*dataset.Resource, 0, len(ds.Resources))
	for i := range ds.Resources {
		id := NodeID(ds.Resources[i].ID)
		if _, dup := seen[id]; dup {
			logger.Debug("duplicate resource skipped", "resource", id)
			continue
		}
		seen[id] = struct{}{}
		included = append(included, &ds.Resources[i])
	}

	count := len(included)
	ring := math.Min(resourceRingMax, float64(count*resourceRingStep))
	for i, r := range included {
		x, y := ringPosition(i, count, ring)
		scene.Nodes = append(scene.Nodes, Node{
			ID:     NodeID(r.ID),
			Kind:   ResourceNode{Resource: r},
			X:      x,
			Y:      y,
			Radius: math.Max(baseSize, r.QualityScore/5),
			Fill:   colorOf(r.QualityScore),
		})
	}

	categories := make(map[dataset.CategoryKey]NodeID)
	if opts.ShowCategories && !opts.RelationsOnly {
		unique := make([]*dataset.Category, 0, len(ds.Categories))
		for i := range ds.Categories {
			key := ds.Categories[i].Key()
			if _, dup := categories[key]; dup {
				continue
			}
			categories[key] = CategoryNodeID(key)
			unique = append(unique, &ds.Categories[i])
		}
		for i, c := range unique {
			x, y := ringPosition(i, len(unique), categoryRingRadius)
			scene.Nodes = append(scene.Nodes, Node{
				ID:     categories[c.Key()],
				Kind:   CategoryNode{Category: c},
				X:      x,
				Y:      y,
				Radius: baseSize,
				Fill:   dataset.CategoryColor,
			})
		}
	}

	for i, rel := range ds.Relations {
		if !opts.RelationTypes.Contains(rel.Kind) {
			continue
		}
		src, dst := NodeID(rel.SourceID), NodeID(rel.TargetID)
		_, okSrc := seen[src]
		_, okDst := seen[dst]
		if !okSrc || !okDst {
			logger.Debug("relation endpoint not in scene", "source", src, "target", dst, "kind", rel.Kind)
			continue
		}
		scene.Edges = append(scene.Edges, Edge{
			ID:     fmt.Sprintf("%s:%s->%s#%d", rel.Kind, src, dst, i),
			Source: src,
			Target: dst,
			Kind:   rel.Kind,
			Weight: rel.EffectiveWeight(),
			Color:  RelationColor(rel.Kind),
		})
	}

	if len(categories) > 0 {
		members := ds.CategoriesOf()
		for _, r := range included {
			for _, key := range members[r.ID] {
				catID, ok := categories[key]
				if !ok {
					logger.Debug("membership category not in scene", "resource", r.ID, "category", key.String())
					continue
				}
				scene.Edges = append(scene.Edges, Edge{
					ID:     fmt.Sprintf("%s:%s->%s", dataset.Classification, r.ID, catID),
					Source: NodeID(r.ID),
					Target: catID,
					Kind:   dataset.Classification,
					Weight: ClassificationWeight,
					Color:  RelationColor(dataset.Classification),
				})
			}
		}
	}

	logger.Debug("scene built", "nodes", len(scene.Nodes), "edges", len(scene.Edges))
	return scene
}

// ringPosition places item i of count evenly on a circle.
func ringPosition(i, count int, radius float64) (x, y float64) {
	if count == 0 {
		return 0, 0
	}
	angle := 2 * math.Pi * float64(i) / float64(count)
	return radius * math.Cos(angle), radius * math.Sin(angle)
}
