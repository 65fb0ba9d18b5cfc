package graphviewer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/relgraph/pkg/dataset"
)

func TestBuildScene_Scenario(t *testing.T) {
	scene := BuildScene(scenarioDataset(), DefaultSettings().SceneOptions())

	require.Len(t, scene.Nodes, 3)
	require.Len(t, scene.Edges, 2)

	a := nodeByID(t, scene.Nodes, "A")
	b := nodeByID(t, scene.Nodes, "B")
	c := nodeByID(t, scene.Nodes, "C")
	assert.Greater(t, a.Radius, c.Radius)
	assert.InDelta(t, 18, a.Radius, 1e-9)
	assert.InDelta(t, 10, b.Radius, 1e-9)
	assert.InDelta(t, 10, c.Radius, 1e-9)

	assert.Equal(t, dataset.QualityColor(90), a.Fill)
	assert.IsType(t, ResourceNode{}, a.Kind)
	assert.Equal(t, "Alpha", a.Label())

	assert.Equal(t, NodeID("A"), scene.Edges[0].Source)
	assert.Equal(t, NodeID("B"), scene.Edges[0].Target)
	assert.Equal(t, 2.0, scene.Edges[1].Weight)
	assert.Equal(t, RelationColor(dataset.Similarity), scene.Edges[1].Color)
}

func TestBuildScene_InitialRing(t *testing.T) {
	tests := []struct {
		name  string
		count int
		ring  float64
	}{
		{"three resources", 3, 30},
		{"twenty resources", 20, 200},
		{"capped at 300", 45, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := BuildScene(catalogDataset(tt.count), DefaultSettings().SceneOptions())
			require.Len(t, scene.Nodes, tt.count)
			for i, n := range scene.Nodes {
				assert.InDelta(t, tt.ring, math.Hypot(n.X, n.Y), 1e-9)
				angle := 2 * math.Pi * float64(i) / float64(tt.count)
				assert.InDelta(t, tt.ring*math.Cos(angle), n.X, 1e-9)
				assert.InDelta(t, tt.ring*math.Sin(angle), n.Y, 1e-9)
			}
		})
	}
}

func TestBuildScene_Deterministic(t *testing.T) {
	opts := DefaultSettings().SceneOptions()
	opts.ShowCategories = true
	ds := catalogDataset(40)

	first := BuildScene(ds, opts)
	second := BuildScene(ds, opts)
	require.Equal(t, len(first.Nodes), len(second.Nodes))
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].ID, second.Nodes[i].ID)
		assert.Equal(t, first.Nodes[i].X, second.Nodes[i].X)
		assert.Equal(t, first.Nodes[i].Y, second.Nodes[i].Y)
	}
	assert.Equal(t, first.Edges, second.Edges)
}

func TestBuildScene_NoDanglingEdges(t *testing.T) {
	only := func(names ...string) dataset.RelationSet {
		s, err := dataset.NewRelationSet(names...)
		require.NoError(t, err)
		return s
	}
	tests := []struct {
		name string
		ds   *dataset.Dataset
		opts SceneOptions
	}{
		{"all relations", catalogDataset(30), SceneOptions{RelationTypes: dataset.AllRelationSet()}},
		{"with categories", catalogDataset(30), SceneOptions{ShowCategories: true, RelationTypes: dataset.AllRelationSet()}},
		{"single kind", catalogDataset(30), SceneOptions{ShowCategories: true, RelationTypes: only("usage")}},
		{"filtered resources", func() *dataset.Dataset {
			ds := dataset.Filter{MinQuality: 50}.Apply(*catalogDataset(30))
			return &ds
		}(), SceneOptions{ShowCategories: true, RelationTypes: dataset.AllRelationSet()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := BuildScene(tt.ds, tt.opts)
			idx := indexNodes(scene.Nodes)
			for _, e := range scene.Edges {
				assert.Contains(t, idx, e.Source, "edge %s", e.ID)
				assert.Contains(t, idx, e.Target, "edge %s", e.ID)
			}
		})
	}
}

func TestBuildScene_RelationTypes(t *testing.T) {
	sim, err := dataset.NewRelationSet("similarity")
	require.NoError(t, err)

	scene := BuildScene(scenarioDataset(), SceneOptions{RelationTypes: sim})
	require.Len(t, scene.Edges, 1)
	assert.Equal(t, dataset.Similarity, scene.Edges[0].Kind)

	none := BuildScene(scenarioDataset(), SceneOptions{})
	assert.Empty(t, none.Edges)
	assert.Len(t, none.Nodes, 3)
}

func TestBuildScene_Categories(t *testing.T) {
	ds := catalogDataset(6)

	t.Run("shown", func(t *testing.T) {
		scene := BuildScene(ds, SceneOptions{ShowCategories: true, RelationTypes: dataset.AllRelationSet(), NodeSize: 20})
		require.Len(t, scene.Nodes, 6+3)

		var classification int
		for _, e := range scene.Edges {
			if e.Kind == dataset.Classification {
				classification++
				assert.Equal(t, ClassificationWeight, e.Weight)
			}
		}
		assert.Equal(t, 6, classification)

		for _, n := range scene.Nodes[6:] {
			assert.IsType(t, CategoryNode{}, n.Kind)
			assert.InDelta(t, categoryRingRadius, math.Hypot(n.X, n.Y), 1e-9)
			assert.Equal(t, 10.0, n.Radius)
		}
		assert.Equal(t, NodeID("category:domain/mobility"), scene.Nodes[6].ID)
	})

	t.Run("relations only", func(t *testing.T) {
		scene := BuildScene(ds, SceneOptions{ShowCategories: true, RelationsOnly: true, RelationTypes: dataset.AllRelationSet()})
		assert.Len(t, scene.Nodes, 6)
		for _, e := range scene.Edges {
			assert.NotEqual(t, dataset.Classification, e.Kind)
		}
	})
}

func TestBuildScene_DuplicatesAndDefaults(t *testing.T) {
	ds := &dataset.Dataset{
		Resources: []dataset.Resource{
			{ID: "x", Name: "first", QualityScore: 100},
			{ID: "x", Name: "second", QualityScore: 0},
			{ID: "y", QualityScore: 0},
		},
		Relations: []dataset.Relation{
			{SourceID: "x", TargetID: "y", Kind: dataset.Usage},
			{SourceID: "x", TargetID: "y", Kind: dataset.Usage, Strength: weight(3)},
		},
	}
	scene := BuildScene(ds, SceneOptions{RelationTypes: dataset.AllRelationSet(), NodeSize: 100})
	require.Len(t, scene.Nodes, 2)
	assert.Equal(t, "first", scene.Nodes[0].Label())
	assert.Equal(t, "y", scene.Nodes[1].Label())
	// NodeSize is clamped to 40, so the base radius is 20.
	assert.Equal(t, 20.0, scene.Nodes[0].Radius)
	assert.Equal(t, 20.0, scene.Nodes[1].Radius)

	require.Len(t, scene.Edges, 2)
	assert.Equal(t, 1.0, scene.Edges[0].Weight)
	assert.Equal(t, 3.0, scene.Edges[1].Weight)
	assert.NotEqual(t, scene.Edges[0].ID, scene.Edges[1].ID)
}

func TestBuildScene_Empty(t *testing.T) {
	assert.Empty(t, BuildScene(nil, SceneOptions{}).Nodes)
	assert.Empty(t, BuildScene(&dataset.Dataset{}, SceneOptions{ShowCategories: true}).Nodes)
}
