package graphviewer

import (
	"math"

	"github.com/recera/relgraph/pkg/dataset"
)

func weight(w float64) *float64 { return &w }

// scenarioDataset is the A/B/C catalog: A(90) -dependency-> B(50)
// -similarity(2)-> C(10).
func scenarioDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Resources: []dataset.Resource{
			{ID: "A", Name: "Alpha", QualityScore: 90},
			{ID: "B", Name: "Beta", QualityScore: 50},
			{ID: "C", Name: "Gamma", QualityScore: 10},
		},
		Relations: []dataset.Relation{
			{SourceID: "A", TargetID: "B", Kind: dataset.Dependency, Weight: weight(1)},
			{SourceID: "B", TargetID: "C", Kind: dataset.Similarity, Weight: weight(2)},
		},
	}
}

// catalogDataset is a larger catalog with categories, memberships and a
// relation to a resource that does not exist.
func catalogDataset(n int) *dataset.Dataset {
	ds := &dataset.Dataset{
		Categories: []dataset.Category{
			{DimensionID: "domain", CategoryID: "mobility", Name: "Mobility"},
			{DimensionID: "domain", CategoryID: "energy", Name: "Energy"},
			{DimensionID: "license", CategoryID: "open", Name: "Open"},
		},
	}
	kinds := dataset.RelationKinds
	for i := 0; i < n; i++ {
		id := resourceID(i)
		ds.Resources = append(ds.Resources, dataset.Resource{
			ID:           id,
			Name:         "Resource " + id,
			QualityScore: float64((i * 37) % 101),
		})
		if i > 0 {
			ds.Relations = append(ds.Relations, dataset.Relation{
				SourceID: resourceID(i - 1),
				TargetID: id,
				Kind:     kinds[i%(len(kinds)-1)],
				Weight:   weight(float64(1 + i%3)),
			})
		}
		cat := ds.Categories[i%len(ds.Categories)]
		ds.Memberships = append(ds.Memberships, dataset.Membership{
			ResourceID: id, DimensionID: cat.DimensionID, CategoryID: cat.CategoryID,
		})
	}
	ds.Relations = append(ds.Relations, dataset.Relation{SourceID: resourceID(0), TargetID: "missing", Kind: dataset.Usage})
	return ds
}

func resourceID(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "r-" + string(letters[i%26]) + string(letters[(i/26)%26])
}

func dist(a, b Node) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func nodeByID(t interface{ Fatalf(string, ...any) }, nodes []Node, id NodeID) Node {
	n, ok := findNode(nodes, id)
	if !ok {
		t.Fatalf("node %s not found", id)
	}
	return n
}
