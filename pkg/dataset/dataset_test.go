package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
resources:
  - id: orders
    name: Orders
    type: dataset
    qualityScore: 90
    tags: [sales]
  - id: customers
    name: Customers
    type: dataset
    qualityScore: 40
relations:
  - sourceId: orders
    targetId: customers
    kind: dependency
    weight: 2
  - sourceId: customers
    targetId: orders
    kind: usage
    strength: 0.5
categories:
  - dimensionId: domain
    categoryId: sales
    name: Sales
memberships:
  - resourceId: orders
    dimensionId: domain
    categoryId: sales
`

func TestRelation_EffectiveWeight(t *testing.T) {
	two, half, neg := 2.0, 0.5, -3.0
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		rel  Relation
		want float64
	}{
		{"default", Relation{}, 1},
		{"weight", Relation{Weight: &two}, 2},
		{"strength", Relation{Strength: &half}, 0.5},
		{"weight wins", Relation{Weight: &two, Strength: &half}, 2},
		{"negative clamps", Relation{Weight: &neg}, 0},
		{"nan is default", Relation{Weight: &nan}, 1},
		{"inf is default", Relation{Strength: &inf}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rel.EffectiveWeight())
		})
	}
}

func TestDecode_YAML(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Len(t, ds.Resources, 2)
	assert.Len(t, ds.Relations, 2)
	assert.Equal(t, Dependency, ds.Relations[0].Kind)
	assert.Equal(t, 2.0, ds.Relations[0].EffectiveWeight())
	assert.Equal(t, 0.5, ds.Relations[1].EffectiveWeight())
	assert.Equal(t, []CategoryKey{{Dimension: "domain", Category: "sales"}}, ds.CategoriesOf()["orders"])
}

func TestDecode_JSON(t *testing.T) {
	in := `{"resources":[{"id":"a","name":"A","qualityScore":10}],"relations":[]}`
	ds, err := Decode(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "a", ds.Resources[0].ID)
}

func TestDecode_RejectsUnknownKind(t *testing.T) {
	in := `{"resources":[{"id":"a"},{"id":"b"}],"relations":[{"sourceId":"a","targetId":"b","kind":"friendship"}]}`
	_, err := Decode(strings.NewReader(in), FormatJSON)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDecode_RejectsMissingID(t *testing.T) {
	_, err := Decode(strings.NewReader("resources:\n  - name: nameless\n"), FormatYAML)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDecode_RejectsNonFiniteNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"nan weight", "resources:\n  - id: a\n  - id: b\nrelations:\n  - sourceId: a\n    targetId: b\n    kind: dependency\n    weight: .nan\n"},
		{"inf strength", "resources:\n  - id: a\n  - id: b\nrelations:\n  - sourceId: a\n    targetId: b\n    kind: dependency\n    strength: .inf\n"},
		{"nan quality", "resources:\n  - id: a\n    qualityScore: .nan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in), FormatYAML)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Resources, 2)

	_, err = Load(filepath.Join(dir, "catalog.csv"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRelationSet(t *testing.T) {
	all, err := NewRelationSet("ALL")
	require.NoError(t, err)
	assert.True(t, all.Contains(Composition))
	assert.Equal(t, []string{"all"}, all.Names())

	some, err := NewRelationSet("usage", "Dependency")
	require.NoError(t, err)
	assert.True(t, some.Contains(Usage))
	assert.True(t, some.Contains(Dependency))
	assert.False(t, some.Contains(Similarity))
	assert.Equal(t, []string{"dependency", "usage"}, some.Names())

	var none RelationSet
	assert.False(t, none.Contains(Usage))

	_, err = NewRelationSet("bogus")
	assert.Error(t, err)
}

func TestQualityColor(t *testing.T) {
	assert.Equal(t, qualityLow, QualityColor(0))
	assert.Equal(t, qualityLow, QualityColor(-20))
	assert.Equal(t, qualityMid, QualityColor(50))
	assert.Equal(t, qualityHigh, QualityColor(100))
	assert.Equal(t, qualityHigh, QualityColor(250))

	c := QualityColor(75)
	assert.Greater(t, c.G, qualityMid.G)
	assert.Less(t, c.R, qualityMid.R)
}

func TestFilter_Apply(t *testing.T) {
	ds := Dataset{Resources: []Resource{
		{ID: "a", Name: "Orders", Type: "dataset", QualityScore: 90, Tags: []string{"sales"}},
		{ID: "b", Name: "Weather", Type: "api", QualityScore: 70},
		{ID: "c", Name: "Legacy", Type: "dataset", QualityScore: 20},
	}}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty keeps all", Filter{}, []string{"a", "b", "c"}},
		{"min quality", Filter{MinQuality: 50}, []string{"a", "b"}},
		{"type", Filter{Types: []string{"DATASET"}}, []string{"a", "c"}},
		{"query on tag", Filter{Query: "SAL"}, []string{"a"}},
		{"combined", Filter{Types: []string{"dataset"}, MinQuality: 50}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(ds)
			ids := make([]string, 0, len(got.Resources))
			for _, r := range got.Resources {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
