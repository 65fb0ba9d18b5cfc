// Package dataset holds the catalog snapshot the graph viewer consumes:
// resources, typed relations between them, categories and the
// resource-to-category memberships.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid dataset")

// Resource is a catalog entry. QualityScore is on a 0-100 scale.
type Resource struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	QualityScore float64  `json:"qualityScore" yaml:"qualityScore"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Relation links two resources. Weight and Strength are both optional;
// Weight wins when both are set.
type Relation struct {
	SourceID string       `json:"sourceId" yaml:"sourceId"`
	TargetID string       `json:"targetId" yaml:"targetId"`
	Kind     RelationKind `json:"kind" yaml:"kind"`
	Weight   *float64     `json:"weight,omitempty" yaml:"weight,omitempty"`
	Strength *float64     `json:"strength,omitempty" yaml:"strength,omitempty"`
}

// EffectiveWeight returns the declared weight, the declared strength, or 1.
// Negative values are clamped to 0; NaN and infinities count as 1.
func (r Relation) EffectiveWeight() float64 {
	w := 1.0
	switch {
	case r.Weight != nil:
		w = *r.Weight
	case r.Strength != nil:
		w = *r.Strength
	}
	switch {
	case !finite(w):
		return 1
	case w < 0:
		return 0
	}
	return w
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func finitePtr(v *float64) bool { return v == nil || finite(*v) }

// CategoryKey identifies a category inside a dimension.
type CategoryKey struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Category  string `json:"category" yaml:"category"`
}

func (k CategoryKey) String() string {
	return k.Dimension + "/" + k.Category
}

// Category is one value of a classification dimension.
type Category struct {
	DimensionID string `json:"dimensionId" yaml:"dimensionId"`
	CategoryID  string `json:"categoryId" yaml:"categoryId"`
	Name        string `json:"name" yaml:"name"`
}

// Key returns the (dimension, category) pair.
func (c Category) Key() CategoryKey {
	return CategoryKey{Dimension: c.DimensionID, Category: c.CategoryID}
}

// Membership assigns a resource to a category.
type Membership struct {
	ResourceID  string `json:"resourceId" yaml:"resourceId"`
	DimensionID string `json:"dimensionId" yaml:"dimensionId"`
	CategoryID  string `json:"categoryId" yaml:"categoryId"`
}

// Dataset is a read-only snapshot handed to the scene builder.
type Dataset struct {
	Resources   []Resource   `json:"resources" yaml:"resources"`
	Relations   []Relation   `json:"relations" yaml:"relations"`
	Categories  []Category   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Memberships []Membership `json:"memberships,omitempty" yaml:"memberships,omitempty"`
}

// CategoriesOf returns the category memberships of every resource.
func (d *Dataset) CategoriesOf() map[string][]CategoryKey {
	idx := make(map[string][]CategoryKey, len(d.Memberships))
	for _, m := range d.Memberships {
		key := CategoryKey{Dimension: m.DimensionID, Category: m.CategoryID}
		idx[m.ResourceID] = append(idx[m.ResourceID], key)
	}
	return idx
}

// Validate checks identifiers and relation kinds. Dangling relations are
// not an error; the scene builder drops them.
func (d *Dataset) Validate() error {
	for i, r := range d.Resources {
		if r.ID == "" {
			return fmt.Errorf("%w: resource %d has no id", ErrInvalid, i)
		}
		if !finite(r.QualityScore) {
			return fmt.Errorf("%w: resource %s has quality score %v", ErrInvalid, r.ID, r.QualityScore)
		}
	}
	for i, rel := range d.Relations {
		if rel.SourceID == "" || rel.TargetID == "" {
			return fmt.Errorf("%w: relation %d is missing an endpoint", ErrInvalid, i)
		}
		if !rel.Kind.Valid() {
			return fmt.Errorf("%w: relation %d has unknown kind %q", ErrInvalid, i, rel.Kind)
		}
		if !finitePtr(rel.Weight) || !finitePtr(rel.Strength) {
			return fmt.Errorf("%w: relation %d has a non-finite weight", ErrInvalid, i)
		}
	}
	for i, c := range d.Categories {
		if c.DimensionID == "" || c.CategoryID == "" {
			return fmt.Errorf("%w: category %d needs a dimension and an id", ErrInvalid, i)
		}
	}
	return nil
}
