package dataset

import "strings"

// Filter selects which resources are admitted into a scene.
type Filter struct {
	Types      []string
	MinQuality float64
	Query      string
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Resource) bool {
	if r.QualityScore < f.MinQuality {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if strings.EqualFold(t, r.Type) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Apply returns a copy of d restricted to matching resources. Relations,
// categories and memberships are kept as-is; the scene builder drops the
// ones that no longer resolve.
func (f Filter) Apply(d Dataset) Dataset {
	out := d
	out.Resources = make([]Resource, 0, len(d.Resources))
	for _, r := range d.Resources {
		if f.Match(r) {
			out.Resources = append(out.Resources, r)
		}
	}
	return out
}
