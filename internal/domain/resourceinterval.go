package domain

// ResourceInterval maps a resource name to the IntervalSet over which it
// has been produced (or is required). Grounded on
// original_source/src/resource_interval.rs.
type ResourceInterval map[string]IntervalSet

// NewResourceInterval returns an empty ResourceInterval.
func NewResourceInterval() ResourceInterval {
	return ResourceInterval{}
}

// Clone returns a shallow copy safe to mutate independently (IntervalSet
// values are themselves immutable, so copying the map is sufficient).
func (r ResourceInterval) Clone() ResourceInterval {
	out := make(ResourceInterval, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Add merges other into a copy of r, unioning per-resource IntervalSets.
func (r ResourceInterval) Add(other ResourceInterval) ResourceInterval {
	out := r.Clone()
	for resource, iset := range other {
		out[resource] = out[resource].Union(iset)
	}
	return out
}

// Sub removes other's coverage from a copy of r, per resource.
func (r ResourceInterval) Sub(other ResourceInterval) ResourceInterval {
	out := r.Clone()
	for resource, iset := range other {
		out[resource] = out[resource].Difference(iset)
	}
	return out
}

// Equal reports whether r and other have identical coverage for every
// resource either mentions.
func (r ResourceInterval) Equal(other ResourceInterval) bool {
	seen := make(map[string]bool, len(r)+len(other))
	for k := range r {
		seen[k] = true
	}
	for k := range other {
		seen[k] = true
	}
	for k := range seen {
		if !r[k].Equal(other[k]) {
			return false
		}
	}
	return true
}
