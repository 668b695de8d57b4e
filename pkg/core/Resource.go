package core

import (
	"math"

	"github.com/pkg/errors"
)

// Resource is the immutable capacity record of a ResourceDescriptor. Load is
// tracked separately by LoadTracker.
type Resource struct {
	ID             string
	Cores          int
	CoreThroughput float64
}

// Throughput is the aggregate work per unit time: cores × per-core speed.
func (r Resource) Throughput() float64 {
	return float64(r.Cores) * r.CoreThroughput
}

// NormalizeResource validates a descriptor. A valid resource always has
// Throughput() > 0.
func NormalizeResource(raw ResourceDescriptor) (Resource, error) {
	if raw == nil {
		return Resource{}, errors.Wrap(ErrInvalidResource, "nil descriptor")
	}
	id := raw.ResourceID()
	if id == "" {
		return Resource{}, errors.Wrap(ErrInvalidResource, "empty id")
	}
	cores := raw.Cores()
	if cores < 1 {
		return Resource{}, errors.Wrapf(ErrInvalidResource, "resource %q: core count %d < 1", id, cores)
	}
	tp := raw.CoreThroughput()
	if math.IsNaN(tp) || math.IsInf(tp, 0) {
		return Resource{}, errors.Wrapf(ErrInvalidResource, "resource %q: per-core throughput %v is not finite", id, tp)
	}
	if tp <= 0 {
		return Resource{}, errors.Wrapf(ErrInvalidResource, "resource %q: per-core throughput %v <= 0", id, tp)
	}
	r := Resource{ID: id, Cores: cores, CoreThroughput: tp}
	// a huge core count times a huge speed can still overflow
	if math.IsInf(r.Throughput(), 0) {
		return Resource{}, errors.Wrapf(ErrInvalidResource, "resource %q: aggregate throughput overflows", id)
	}
	return r, nil
}

// NormalizeResources normalises the pool. An empty pool is ErrNoResourcesAvailable.
func NormalizeResources(raw []ResourceDescriptor) ([]Resource, error) {
	if len(raw) == 0 {
		return nil, ErrNoResourcesAvailable
	}
	out := make([]Resource, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		res, err := NormalizeResource(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "resources[%d]", i)
		}
		if _, dup := seen[res.ID]; dup {
			return nil, errors.Wrapf(ErrInvalidResource, "resources[%d]: duplicate id %q", i, res.ID)
		}
		seen[res.ID] = struct{}{}
		out = append(out, res)
	}
	return out, nil
}
