package planner

import "github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"

// Diff set-differences local against remote by relative path. It has no side
// effects; element order follows each inventory's insertion order.
func Diff(local, remote *inventory.Inventory) Plan {
	plan := Plan{
		ToAdd:     []inventory.Item{},
		ToRemove:  []inventory.Item{},
		ToCompare: []Pair{},
	}

	for _, l := range local.Items() {
		r, exists := remote.Get(inventory.Key(l))
		if !exists {
			plan.ToAdd = append(plan.ToAdd, l)
			continue
		}

		plan.ToCompare = append(plan.ToCompare, Pair{
			RelativePath:  l.RelativePath,
			LocalPath:     l.Source,
			RemoteKey:     r.Source,
			RemoteETag:    r.Fingerprint,
			LocalSize:     l.Size,
			RemoteSize:    r.Size,
			LocalModTime:  l.ModTime,
			RemoteModTime: r.ModTime,
		})
	}

	for _, r := range remote.Items() {
		if !local.Has(inventory.Key(r)) {
			plan.ToRemove = append(plan.ToRemove, r)
		}
	}

	return plan
}
