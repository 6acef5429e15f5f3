package planner

import (
	"time"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"
)

// Pair joins a local file and the remote object sharing its relative path.
type Pair struct {
	RelativePath  string
	LocalPath     string
	RemoteKey     string
	RemoteETag    string
	LocalSize     int64
	RemoteSize    int64
	LocalModTime  time.Time
	RemoteModTime time.Time
}

// Plan partitions two inventories. ToAdd and ToRemove are disjoint.
type Plan struct {
	ToAdd     []inventory.Item
	ToRemove  []inventory.Item
	ToCompare []Pair
}

// Summary counts the entries of each partition of a Plan.
type Summary struct {
	Add     int `json:"add"`
	Remove  int `json:"remove"`
	Compare int `json:"compare"`
}

// Summary returns the partition sizes.
func (p Plan) Summary() Summary {
	return Summary{
		Add:     len(p.ToAdd),
		Remove:  len(p.ToRemove),
		Compare: len(p.ToCompare),
	}
}
