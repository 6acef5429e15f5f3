package inventory

import "time"

// Item is a file or object under comparison. Identity is RelativePath only.
type Item struct {
	RelativePath string
	// Source is the local absolute path or the remote object key.
	Source string
	// Fingerprint is the remote ETag; local items leave it empty.
	Fingerprint string
	Size        int64
	ModTime     time.Time
}

// Key is the identity projection of an item.
func Key(item Item) string {
	return item.RelativePath
}

// Inventory is a set of items keyed by relative path. Iteration follows
// first insertion; a later Add with the same key replaces the item in place.
type Inventory struct {
	index map[string]int
	items []Item
}

// New returns an empty Inventory.
func New() *Inventory {
	return &Inventory{index: make(map[string]int)}
}

// Add inserts item, replacing any item with the same relative path.
func (inv *Inventory) Add(item Item) {
	k := Key(item)
	if i, ok := inv.index[k]; ok {
		inv.items[i] = item
		return
	}
	inv.index[k] = len(inv.items)
	inv.items = append(inv.items, item)
}

// Get returns the item stored under the relative path rel.
func (inv *Inventory) Get(rel string) (Item, bool) {
	i, ok := inv.index[rel]
	if !ok {
		return Item{}, false
	}
	return inv.items[i], true
}

// Has reports whether an item is stored under rel.
func (inv *Inventory) Has(rel string) bool {
	_, ok := inv.index[rel]
	return ok
}

// Len returns the number of distinct relative paths.
func (inv *Inventory) Len() int {
	return len(inv.items)
}

// Items returns a copy in insertion order.
func (inv *Inventory) Items() []Item {
	out := make([]Item, len(inv.items))
	copy(out, inv.items)
	return out
}
