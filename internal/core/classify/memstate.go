package classify

import "colasignal/internal/core/fingerprint"

// MemoryState is the in-memory State used by batch replays (one per entity
// shard) and by the incremental updater after seeding from the store.
// Zero value is not usable; call NewMemoryState
type MemoryState struct {
	entities map[int64]struct{}
	brands   map[int64]map[fingerprint.Key32]struct{}
	skus     map[int64]map[fingerprint.Key32]int // value is the refile count
}

var _ State = (*MemoryState)(nil)

// NewMemoryState constructs an empty seen-state
func NewMemoryState() *MemoryState {
	return &MemoryState{
		entities: make(map[int64]struct{}),
		brands:   make(map[int64]map[fingerprint.Key32]struct{}),
		skus:     make(map[int64]map[fingerprint.Key32]int),
	}
}

// SeenEntity implements State
func (m *MemoryState) SeenEntity(id int64) bool {
	_, ok := m.entities[id]
	return ok
}

// SeenBrand implements State
func (m *MemoryState) SeenBrand(id int64, key fingerprint.Key32) bool {
	_, ok := m.brands[id][key]
	return ok
}

// SeenSKU implements State
func (m *MemoryState) SeenSKU(id int64, key fingerprint.Key32) bool {
	_, ok := m.skus[id][key]
	return ok
}

// MarkEntity implements State
func (m *MemoryState) MarkEntity(id int64) { m.entities[id] = struct{}{} }

// MarkBrand implements State
func (m *MemoryState) MarkBrand(id int64, key fingerprint.Key32) {
	set := m.brands[id]
	if set == nil {
		set = make(map[fingerprint.Key32]struct{})
		m.brands[id] = set
	}
	set[key] = struct{}{}
}

// MarkSKU implements State
func (m *MemoryState) MarkSKU(id int64, key fingerprint.Key32) {
	set := m.skus[id]
	if set == nil {
		set = make(map[fingerprint.Key32]int)
		m.skus[id] = set
	}
	if _, ok := set[key]; !ok {
		set[key] = 0
	}
}

// NextRefile implements State
func (m *MemoryState) NextRefile(id int64, key fingerprint.Key32) int {
	set := m.skus[id]
	if set == nil {
		set = make(map[fingerprint.Key32]int)
		m.skus[id] = set
	}
	set[key]++
	return set[key]
}

// SeedEntity pre-marks an entity as seen (incremental warm start)
func (m *MemoryState) SeedEntity(id int64) { m.MarkEntity(id) }

// SeedBrand pre-marks a brand as seen
func (m *MemoryState) SeedBrand(id int64, key fingerprint.Key32) { m.MarkBrand(id, key) }

// SeedSKU pre-marks a SKU as seen with its current refile count
func (m *MemoryState) SeedSKU(id int64, key fingerprint.Key32, refiles int) {
	set := m.skus[id]
	if set == nil {
		set = make(map[fingerprint.Key32]int)
		m.skus[id] = set
	}
	set[key] = refiles
}

// Snapshot walks the state for persistence. Brand and SKU callbacks receive
// every key marked during the fold; refiles is the final per-SKU count
func (m *MemoryState) Snapshot(
	onEntity func(id int64),
	onBrand func(id int64, key fingerprint.Key32),
	onSKU func(id int64, key fingerprint.Key32, refiles int),
) {
	for id := range m.entities {
		onEntity(id)
	}
	for id, set := range m.brands {
		for k := range set {
			onBrand(id, k)
		}
	}
	for id, set := range m.skus {
		for k, n := range set {
			onSKU(id, k, n)
		}
	}
}
