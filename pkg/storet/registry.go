package storet

// Registry keeps the first record seen for each key and remembers insertion
// order. Later records with an existing key are dropped without merging:
// sources may disagree about an entity and no reconciliation is attempted.
//
// A Registry is not safe for concurrent use.
type Registry[K comparable, V any] struct {
	items      map[K]V
	order      []K
	duplicates int
}

// NewRegistry creates an empty registry.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{items: make(map[K]V)}
}

// Register stores v under key if key is new and reports whether it did.
func (r *Registry[K, V]) Register(key K, v V) bool {
	if _, ok := r.items[key]; ok {
		r.duplicates++
		return false
	}
	r.items[key] = v
	r.order = append(r.order, key)
	return true
}

// Get returns the record stored under key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	v, ok := r.items[key]
	return v, ok
}

// All returns records in first-seen order.
func (r *Registry[K, V]) All() []V {
	out := make([]V, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.items[k])
	}
	return out
}

// Len returns the number of unique keys.
func (r *Registry[K, V]) Len() int { return len(r.order) }

// Duplicates returns how many Register calls were dropped.
func (r *Registry[K, V]) Duplicates() int { return r.duplicates }

// ParameterRegistry deduplicates parameters by code.
type ParameterRegistry = Registry[string, Parameter]

// StationRegistry deduplicates stations by station id.
type StationRegistry = Registry[string, Station]
