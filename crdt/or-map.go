package crdt

// Structs

// MapEntry is the (key, value) pair an ORMap stores per dot
// in its kernel.
type MapEntry[K comparable, V comparable] struct {
	Key K
	Val V
}

// ORMap is an observed-remove map of last-write values. It
// stores (key, value) pairs in a dotted kernel and removes
// by key equality, which is what the kernel's removal
// predicate parameter exists for. Concurrent writes to the
// same key all survive the merge; readers resolve them
// deterministically by the highest dot.
type ORMap[K comparable, V comparable] struct {
	kern *Kernel[MapEntry[K, V]]
}

// Functions

// InitORMap returns an empty initialized new observed-remove
// map owned by the given replica id.
func InitORMap[K comparable, V comparable](id ReplicaID) *ORMap[K, V] {

	return &ORMap[K, V]{
		kern: InitKernel[MapEntry[K, V]](id),
	}
}

// ID returns the id of the replica owning this map.
func (m *ORMap[K, V]) ID() ReplicaID {
	return m.kern.ID()
}

// Has reports whether key k is present.
func (m *ORMap[K, V]) Has(k K) bool {

	found := false

	m.kern.Each(func(d Dot, e MapEntry[K, V]) {
		if e.Key == k {
			found = true
		}
	})

	return found
}

// Get returns the value stored under key k. When concurrent
// writes to k are unresolved, the value carried by the
// highest dot is returned so that all replicas read the same
// winner.
func (m *ORMap[K, V]) Get(k K) (V, bool) {

	var winner Dot
	var value V
	found := false

	m.kern.Each(func(d Dot, e MapEntry[K, V]) {
		if e.Key != k {
			return
		}
		if !found || winner.Less(d) {
			winner = d
			value = e.Val
			found = true
		}
	})

	return value, found
}

// GetAll returns every surviving value under key k. More
// than one value means concurrent unresolved writes.
func (m *ORMap[K, V]) GetAll(k K) []V {

	var values []V

	m.kern.Each(func(d Dot, e MapEntry[K, V]) {
		if e.Key == k {
			values = append(values, e.Val)
		}
	})

	return values
}

// Keys returns all distinct keys in unspecified order.
func (m *ORMap[K, V]) Keys() []K {

	seen := make(map[K]struct{})

	m.kern.Each(func(d Dot, e MapEntry[K, V]) {
		seen[e.Key] = struct{}{}
	})

	keys := make([]K, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}

	return keys
}

// Size returns the number of distinct keys.
func (m *ORMap[K, V]) Size() int {
	return len(m.Keys())
}

// Set stores value v under key k and returns the delta. Any
// pairs the map already holds for k are retired first, so
// the write is an overwrite locally and add-wins across
// replicas. On a read-only replica this is a no-op returning
// an empty delta.
func (m *ORMap[K, V]) Set(k K, v V) *ORMap[K, V] {

	delta := m.kern.RemoveValue(MapEntry[K, V]{Key: k}, keyEq[K, V])
	delta.Converge(m.kern.Set(MapEntry[K, V]{Key: k, Val: v}))

	return &ORMap[K, V]{kern: delta}
}

// Remove drops key k and returns the delta. Removing an
// absent key yields an empty delta. On a read-only replica
// this is a no-op returning an empty delta.
func (m *ORMap[K, V]) Remove(k K) *ORMap[K, V] {

	return &ORMap[K, V]{
		kern: m.kern.RemoveValue(MapEntry[K, V]{Key: k}, keyEq[K, V]),
	}
}

// Converge merges other, full state or delta, into m and
// returns true iff m gained information.
func (m *ORMap[K, V]) Converge(other *ORMap[K, V]) bool {
	return m.kern.Converge(other.kern)
}

// IsEmpty reports whether the map holds no pairs.
func (m *ORMap[K, V]) IsEmpty() bool {
	return m.kern.IsEmpty()
}

// Clear drops every pair and returns the delta.
func (m *ORMap[K, V]) Clear() *ORMap[K, V] {

	return &ORMap[K, V]{
		kern: m.kern.RemoveAll(),
	}
}

// Eq compares two maps by value: the same keys resolving to
// the same winners.
func (m *ORMap[K, V]) Eq(other *ORMap[K, V]) bool {

	mine := m.Keys()
	theirs := other.Keys()

	if len(mine) != len(theirs) {
		return false
	}

	for _, k := range mine {

		myVal, myFound := m.Get(k)
		theirVal, theirFound := other.Get(k)

		if !myFound || !theirFound || (myVal != theirVal) {
			return false
		}
	}

	return true
}

// EmitTokens emits the token form of the map, which is that
// of its kernel over (key, value) entries.
func (m *ORMap[K, V]) EmitTokens(emit func(Token[MapEntry[K, V]])) {
	m.kern.EmitTokens(emit)
}

// FromORMapTokens reconstructs a map from its token form.
func FromORMapTokens[K comparable, V comparable](r *TokenReader[MapEntry[K, V]]) (*ORMap[K, V], error) {

	kern, err := FromKernelTokens[MapEntry[K, V]](r)
	if err != nil {
		return nil, err
	}

	return &ORMap[K, V]{kern: kern}, nil
}

// keyEq compares two map entries by key only, ignoring the
// value, so that removal retires every write to a key.
func keyEq[K comparable, V comparable](a MapEntry[K, V], b MapEntry[K, V]) bool {
	return a.Key == b.Key
}
