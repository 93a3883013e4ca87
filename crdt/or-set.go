package crdt

// Structs

// ORSet conforms to the specification of an observed-removed
// set defined by Shapiro, Preguiça, Baquero and Zawirski,
// realized in its delta-state add-wins form over the dotted
// kernel. An element added concurrently to its removal
// survives the merge, because the adding replica's dot is
// not covered by the removing replica's context.
type ORSet[V comparable] struct {
	kern *Kernel[V]
}

// Functions

// InitORSet returns an empty initialized new observed-removed
// set owned by the given replica id.
func InitORSet[V comparable](id ReplicaID) *ORSet[V] {

	return &ORSet[V]{
		kern: InitKernel[V](id),
	}
}

// ID returns the id of the replica owning this set.
func (s *ORSet[V]) ID() ReplicaID {
	return s.kern.ID()
}

// Lookup reports whether element e is present in the set.
func (s *ORSet[V]) Lookup(e V) bool {

	found := false

	s.kern.Each(func(d Dot, v V) {
		if v == e {
			found = true
		}
	})

	return found
}

// Elements returns all distinct elements in unspecified
// order.
func (s *ORSet[V]) Elements() []V {

	seen := make(map[V]struct{})

	s.kern.Each(func(d Dot, v V) {
		seen[v] = struct{}{}
	})

	elements := make([]V, 0, len(seen))
	for v := range seen {
		elements = append(elements, v)
	}

	return elements
}

// Size returns the number of distinct elements.
func (s *ORSet[V]) Size() int {
	return len(s.Elements())
}

// Add inserts element e and returns the delta. Any dots the
// set already holds for e are retired first, so an element
// carries exactly one live dot after a local add. On a
// read-only replica this is a no-op returning an empty delta.
func (s *ORSet[V]) Add(e V) *ORSet[V] {

	delta := s.kern.RemoveValue(e, valueEq[V])
	delta.Converge(s.kern.Set(e))

	return &ORSet[V]{kern: delta}
}

// Remove drops element e and returns the delta. Removing an
// absent element yields an empty delta. On a read-only
// replica this is a no-op returning an empty delta.
func (s *ORSet[V]) Remove(e V) *ORSet[V] {

	return &ORSet[V]{
		kern: s.kern.RemoveValue(e, valueEq[V]),
	}
}

// Converge merges other, full state or delta, into s and
// returns true iff s gained information.
func (s *ORSet[V]) Converge(other *ORSet[V]) bool {
	return s.kern.Converge(other.kern)
}

// IsEmpty reports whether the set holds no elements.
func (s *ORSet[V]) IsEmpty() bool {
	return s.kern.IsEmpty()
}

// Clear drops every element and returns the delta.
func (s *ORSet[V]) Clear() *ORSet[V] {

	return &ORSet[V]{
		kern: s.kern.RemoveAll(),
	}
}

// Eq compares two sets by value: both hold the same
// elements, regardless of which dots carry them.
func (s *ORSet[V]) Eq(other *ORSet[V]) bool {

	mine := s.Elements()
	theirs := other.Elements()

	if len(mine) != len(theirs) {
		return false
	}

	lookup := make(map[V]struct{}, len(theirs))
	for _, v := range theirs {
		lookup[v] = struct{}{}
	}

	for _, v := range mine {
		if _, found := lookup[v]; !found {
			return false
		}
	}

	return true
}

// EmitTokens emits the token form of the set, which is that
// of its kernel.
func (s *ORSet[V]) EmitTokens(emit func(Token[V])) {
	s.kern.EmitTokens(emit)
}

// FromORSetTokens reconstructs a set from its token form.
func FromORSetTokens[V comparable](r *TokenReader[V]) (*ORSet[V], error) {

	kern, err := FromKernelTokens[V](r)
	if err != nil {
		return nil, err
	}

	return &ORSet[V]{kern: kern}, nil
}

// valueEq is plain equality on comparable values, used as
// the kernel's removal predicate by the facades.
func valueEq[V comparable](a V, b V) bool {
	return a == b
}
