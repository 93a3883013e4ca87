package crdt

// Structs

// KernelSingle is a kernel variant that keeps at most one
// live dot per replica id. Setting a value first retires the
// replica's previous dot; the retired dot survives only in
// the context. When a merge brings together two live dots of
// the same replica, the one with the higher sequence number
// wins and the loser is likewise retained only in the
// context. Last-writer-wins registers whose winner is chosen
// causally rather than by timestamp are built on this.
type KernelSingle[V comparable] struct {
	id      ReplicaID
	ctx     *Context
	entries map[Dot]V
}

// Functions

// InitKernelSingle returns an empty initialized new
// single-dot kernel owned by the given replica id.
func InitKernelSingle[V comparable](id ReplicaID) *KernelSingle[V] {

	return &KernelSingle[V]{
		id:      id,
		ctx:     InitContext(),
		entries: make(map[Dot]V),
	}
}

// ID returns the id of the replica owning this kernel.
func (k *KernelSingle[V]) ID() ReplicaID {
	return k.id
}

// Each calls fn once for every live (dot, value) pair.
func (k *KernelSingle[V]) Each(fn func(d Dot, v V)) {

	for d, v := range k.entries {
		fn(d, v)
	}
}

// Values returns all live values in unspecified order.
func (k *KernelSingle[V]) Values() []V {

	values := make([]V, 0, len(k.entries))
	for _, v := range k.entries {
		values = append(values, v)
	}

	return values
}

// Get returns the live value of the given replica, if any.
func (k *KernelSingle[V]) Get(id ReplicaID) (V, bool) {

	for d, v := range k.entries {

		if d.ID == id {
			return v, true
		}
	}

	var zero V

	return zero, false
}

// Set retires this replica's previous dot, records value
// under a freshly allocated dot and returns the delta. The
// delta context carries the retired dot as well so that the
// replacement propagates to replicas still holding the old
// value. On a read-only replica this is a no-op returning an
// empty delta.
func (k *KernelSingle[V]) Set(value V) *KernelSingle[V] {

	delta := InitKernelSingle[V](k.id)

	if k.id == 0 {
		return delta
	}

	// Retire the previous dot of this replica.
	for d := range k.entries {

		if d.ID == k.id {
			delete(k.entries, d)
			delta.ctx.Set(d, false)
		}
	}

	d := k.ctx.NextDot(k.id)
	k.entries[d] = value

	delta.entries[d] = value
	delta.ctx.Set(d, true)

	return delta
}

// RemoveValue drops every live pair whose value matches the
// given one under the supplied equality predicate, collecting
// the dropped dots in the delta context. On a read-only
// replica this is a no-op returning an empty delta.
func (k *KernelSingle[V]) RemoveValue(value V, eq func(a V, b V) bool) *KernelSingle[V] {

	delta := InitKernelSingle[V](k.id)

	if k.id == 0 {
		return delta
	}

	for d, v := range k.entries {

		if eq(value, v) {
			delete(k.entries, d)
			delta.ctx.Set(d, false)
		}
	}

	delta.ctx.Compact()

	return delta
}

// RemoveAll drops every live pair, collecting the dropped
// dots in the delta context. On a read-only replica this is
// a no-op returning an empty delta.
func (k *KernelSingle[V]) RemoveAll() *KernelSingle[V] {

	delta := InitKernelSingle[V](k.id)

	if k.id == 0 {
		return delta
	}

	for d := range k.entries {
		delete(k.entries, d)
		delta.ctx.Set(d, false)
	}

	delta.ctx.Compact()

	return delta
}

// Converge merges other into k with the shared three-phase
// kernel merge and then re-establishes the one-dot-per-replica
// invariant: of two live dots of the same replica only the
// higher one survives in the live map.
func (k *KernelSingle[V]) Converge(other *KernelSingle[V]) bool {

	changed := kernelConverge(k.ctx, k.entries, other.ctx, other.entries)

	if k.dropSuperseded() {
		changed = true
	}

	return changed
}

// dropSuperseded removes all but the highest live dot of
// every replica from the live map. The dropped dots are in
// the context already, so no causal information is lost.
func (k *KernelSingle[V]) dropSuperseded() bool {

	best := make(map[ReplicaID]Dot)
	for d := range k.entries {

		b, found := best[d.ID]
		if !found || b.Seq < d.Seq {
			best[d.ID] = d
		}
	}

	changed := false
	for d := range k.entries {

		if best[d.ID] != d {
			delete(k.entries, d)
			changed = true
		}
	}

	return changed
}

// IsEmpty reports whether the kernel holds no live values.
func (k *KernelSingle[V]) IsEmpty() bool {
	return len(k.entries) == 0
}

// Clear is RemoveAll under the name the shared causal
// contract requires.
func (k *KernelSingle[V]) Clear() *KernelSingle[V] {
	return k.RemoveAll()
}

// Eq reports structural equality: the same live pairs and
// the same causal history.
func (k *KernelSingle[V]) Eq(other *KernelSingle[V]) bool {
	return kernelEq(k.ctx, k.entries, other.ctx, other.entries)
}

// EmitTokens emits the token form of the kernel. It shares
// the field arity of Kernel.
func (k *KernelSingle[V]) EmitTokens(emit func(Token[V])) {
	emitKernelTokens(emit, k.id, k.ctx, k.entries)
}

// FromKernelSingleTokens reconstructs a single-dot kernel
// from its token form.
func FromKernelSingleTokens[V comparable](r *TokenReader[V]) (*KernelSingle[V], error) {

	id, ctx, entries, err := kernelFromTokens(r)
	if err != nil {
		return nil, err
	}

	k := &KernelSingle[V]{
		id:      id,
		ctx:     ctx,
		entries: entries,
	}
	k.dropSuperseded()

	return k, nil
}
