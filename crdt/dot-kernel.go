package crdt

// Structs

// Kernel is the causal memory every observed-remove CRDT of
// this package is built on. It pairs a dot context with a map
// from live dots to user values. A dot present in the context
// but absent from the map marks an event whose value has been
// removed; its causal existence keeps suppressing stale
// re-additions during merges. The value of a dot is immutable
// once set, mutation means removing the old dot and adding a
// new one.
type Kernel[V comparable] struct {
	id      ReplicaID
	ctx     *Context
	entries map[Dot]V
}

// Functions

// InitKernel returns an empty initialized new kernel owned
// by the given replica id.
func InitKernel[V comparable](id ReplicaID) *Kernel[V] {

	return &Kernel[V]{
		id:      id,
		ctx:     InitContext(),
		entries: make(map[Dot]V),
	}
}

// ID returns the id of the replica owning this kernel.
func (k *Kernel[V]) ID() ReplicaID {
	return k.id
}

// Each calls fn once for every live (dot, value) pair.
func (k *Kernel[V]) Each(fn func(d Dot, v V)) {

	for d, v := range k.entries {
		fn(d, v)
	}
}

// Values returns all live values in unspecified order.
func (k *Kernel[V]) Values() []V {

	values := make([]V, 0, len(k.entries))
	for _, v := range k.entries {
		values = append(values, v)
	}

	return values
}

// Set records value under a freshly allocated dot of this
// replica and returns the delta carrying only that pair. On
// a read-only replica (id 0) this is a no-op returning an
// empty delta.
func (k *Kernel[V]) Set(value V) *Kernel[V] {

	delta := InitKernel[V](k.id)

	if k.id == 0 {
		return delta
	}

	d := k.ctx.NextDot(k.id)
	k.entries[d] = value

	delta.entries[d] = value
	delta.ctx.Set(d, true)

	return delta
}

// RemoveValue drops every live pair whose value matches the
// given one under the supplied equality predicate. The delta
// context collects the dropped dots while the delta map stays
// empty, which is exactly what makes the removal causally
// observable at other replicas. On a read-only replica this
// is a no-op returning an empty delta.
func (k *Kernel[V]) RemoveValue(value V, eq func(a V, b V) bool) *Kernel[V] {

	delta := InitKernel[V](k.id)

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

// RemoveAll drops every live pair. The delta context collects
// all dropped dots. On a read-only replica this is a no-op
// returning an empty delta.
func (k *Kernel[V]) RemoveAll() *Kernel[V] {

	delta := InitKernel[V](k.id)

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

// Converge merges other, which may be a full state or a
// delta, into k and returns true iff k gained information.
func (k *Kernel[V]) Converge(other *Kernel[V]) bool {
	return kernelConverge(k.ctx, k.entries, other.ctx, other.entries)
}

// IsEmpty reports whether the kernel holds no live values.
func (k *Kernel[V]) IsEmpty() bool {
	return len(k.entries) == 0
}

// Clear is RemoveAll under the name the shared causal
// contract requires.
func (k *Kernel[V]) Clear() *Kernel[V] {
	return k.RemoveAll()
}

// Eq reports structural equality: the same live pairs and
// the same causal history.
func (k *Kernel[V]) Eq(other *Kernel[V]) bool {
	return kernelEq(k.ctx, k.entries, other.ctx, other.entries)
}

// EmitTokens emits the token form of the kernel: a leading
// count of 3, the replica id, the live map as a pair group
// of (dot, value) and the embedded context.
func (k *Kernel[V]) EmitTokens(emit func(Token[V])) {
	emitKernelTokens(emit, k.id, k.ctx, k.entries)
}

// FromKernelTokens reconstructs a kernel from its token form.
func FromKernelTokens[V comparable](r *TokenReader[V]) (*Kernel[V], error) {

	id, ctx, entries, err := kernelFromTokens(r)
	if err != nil {
		return nil, err
	}

	return &Kernel[V]{
		id:      id,
		ctx:     ctx,
		entries: entries,
	}, nil
}

// kernelConverge is the shared three-phase merge of the
// kernel variants:
//  1. Adopt pairs of other that are genuinely new here, i.e.
//     neither live nor causally known.
//  2. Drop live pairs that other has causally observed but
//     no longer retains; that removal is legitimate.
//  3. Converge the causal histories so future merges become
//     idempotent.
func kernelConverge[V comparable](ctx *Context, entries map[Dot]V, otherCtx *Context, otherEntries map[Dot]V) bool {

	changed := false

	// Phase 1: add.
	for d, v := range otherEntries {

		if _, live := entries[d]; live {
			continue
		}

		if ctx.Contains(d) {
			continue
		}

		entries[d] = v
		changed = true
	}

	// Phase 2: remove.
	for d := range entries {

		if _, live := otherEntries[d]; live {
			continue
		}

		if otherCtx.Contains(d) {
			delete(entries, d)
			changed = true
		}
	}

	// Phase 3: history.
	if ctx.Converge(otherCtx) {
		changed = true
	}

	return changed
}

// kernelEq is the shared structural equality of the kernel
// variants. The owning replica id is deliberately not part
// of it: two replicas holding the same pairs and history are
// in the same state.
func kernelEq[V comparable](ctx *Context, entries map[Dot]V, otherCtx *Context, otherEntries map[Dot]V) bool {

	if len(entries) != len(otherEntries) {
		return false
	}

	for d, v := range entries {

		ov, found := otherEntries[d]
		if !found || (ov != v) {
			return false
		}
	}

	return ctx.Eq(otherCtx)
}

// emitKernelTokens is the shared token producer of the
// kernel variants.
func emitKernelTokens[V comparable](emit func(Token[V]), id ReplicaID, ctx *Context, entries map[Dot]V) {

	emit(CountToken[V](3))
	emit(NumToken[V](uint64(id)))

	// Live map group: count 2k, then k (dot, value) pairs
	// in deterministic order.
	dots := make([]Dot, 0, len(entries))
	for d := range entries {
		dots = append(dots, d)
	}
	sortDots(dots)

	emit(CountToken[V](uint64(2 * len(dots))))
	for _, d := range dots {
		emit(NumToken[V](uint64(d.ID)))
		emit(NumToken[V](uint64(d.Seq)))
		emit(ValueToken[V](entries[d]))
	}

	EmitContextTokens(ctx, emit)
}

// kernelFromTokens is the shared token consumer of the
// kernel variants.
func kernelFromTokens[V comparable](r *TokenReader[V]) (ReplicaID, *Context, map[Dot]V, error) {

	n, err := r.Count()
	if err != nil {
		return 0, nil, nil, err
	}
	if n != 3 {
		return 0, nil, nil, errorsWrongArity("kernel", 3, n)
	}

	id, err := r.Num()
	if err != nil {
		return 0, nil, nil, err
	}

	// Live map group.
	entries := make(map[Dot]V)

	mapLen, err := r.PairCount()
	if err != nil {
		return 0, nil, nil, err
	}
	for i := uint64(0); i < mapLen; i += 2 {

		d, err := r.dot()
		if err != nil {
			return 0, nil, nil, err
		}

		v, err := r.Value()
		if err != nil {
			return 0, nil, nil, err
		}

		entries[d] = v
	}

	ctx, err := ContextFromTokens(r)
	if err != nil {
		return 0, nil, nil, err
	}

	return ReplicaID(id), ctx, entries, nil
}
