package crdt

// Structs

// MVRegister is a multi-value register over the dotted
// kernel. A write overwrites everything the writer has
// observed, but writes issued concurrently on different
// replicas all survive the merge; readers see the full set
// of concurrent values and resolve it at the application
// level.
type MVRegister[V comparable] struct {
	kern *Kernel[V]
}

// LWWRegister is a last-writer-wins register whose winner is
// chosen causally rather than by wall-clock timestamp: it is
// built on the single-dot kernel, so a replica's newer write
// always supersedes its older one, and among concurrent
// writes of different replicas the lexicographically highest
// dot decides deterministically.
type LWWRegister[V comparable] struct {
	kern *KernelSingle[V]
}

// Functions

// InitMVRegister returns an empty initialized new
// multi-value register owned by the given replica id.
func InitMVRegister[V comparable](id ReplicaID) *MVRegister[V] {

	return &MVRegister[V]{
		kern: InitKernel[V](id),
	}
}

// ID returns the id of the replica owning this register.
func (r *MVRegister[V]) ID() ReplicaID {
	return r.kern.ID()
}

// Values returns all currently surviving values. More than
// one value means concurrent unresolved writes.
func (r *MVRegister[V]) Values() []V {
	return r.kern.Values()
}

// Set overwrites every observed value with v and returns
// the delta. On a read-only replica this is a no-op
// returning an empty delta.
func (r *MVRegister[V]) Set(v V) *MVRegister[V] {

	delta := r.kern.RemoveAll()
	delta.Converge(r.kern.Set(v))

	return &MVRegister[V]{kern: delta}
}

// Converge merges other into r and returns true iff r
// gained information.
func (r *MVRegister[V]) Converge(other *MVRegister[V]) bool {
	return r.kern.Converge(other.kern)
}

// IsEmpty reports whether the register holds no value.
func (r *MVRegister[V]) IsEmpty() bool {
	return r.kern.IsEmpty()
}

// Clear drops every value and returns the delta.
func (r *MVRegister[V]) Clear() *MVRegister[V] {

	return &MVRegister[V]{
		kern: r.kern.RemoveAll(),
	}
}

// Eq compares two registers by value: the same set of
// surviving values.
func (r *MVRegister[V]) Eq(other *MVRegister[V]) bool {
	return sameValueSet(r.Values(), other.Values())
}

// EmitTokens emits the token form of the register, which is
// that of its kernel.
func (r *MVRegister[V]) EmitTokens(emit func(Token[V])) {
	r.kern.EmitTokens(emit)
}

// FromMVRegisterTokens reconstructs a multi-value register
// from its token form.
func FromMVRegisterTokens[V comparable](r *TokenReader[V]) (*MVRegister[V], error) {

	kern, err := FromKernelTokens[V](r)
	if err != nil {
		return nil, err
	}

	return &MVRegister[V]{kern: kern}, nil
}

// InitLWWRegister returns an empty initialized new
// last-writer-wins register owned by the given replica id.
func InitLWWRegister[V comparable](id ReplicaID) *LWWRegister[V] {

	return &LWWRegister[V]{
		kern: InitKernelSingle[V](id),
	}
}

// ID returns the id of the replica owning this register.
func (r *LWWRegister[V]) ID() ReplicaID {
	return r.kern.ID()
}

// Value returns the winning value, or false if the register
// is empty. The winner is the value carried by the highest
// live dot.
func (r *LWWRegister[V]) Value() (V, bool) {

	var winner Dot
	var value V
	found := false

	r.kern.Each(func(d Dot, v V) {
		if !found || winner.Less(d) {
			winner = d
			value = v
			found = true
		}
	})

	return value, found
}

// Set writes v and returns the delta. On a read-only replica
// this is a no-op returning an empty delta.
func (r *LWWRegister[V]) Set(v V) *LWWRegister[V] {

	return &LWWRegister[V]{
		kern: r.kern.Set(v),
	}
}

// Converge merges other into r and returns true iff r
// gained information.
func (r *LWWRegister[V]) Converge(other *LWWRegister[V]) bool {
	return r.kern.Converge(other.kern)
}

// IsEmpty reports whether the register holds no value.
func (r *LWWRegister[V]) IsEmpty() bool {
	return r.kern.IsEmpty()
}

// Clear drops the value and returns the delta.
func (r *LWWRegister[V]) Clear() *LWWRegister[V] {

	return &LWWRegister[V]{
		kern: r.kern.RemoveAll(),
	}
}

// Eq compares two registers by their winning value.
func (r *LWWRegister[V]) Eq(other *LWWRegister[V]) bool {

	mine, myFound := r.Value()
	theirs, theirFound := other.Value()

	if myFound != theirFound {
		return false
	}

	return !myFound || (mine == theirs)
}

// EmitTokens emits the token form of the register, which is
// that of its kernel.
func (r *LWWRegister[V]) EmitTokens(emit func(Token[V])) {
	r.kern.EmitTokens(emit)
}

// FromLWWRegisterTokens reconstructs a last-writer-wins
// register from its token form.
func FromLWWRegisterTokens[V comparable](r *TokenReader[V]) (*LWWRegister[V], error) {

	kern, err := FromKernelSingleTokens[V](r)
	if err != nil {
		return nil, err
	}

	return &LWWRegister[V]{kern: kern}, nil
}

// sameValueSet reports whether two value slices contain the
// same set of values.
func sameValueSet[V comparable](a []V, b []V) bool {

	if len(a) != len(b) {
		return false
	}

	lookup := make(map[V]struct{}, len(b))
	for _, v := range b {
		lookup[v] = struct{}{}
	}

	for _, v := range a {
		if _, found := lookup[v]; !found {
			return false
		}
	}

	return true
}
