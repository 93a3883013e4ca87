package crdt

// Structs

// CCounter is a causal counter built on the single-dot
// kernel: each replica keeps its accumulated contribution as
// the value of its one live dot and re-dots it on every
// increment. Unlike GCounter it supports a causal reset via
// Clear, which retires every observed contribution while
// concurrent, unobserved increments survive.
type CCounter[N Unsigned] struct {
	kern *KernelSingle[N]
}

// Functions

// InitCCounter returns an empty initialized new causal
// counter owned by the given replica id.
func InitCCounter[N Unsigned](id ReplicaID) *CCounter[N] {

	return &CCounter[N]{
		kern: InitKernelSingle[N](id),
	}
}

// ID returns the id of the replica owning this counter.
func (c *CCounter[N]) ID() ReplicaID {
	return c.kern.ID()
}

// Value returns the sum over all live contributions.
func (c *CCounter[N]) Value() N {

	var total N

	c.kern.Each(func(d Dot, v N) {
		total += v
	})

	return total
}

// Increment raises this replica's contribution by n and
// returns the delta. On a read-only replica this is a no-op
// returning an empty delta.
func (c *CCounter[N]) Increment(n N) *CCounter[N] {

	current, _ := c.kern.Get(c.kern.ID())

	return &CCounter[N]{
		kern: c.kern.Set(current + n),
	}
}

// Converge merges other into c and returns true iff c
// gained information.
func (c *CCounter[N]) Converge(other *CCounter[N]) bool {
	return c.kern.Converge(other.kern)
}

// IsEmpty reports whether no contribution is live.
func (c *CCounter[N]) IsEmpty() bool {
	return c.kern.IsEmpty()
}

// Clear retires every observed contribution and returns the
// delta, resetting the counter to zero causally.
func (c *CCounter[N]) Clear() *CCounter[N] {

	return &CCounter[N]{
		kern: c.kern.RemoveAll(),
	}
}

// Eq compares two counters by value.
func (c *CCounter[N]) Eq(other *CCounter[N]) bool {
	return c.Value() == other.Value()
}

// EmitTokens emits the token form of the counter, which is
// that of its kernel.
func (c *CCounter[N]) EmitTokens(emit func(Token[N])) {
	c.kern.EmitTokens(emit)
}

// FromCCounterTokens reconstructs a causal counter from its
// token form.
func FromCCounterTokens[N Unsigned](r *TokenReader[N]) (*CCounter[N], error) {

	kern, err := FromKernelSingleTokens[N](r)
	if err != nil {
		return nil, err
	}

	return &CCounter[N]{kern: kern}, nil
}
