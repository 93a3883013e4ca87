package crdt

// Structs

// PNCounter is a counter supporting both increments and
// decrements. It pairs two grow-only counters keyed by the
// same replica id, one accumulating the positive and one the
// negative share. The value is the signed difference of the
// two sums, computed in int64 regardless of the entry type N
// so that a negative balance over an unsigned N stays
// representable. Sums beyond the int64 range wrap; callers
// needing more headroom pick a narrower N.
type PNCounter[N Unsigned] struct {
	id  ReplicaID
	pos *GCounter[N]
	neg *GCounter[N]
}

// Functions

// InitPNCounter returns an empty initialized new counter
// owned by the given replica id.
func InitPNCounter[N Unsigned](id ReplicaID) *PNCounter[N] {

	return &PNCounter[N]{
		id:  id,
		pos: InitGCounter[N](id),
		neg: InitGCounter[N](id),
	}
}

// ID returns the id of the replica owning this counter.
func (c *PNCounter[N]) ID() ReplicaID {
	return c.id
}

// Value returns the signed difference of the positive and
// negative sums, widened to int64.
func (c *PNCounter[N]) Value() int64 {
	return int64(uint64(c.pos.Value())) - int64(uint64(c.neg.Value()))
}

// Increment raises the positive share by n and returns the
// delta. On a read-only replica this is a no-op returning an
// empty delta.
func (c *PNCounter[N]) Increment(n N) *PNCounter[N] {

	delta := InitPNCounter[N](c.id)
	delta.pos = c.pos.Increment(n)

	return delta
}

// Decrement raises the negative share by n and returns the
// delta. On a read-only replica this is a no-op returning an
// empty delta.
func (c *PNCounter[N]) Decrement(n N) *PNCounter[N] {

	delta := InitPNCounter[N](c.id)
	delta.neg = c.neg.Increment(n)

	return delta
}

// Converge merges other pairwise into c and returns true iff
// either share gained an entry.
func (c *PNCounter[N]) Converge(other *PNCounter[N]) bool {

	changedPos := c.pos.Converge(other.pos)
	changedNeg := c.neg.Converge(other.neg)

	return changedPos || changedNeg
}

// Eq compares two counters by value.
func (c *PNCounter[N]) Eq(other *PNCounter[N]) bool {
	return c.Value() == other.Value()
}

// Less orders two counters by value.
func (c *PNCounter[N]) Less(other *PNCounter[N]) bool {
	return c.Value() < other.Value()
}

// EmitTokens emits the token form of the counter: a leading
// count of 3, the replica id and the two entry maps as pair
// groups of (id, entry).
func (c *PNCounter[N]) EmitTokens(emit func(Token[N])) {

	emit(CountToken[N](3))
	emit(NumToken[N](uint64(c.id)))

	emitCounterData(emit, c.pos.data)
	emitCounterData(emit, c.neg.data)
}

// FromPNCounterTokens reconstructs a counter from its token
// form.
func FromPNCounterTokens[N Unsigned](r *TokenReader[N]) (*PNCounter[N], error) {

	n, err := r.Count()
	if err != nil {
		return nil, err
	}
	if n != 3 {
		return nil, errorsWrongArity("pncounter", 3, n)
	}

	id, err := r.Num()
	if err != nil {
		return nil, err
	}

	posData, err := counterDataFromTokens(r)
	if err != nil {
		return nil, err
	}

	negData, err := counterDataFromTokens(r)
	if err != nil {
		return nil, err
	}

	c := InitPNCounter[N](ReplicaID(id))
	c.pos.data = posData
	c.neg.data = negData

	return c, nil
}
