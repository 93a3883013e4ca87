package crdt

// Structs

// Unsigned constrains the entry type of the counter CRDTs
// to the unsigned integer types.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// GCounter is a grow-only counter. Each replica owns one
// entry that only it increments; the counter value is the
// sum over all entries. Convergence takes the per-replica
// maximum, so entries are monotonically non-decreasing.
// Entry arithmetic wraps according to Go's unsigned integer
// semantics.
type GCounter[N Unsigned] struct {
	id   ReplicaID
	data map[ReplicaID]N
}

// Functions

// InitGCounter returns an empty initialized new grow-only
// counter owned by the given replica id.
func InitGCounter[N Unsigned](id ReplicaID) *GCounter[N] {

	return &GCounter[N]{
		id:   id,
		data: make(map[ReplicaID]N),
	}
}

// ID returns the id of the replica owning this counter.
func (c *GCounter[N]) ID() ReplicaID {
	return c.id
}

// Value returns the sum over all per-replica entries.
func (c *GCounter[N]) Value() N {

	var total N
	for _, v := range c.data {
		total += v
	}

	return total
}

// Increment raises this replica's entry by n and returns the
// delta carrying only the new entry. Callers wanting the
// conventional unit increment pass 1. On a read-only replica
// (id 0) this is a no-op returning an empty delta.
func (c *GCounter[N]) Increment(n N) *GCounter[N] {

	delta := InitGCounter[N](c.id)

	if c.id == 0 {
		return delta
	}

	c.data[c.id] += n
	delta.data[c.id] = c.data[c.id]

	return delta
}

// Converge merges other, full state or delta, into c by
// taking the per-replica maximum and returns true iff any
// entry grew.
func (c *GCounter[N]) Converge(other *GCounter[N]) bool {

	changed := false

	for id, v := range other.data {

		if v > c.data[id] {
			c.data[id] = v
			changed = true
		}
	}

	return changed
}

// Eq compares two counters by value, not structurally: two
// counters are equal iff their sums are. Convergence on the
// other hand is structural, so Eq(other) == true does not
// make Converge(other) a no-op.
func (c *GCounter[N]) Eq(other *GCounter[N]) bool {
	return c.Value() == other.Value()
}

// Less orders two counters by value.
func (c *GCounter[N]) Less(other *GCounter[N]) bool {
	return c.Value() < other.Value()
}

// EmitTokens emits the token form of the counter: a leading
// count of 2, the replica id and the entry map as a pair
// group of (id, entry).
func (c *GCounter[N]) EmitTokens(emit func(Token[N])) {

	emit(CountToken[N](2))
	emit(NumToken[N](uint64(c.id)))

	emitCounterData(emit, c.data)
}

// FromGCounterTokens reconstructs a grow-only counter from
// its token form.
func FromGCounterTokens[N Unsigned](r *TokenReader[N]) (*GCounter[N], error) {

	n, err := r.Count()
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, errorsWrongArity("gcounter", 2, n)
	}

	id, err := r.Num()
	if err != nil {
		return nil, err
	}

	data, err := counterDataFromTokens(r)
	if err != nil {
		return nil, err
	}

	return &GCounter[N]{
		id:   ReplicaID(id),
		data: data,
	}, nil
}

// emitCounterData emits one per-replica entry map as a pair
// group of (id, entry) in deterministic order. Entries travel
// as unsigned scalars, not as user values.
func emitCounterData[N Unsigned](emit func(Token[N]), data map[ReplicaID]N) {

	ids := make([]ReplicaID, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sortReplicaIDs(ids)

	emit(CountToken[N](uint64(2 * len(data))))
	for _, id := range ids {
		emit(NumToken[N](uint64(id)))
		emit(NumToken[N](uint64(data[id])))
	}
}

// counterDataFromTokens consumes one per-replica entry map.
func counterDataFromTokens[N Unsigned](r *TokenReader[N]) (map[ReplicaID]N, error) {

	data := make(map[ReplicaID]N)

	dataLen, err := r.PairCount()
	if err != nil {
		return nil, err
	}

	for i := uint64(0); i < dataLen; i += 2 {

		id, err := r.Num()
		if err != nil {
			return nil, err
		}

		v, err := r.Num()
		if err != nil {
			return nil, err
		}

		data[ReplicaID(id)] = N(v)
	}

	return data, nil
}
