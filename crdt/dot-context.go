package crdt

// Structs

// Context compactly represents the set of all dots any
// replica has ever been observed to produce. For each
// replica id it remembers a dense prefix [1..dense[id]]
// of contiguous sequence numbers plus a gap set of later,
// non-contiguous dots that arrived out of order. Compaction
// folds any contiguous suffix of the gap set back into the
// dense prefix.
type Context struct {
	dense map[ReplicaID]SeqNum
	gaps  map[Dot]struct{}
}

// Functions

// InitContext returns an empty initialized new dot context.
func InitContext() *Context {

	return &Context{
		dense: make(map[ReplicaID]SeqNum),
		gaps:  make(map[Dot]struct{}),
	}
}

// Contains reports whether dot d has been observed, either
// because it falls into the dense prefix of its replica or
// because it sits in the gap set.
func (ctx *Context) Contains(d Dot) bool {

	if d.Seq <= ctx.dense[d.ID] {
		return true
	}

	_, found := ctx.gaps[d]

	return found
}

// Set inserts dot d into the context. Insertion goes through
// the gap set; if compactNow is true, compaction runs right
// away. Batch insertions pass false and compact once at the
// end.
func (ctx *Context) Set(d Dot, compactNow bool) {

	if ctx.Contains(d) {
		return
	}

	ctx.gaps[d] = struct{}{}

	if compactNow {
		ctx.Compact()
	}
}

// NextDot computes the smallest sequence number for replica
// id that is not yet contained, records the resulting dot in
// the context and returns it. Consecutive gap entries above
// the dense prefix should have been folded in by compaction
// already, but slack is tolerated by skipping over them.
func (ctx *Context) NextDot(id ReplicaID) Dot {

	next := ctx.dense[id] + 1

	// Advance past sequence numbers already sitting
	// in the gap set.
	for {
		if _, found := ctx.gaps[Dot{ID: id, Seq: next}]; !found {
			break
		}
		next++
	}

	d := Dot{ID: id, Seq: next}
	ctx.gaps[d] = struct{}{}
	ctx.Compact()

	return d
}

// Compact folds every contiguous suffix of the gap set into
// the dense prefix of its replica and drops gap entries the
// dense prefix already covers.
func (ctx *Context) Compact() {

	// Collect the replica ids present in the gap set.
	ids := make(map[ReplicaID]struct{})
	for d := range ctx.gaps {
		ids[d.ID] = struct{}{}
	}

	for id := range ids {

		// While the next expected sequence number is
		// present in the gap set, move it over into
		// the dense prefix.
		next := ctx.dense[id] + 1
		for {
			if _, found := ctx.gaps[Dot{ID: id, Seq: next}]; !found {
				break
			}
			delete(ctx.gaps, Dot{ID: id, Seq: next})
			next++
		}

		if next > (ctx.dense[id] + 1) {
			ctx.dense[id] = (next - 1)
		}
	}

	// A merge may have grown a dense prefix over dots
	// that are still lying in the gap set. Drop those.
	for d := range ctx.gaps {
		if d.Seq <= ctx.dense[d.ID] {
			delete(ctx.gaps, d)
		}
	}
}

// Converge merges the causal history of other into ctx by
// taking the per-replica maximum of the dense prefixes and
// the union of the gap sets, followed by one compaction.
// It returns true iff ctx gained at least one dot.
func (ctx *Context) Converge(other *Context) bool {

	changed := false

	for id, seq := range other.dense {
		if seq > ctx.dense[id] {
			ctx.dense[id] = seq
			changed = true
		}
	}

	for d := range other.gaps {
		if !ctx.Contains(d) {
			ctx.gaps[d] = struct{}{}
			changed = true
		}
	}

	ctx.Compact()

	return changed
}

// IsEmpty reports whether no dot at all has been observed.
func (ctx *Context) IsEmpty() bool {
	return (len(ctx.dense) == 0) && (len(ctx.gaps) == 0)
}

// Eq reports whether two contexts represent the same dot
// set. Both sides are compacted first so that equal sets in
// different fold states compare equal.
func (ctx *Context) Eq(other *Context) bool {

	ctx.Compact()
	other.Compact()

	if len(ctx.dense) != len(other.dense) {
		return false
	}

	for id, seq := range ctx.dense {
		if other.dense[id] != seq {
			return false
		}
	}

	if len(ctx.gaps) != len(other.gaps) {
		return false
	}

	for d := range ctx.gaps {
		if _, found := other.gaps[d]; !found {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the context.
func (ctx *Context) Clone() *Context {

	c := InitContext()

	for id, seq := range ctx.dense {
		c.dense[id] = seq
	}

	for d := range ctx.gaps {
		c.gaps[d] = struct{}{}
	}

	return c
}

// EmitContextTokens emits the token form of ctx: a leading
// count of 2, the dense map as a pair group of (id, seq) and
// the gap set as a counted group of dots.
func EmitContextTokens[V any](ctx *Context, emit func(Token[V])) {

	emit(CountToken[V](2))

	// Dense map group: count 2k, then k (id, seq) pairs
	// in deterministic order.
	ids := make([]ReplicaID, 0, len(ctx.dense))
	for id := range ctx.dense {
		ids = append(ids, id)
	}
	sortReplicaIDs(ids)

	emit(CountToken[V](uint64(2 * len(ctx.dense))))
	for _, id := range ids {
		emit(NumToken[V](uint64(id)))
		emit(NumToken[V](uint64(ctx.dense[id])))
	}

	// Gap set group: count k, then k dots.
	gaps := make([]Dot, 0, len(ctx.gaps))
	for d := range ctx.gaps {
		gaps = append(gaps, d)
	}
	sortDots(gaps)

	emit(CountToken[V](uint64(len(gaps))))
	for _, d := range gaps {
		emit(NumToken[V](uint64(d.ID)))
		emit(NumToken[V](uint64(d.Seq)))
	}
}

// ContextFromTokens reconstructs a context from its token
// form read off r.
func ContextFromTokens[V any](r *TokenReader[V]) (*Context, error) {

	ctx := InitContext()

	n, err := r.Count()
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, errorsWrongArity("context", 2, n)
	}

	// Dense map group.
	denseLen, err := r.PairCount()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < denseLen; i += 2 {

		id, err := r.Num()
		if err != nil {
			return nil, err
		}

		seq, err := r.Num()
		if err != nil {
			return nil, err
		}

		ctx.dense[ReplicaID(id)] = SeqNum(seq)
	}

	// Gap set group.
	gapsLen, err := r.Count()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < gapsLen; i++ {

		d, err := r.dot()
		if err != nil {
			return nil, err
		}

		ctx.gaps[d] = struct{}{}
	}

	return ctx, nil
}
