package crdt

import (
	"testing"

	"github.com/pkg/errors"
)

// Functions

// TestContextCompaction executes a white-box unit test on
// implemented Set() and Compact() functions: out-of-order
// insertions fold into the dense prefix once the missing
// predecessor arrives.
func TestContextCompaction(t *testing.T) {

	ctx := InitContext()

	// Insert (a,2) and (a,3) ahead of (a,1).
	ctx.Set(Dot{ID: 1, Seq: 2}, true)
	ctx.Set(Dot{ID: 1, Seq: 3}, true)

	if ctx.dense[1] != 0 {
		t.Fatalf("[crdt.TestContextCompaction] Expected dense prefix 0 before predecessor arrived but found %d.\n", ctx.dense[1])
	}

	if len(ctx.gaps) != 2 {
		t.Fatalf("[crdt.TestContextCompaction] Expected 2 gap dots but found %d.\n", len(ctx.gaps))
	}

	// Insert the missing (a,1); the whole run folds.
	ctx.Set(Dot{ID: 1, Seq: 1}, true)

	if ctx.dense[1] != 3 {
		t.Fatalf("[crdt.TestContextCompaction] Expected dense prefix 3 after compaction but found %d.\n", ctx.dense[1])
	}

	if len(ctx.gaps) != 0 {
		t.Fatalf("[crdt.TestContextCompaction] Expected empty gap set after compaction but found %d dots.\n", len(ctx.gaps))
	}
}

// TestContextContains executes a white-box unit test on
// implemented Contains() function.
func TestContextContains(t *testing.T) {

	ctx := InitContext()

	ctx.Set(Dot{ID: 1, Seq: 1}, true)
	ctx.Set(Dot{ID: 1, Seq: 2}, true)
	ctx.Set(Dot{ID: 2, Seq: 5}, true)

	if !ctx.Contains(Dot{ID: 1, Seq: 1}) {
		t.Fatalf("[crdt.TestContextContains] Expected (1,1) to be contained but Contains() returns false.\n")
	}

	if !ctx.Contains(Dot{ID: 1, Seq: 2}) {
		t.Fatalf("[crdt.TestContextContains] Expected (1,2) to be contained but Contains() returns false.\n")
	}

	if !ctx.Contains(Dot{ID: 2, Seq: 5}) {
		t.Fatalf("[crdt.TestContextContains] Expected gap dot (2,5) to be contained but Contains() returns false.\n")
	}

	if ctx.Contains(Dot{ID: 1, Seq: 3}) {
		t.Fatalf("[crdt.TestContextContains] Expected (1,3) not to be contained but Contains() returns true.\n")
	}

	if ctx.Contains(Dot{ID: 2, Seq: 4}) {
		t.Fatalf("[crdt.TestContextContains] Expected (2,4) not to be contained but Contains() returns true.\n")
	}
}

// TestContextNextDot executes a white-box unit test on
// implemented NextDot() function.
func TestContextNextDot(t *testing.T) {

	ctx := InitContext()

	d := ctx.NextDot(1)
	if (d != Dot{ID: 1, Seq: 1}) {
		t.Fatalf("[crdt.TestContextNextDot] Expected first dot (1,1) but received %s.\n", d)
	}

	d = ctx.NextDot(1)
	if (d != Dot{ID: 1, Seq: 2}) {
		t.Fatalf("[crdt.TestContextNextDot] Expected second dot (1,2) but received %s.\n", d)
	}

	// A hole between the dense prefix and a gap dot is
	// filled first.
	ctx.Set(Dot{ID: 2, Seq: 1}, true)
	ctx.Set(Dot{ID: 2, Seq: 3}, true)

	d = ctx.NextDot(2)
	if (d != Dot{ID: 2, Seq: 2}) {
		t.Fatalf("[crdt.TestContextNextDot] Expected dot (2,2) to fill the hole but received %s.\n", d)
	}

	// Filling the hole folds (2,3) in, so the next dot is (2,4).
	d = ctx.NextDot(2)
	if (d != Dot{ID: 2, Seq: 4}) {
		t.Fatalf("[crdt.TestContextNextDot] Expected dot (2,4) past the folded gap but received %s.\n", d)
	}

	if !ctx.Contains(Dot{ID: 2, Seq: 4}) {
		t.Fatalf("[crdt.TestContextNextDot] Expected returned dot to be recorded but Contains() returns false.\n")
	}
}

// TestContextConverge executes a white-box unit test on
// implemented Converge() function.
func TestContextConverge(t *testing.T) {

	ctx1 := InitContext()
	ctx2 := InitContext()

	ctx1.Set(Dot{ID: 1, Seq: 1}, true)
	ctx1.Set(Dot{ID: 1, Seq: 2}, true)

	ctx2.Set(Dot{ID: 1, Seq: 3}, true)
	ctx2.Set(Dot{ID: 2, Seq: 1}, true)

	if !ctx1.Converge(ctx2) {
		t.Fatalf("[crdt.TestContextConverge] Expected first merge to report change but Converge() returns false.\n")
	}

	// (1,3) from the gap set of ctx2 folds onto the dense
	// prefix [1..2] of ctx1.
	if ctx1.dense[1] != 3 {
		t.Fatalf("[crdt.TestContextConverge] Expected dense prefix 3 for replica 1 but found %d.\n", ctx1.dense[1])
	}

	if ctx1.dense[2] != 1 {
		t.Fatalf("[crdt.TestContextConverge] Expected dense prefix 1 for replica 2 but found %d.\n", ctx1.dense[2])
	}

	// Merging the same context again gains nothing.
	if ctx1.Converge(ctx2) {
		t.Fatalf("[crdt.TestContextConverge] Expected repeated merge to report no change but Converge() returns true.\n")
	}

	// Self-merge gains nothing either.
	if ctx1.Converge(ctx1.Clone()) {
		t.Fatalf("[crdt.TestContextConverge] Expected self-merge to report no change but Converge() returns true.\n")
	}
}

// TestContextTokens executes a white-box unit test on the
// token round-trip of the context.
func TestContextTokens(t *testing.T) {

	ctx := InitContext()
	ctx.Set(Dot{ID: 1, Seq: 1}, true)
	ctx.Set(Dot{ID: 1, Seq: 2}, true)
	ctx.Set(Dot{ID: 3, Seq: 7}, true)

	tokens := CollectTokens[string](func(emit func(Token[string])) {
		EmitContextTokens(ctx, emit)
	})

	parsed, err := ContextFromTokens(NewTokenReader(tokens))
	if err != nil {
		t.Fatalf("[crdt.TestContextTokens] Expected successful parse but received error: %v.\n", err)
	}

	if !ctx.Eq(parsed) {
		t.Fatalf("[crdt.TestContextTokens] Expected round-tripped context to equal original but Eq() returns false.\n")
	}

	if ctx.Converge(parsed) {
		t.Fatalf("[crdt.TestContextTokens] Expected merge of round-tripped context to report no change but Converge() returns true.\n")
	}

	// A truncated stream must surface ErrMalformedTokens.
	_, err = ContextFromTokens(NewTokenReader(tokens[:(len(tokens) - 1)]))
	if errors.Cause(err) != ErrMalformedTokens {
		t.Fatalf("[crdt.TestContextTokens] Expected ErrMalformedTokens for truncated stream but received: %v.\n", err)
	}

	// A wrong leading count must surface ErrMalformedTokens.
	bad := append([]Token[string]{CountToken[string](5)}, tokens[1:]...)
	_, err = ContextFromTokens(NewTokenReader(bad))
	if errors.Cause(err) != ErrMalformedTokens {
		t.Fatalf("[crdt.TestContextTokens] Expected ErrMalformedTokens for wrong arity but received: %v.\n", err)
	}

	// An odd pair group count must surface ErrMalformedTokens.
	bad = append([]Token[string]{}, tokens...)
	bad[1] = CountToken[string](3)
	_, err = ContextFromTokens(NewTokenReader(bad))
	if errors.Cause(err) != ErrMalformedTokens {
		t.Fatalf("[crdt.TestContextTokens] Expected ErrMalformedTokens for odd pair count but received: %v.\n", err)
	}
}
