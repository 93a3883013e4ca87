package crdt

import (
	"testing"
)

// Functions

// TestKernelSet executes a white-box unit test on
// implemented Set() function.
func TestKernelSet(t *testing.T) {

	k := InitKernel[string](1)

	delta := k.Set("x")

	if len(k.entries) != 1 {
		t.Fatalf("[crdt.TestKernelSet] Expected 1 live entry after set but found %d.\n", len(k.entries))
	}

	if k.entries[Dot{ID: 1, Seq: 1}] != "x" {
		t.Fatalf("[crdt.TestKernelSet] Expected value 'x' under dot (1,1) but found '%s'.\n", k.entries[Dot{ID: 1, Seq: 1}])
	}

	if !k.ctx.Contains(Dot{ID: 1, Seq: 1}) {
		t.Fatalf("[crdt.TestKernelSet] Expected dot (1,1) in context but Contains() returns false.\n")
	}

	// The delta carries exactly the new pair.
	if len(delta.entries) != 1 {
		t.Fatalf("[crdt.TestKernelSet] Expected delta to carry 1 entry but found %d.\n", len(delta.entries))
	}

	if !delta.ctx.Contains(Dot{ID: 1, Seq: 1}) {
		t.Fatalf("[crdt.TestKernelSet] Expected delta context to contain dot (1,1) but Contains() returns false.\n")
	}

	// A second set allocates the next dot.
	k.Set("y")

	if k.entries[Dot{ID: 1, Seq: 2}] != "y" {
		t.Fatalf("[crdt.TestKernelSet] Expected value 'y' under dot (1,2) but found '%s'.\n", k.entries[Dot{ID: 1, Seq: 2}])
	}
}

// TestKernelObservedRemove executes a white-box unit test on
// the observed-remove semantics of RemoveValue() and
// Converge(): a removal only suppresses dots the remover has
// observed.
func TestKernelObservedRemove(t *testing.T) {

	a := InitKernel[string](1)
	b := InitKernel[string](2)

	// Replica a sets "x" under dot (1,1) and the full state
	// merges over to b.
	a.Set("x")

	if !b.Converge(a) {
		t.Fatalf("[crdt.TestKernelObservedRemove] Expected merge into b to report change but Converge() returns false.\n")
	}

	// Replica b removes "x" and the removal delta merges
	// back to a.
	removeDelta := b.RemoveValue("x", func(x string, y string) bool { return x == y })

	if len(b.entries) != 0 {
		t.Fatalf("[crdt.TestKernelObservedRemove] Expected b to hold no live entries after remove but found %d.\n", len(b.entries))
	}

	if !a.Converge(removeDelta) {
		t.Fatalf("[crdt.TestKernelObservedRemove] Expected removal merge into a to report change but Converge() returns false.\n")
	}

	if len(a.entries) != 0 {
		t.Fatalf("[crdt.TestKernelObservedRemove] Expected a to hold no live entries after removal merged but found %d.\n", len(a.entries))
	}

	if !a.ctx.Contains(Dot{ID: 1, Seq: 1}) {
		t.Fatalf("[crdt.TestKernelObservedRemove] Expected dot (1,1) to survive in a's context but Contains() returns false.\n")
	}
}

// TestKernelConcurrentAddSurvives executes a white-box unit
// test on Converge(): an addition concurrent to a removal is
// not suppressed, because the remover never observed its dot.
func TestKernelConcurrentAddSurvives(t *testing.T) {

	a := InitKernel[string](1)
	b := InitKernel[string](2)

	a.Set("x")
	b.Converge(a)

	removeDelta := b.RemoveValue("x", func(x string, y string) bool { return x == y })

	// Before seeing the removal, a concurrently re-adds "x"
	// under the fresh dot (1,2).
	a.Set("x")

	a.Converge(removeDelta)

	if len(a.entries) != 1 {
		t.Fatalf("[crdt.TestKernelConcurrentAddSurvives] Expected concurrent add to survive but found %d live entries.\n", len(a.entries))
	}

	if a.entries[Dot{ID: 1, Seq: 2}] != "x" {
		t.Fatalf("[crdt.TestKernelConcurrentAddSurvives] Expected surviving value 'x' under dot (1,2) but found '%s'.\n", a.entries[Dot{ID: 1, Seq: 2}])
	}

	// Completing the exchange converges both replicas onto
	// the surviving add.
	b.Converge(a)

	if !a.Eq(b) {
		t.Fatalf("[crdt.TestKernelConcurrentAddSurvives] Expected replicas to converge onto the same state but Eq() returns false.\n")
	}
}

// TestKernelRemoveAll executes a white-box unit test on
// implemented RemoveAll() function.
func TestKernelRemoveAll(t *testing.T) {

	k := InitKernel[string](1)
	k.Set("x")
	k.Set("y")

	delta := k.RemoveAll()

	if !k.IsEmpty() {
		t.Fatalf("[crdt.TestKernelRemoveAll] Expected kernel to be empty after RemoveAll() but IsEmpty() returns false.\n")
	}

	if len(delta.entries) != 0 {
		t.Fatalf("[crdt.TestKernelRemoveAll] Expected removal delta to carry no entries but found %d.\n", len(delta.entries))
	}

	if !delta.ctx.Contains(Dot{ID: 1, Seq: 1}) || !delta.ctx.Contains(Dot{ID: 1, Seq: 2}) {
		t.Fatalf("[crdt.TestKernelRemoveAll] Expected removal delta context to collect both dropped dots.\n")
	}
}

// TestKernelReadOnlyReplica executes a white-box unit test
// on the id 0 observer policy: mutators are silent no-ops
// returning empty deltas, merges still apply.
func TestKernelReadOnlyReplica(t *testing.T) {

	observer := InitKernel[string](0)

	delta := observer.Set("x")
	if !delta.IsEmpty() || !delta.ctx.IsEmpty() {
		t.Fatalf("[crdt.TestKernelReadOnlyReplica] Expected empty delta from Set() on read-only replica.\n")
	}

	if len(observer.entries) != 0 {
		t.Fatalf("[crdt.TestKernelReadOnlyReplica] Expected read-only replica to stay empty after Set() but found %d entries.\n", len(observer.entries))
	}

	// Merging foreign state into an observer works.
	writer := InitKernel[string](1)
	writer.Set("x")

	if !observer.Converge(writer) {
		t.Fatalf("[crdt.TestKernelReadOnlyReplica] Expected merge into read-only replica to report change but Converge() returns false.\n")
	}

	delta = observer.RemoveValue("x", func(x string, y string) bool { return x == y })
	if !delta.ctx.IsEmpty() {
		t.Fatalf("[crdt.TestKernelReadOnlyReplica] Expected empty delta from RemoveValue() on read-only replica.\n")
	}

	if len(observer.entries) != 1 {
		t.Fatalf("[crdt.TestKernelReadOnlyReplica] Expected read-only replica to retain merged entry but found %d entries.\n", len(observer.entries))
	}
}

// TestKernelTokens executes a white-box unit test on the
// token round-trip of the kernel.
func TestKernelTokens(t *testing.T) {

	k := InitKernel[string](1)
	k.Set("x")
	k.Set("y")
	k.RemoveValue("x", func(x string, y string) bool { return x == y })

	tokens := CollectTokens[string](k.EmitTokens)

	parsed, err := FromKernelTokens[string](NewTokenReader(tokens))
	if err != nil {
		t.Fatalf("[crdt.TestKernelTokens] Expected successful parse but received error: %v.\n", err)
	}

	if !k.Eq(parsed) {
		t.Fatalf("[crdt.TestKernelTokens] Expected round-tripped kernel to equal original but Eq() returns false.\n")
	}

	if k.Converge(parsed) {
		t.Fatalf("[crdt.TestKernelTokens] Expected merge of round-tripped kernel to report no change but Converge() returns true.\n")
	}
}
