/*
Package crdt implements the delta-state conflict-free replicated data types
(CvRDTs) that replicated state in a dotted cluster is built on.

CAUTION! Consider these two requirements:
* Convergence only holds if every delta eventually reaches every replica. The
  transport may reorder and duplicate deltas freely, as provided by, for
  example, this repository's package comm, but it must not drop them forever.
* Access to the types this package provides is expected to be synchronized
  explicitly by some outside measures, e.g. by wrapping calls to this package
  with a mutex lock if concurrent access is possible. This package does not(!)
  synchronize access by itself.

Every mutator returns a delta: a CRDT of the same type carrying only the dots
and values the mutation introduced. Shipping and merging deltas via Converge
is equivalent to shipping and merging full states, only cheaper. Merging is
commutative, associative and idempotent, so at-least-once delivery in any
order suffices.

A replica constructed with id 0 is a read-only observer: it converges
incoming state but all of its mutators are silent no-ops that return an
empty delta.

The causal machinery of this package is a practical derivation from the
specification of dotted version vectors and observed-remove semantics by
Preguiça, Baquero, Almeida et al., available under:
https://arxiv.org/abs/1011.5808
*/
package crdt
