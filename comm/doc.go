/*
Package comm implements the delta exchange between the replica nodes of a
dotted cluster. Outgoing deltas are journaled to an on-disk log before they
are shipped, so a crashing node resumes delivery where it left off. Delivery
is at-least-once over long-lived, mutually-authenticated TLS connections;
because the CRDTs of package crdt converge under reordering and duplication,
no causal ordering and no deduplication is performed here.
*/
package comm
