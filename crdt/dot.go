package crdt

import (
	"fmt"
	"sort"
)

// Structs

// ReplicaID uniquely identifies one replica in a cluster.
// Uniqueness across the cluster is the caller's responsibility.
// The id 0 is reserved for read-only observer replicas which
// must never originate events of their own.
type ReplicaID uint64

// SeqNum is a per-replica monotonically increasing event
// counter. It starts at 1, the value 0 is reserved to mean
// "no event".
type SeqNum uint64

// Dot identifies exactly one event on exactly one replica
// as the pair of the replica's id and the sequence number
// the event was assigned there.
type Dot struct {
	ID  ReplicaID
	Seq SeqNum
}

// Functions

// Less orders dots lexicographically, first by replica
// id and then by sequence number.
func (d Dot) Less(other Dot) bool {

	if d.ID != other.ID {
		return d.ID < other.ID
	}

	return d.Seq < other.Seq
}

// String returns a compact human-readable representation
// of a dot, used in log and error output.
func (d Dot) String() string {
	return fmt.Sprintf("(%d,%d)", d.ID, d.Seq)
}

// sortDots brings a slice of dots into lexicographic order
// so that emitted token streams are deterministic.
func sortDots(dots []Dot) {

	sort.Slice(dots, func(i int, j int) bool {
		return dots[i].Less(dots[j])
	})
}

// sortReplicaIDs brings a slice of replica ids into
// ascending order, for the same reason.
func sortReplicaIDs(ids []ReplicaID) {

	sort.Slice(ids, func(i int, j int) bool {
		return ids[i] < ids[j]
	})
}
