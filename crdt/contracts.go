package crdt

// Structs

// Convergent is the contract every CRDT of this package
// satisfies: merging another instance of the same type,
// full state or delta, into the receiver. Converge returns
// true iff the receiver gained information; merging a
// duplicate, an empty delta or the receiver's own state
// yields false and leaves the receiver unchanged, never an
// error.
type Convergent[T any] interface {
	Converge(other T) bool
}

// Causal is the extended contract of the CRDTs built on the
// dotted kernels. Clear returns a delta that removes every
// live value while retaining the causal history, so the
// removal propagates like any other mutation.
type Causal[T any] interface {
	Convergent[T]

	IsEmpty() bool
	Clear() T
}

// Interface conformance assertions.
var (
	_ Convergent[*Context]               = (*Context)(nil)
	_ Convergent[*GCounter[uint64]]      = (*GCounter[uint64])(nil)
	_ Convergent[*PNCounter[uint64]]     = (*PNCounter[uint64])(nil)
	_ Causal[*Kernel[string]]            = (*Kernel[string])(nil)
	_ Causal[*KernelSingle[string]]      = (*KernelSingle[string])(nil)
	_ Causal[*ORSet[string]]             = (*ORSet[string])(nil)
	_ Causal[*MVRegister[string]]        = (*MVRegister[string])(nil)
	_ Causal[*LWWRegister[string]]       = (*LWWRegister[string])(nil)
	_ Causal[*CCounter[uint64]]          = (*CCounter[uint64])(nil)
	_ Causal[*ORMap[string, string]]     = (*ORMap[string, string])(nil)
)
