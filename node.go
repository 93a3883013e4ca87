package main

import (
	"fmt"
	"sync"

	"github.com/go-dotted/dotted/comm"
	"github.com/go-dotted/dotted/crdt"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Structs

// Node is one replica of the demo cluster state: an
// observed-remove set announcing cluster membership and a
// counter tallying the announcements. All CRDT access goes
// through the node's mutex, since package crdt does not
// synchronize by itself.
type Node struct {
	lock    *sync.Mutex
	logger  log.Logger
	metrics *NodeMetrics
	name    string
	members *crdt.ORSet[string]
	tally   *crdt.PNCounter[uint64]
	out     chan *comm.Msg
}

// Functions

// InitNode returns an initialized node holding empty
// replica state for the given replica id.
func InitNode(logger log.Logger, metrics *NodeMetrics, name string, id uint64) *Node {

	return &Node{
		lock:    &sync.Mutex{},
		logger:  logger,
		metrics: metrics,
		name:    name,
		members: crdt.InitORSet[string](crdt.ReplicaID(id)),
		tally:   crdt.InitPNCounter[uint64](crdt.ReplicaID(id)),
	}
}

// ConnectSender hands the node the channel deltas are
// shipped on. Until connected, mutations stay local.
func (node *Node) ConnectSender(out chan *comm.Msg) {
	node.out = out
}

// Apply converges one incoming delta message into the
// replica state addressed by the message's kind. It is the
// apply function handed to the comm receiver.
func (node *Node) Apply(msg *comm.Msg) error {

	tokens, err := crdt.DecodeTokens(msg.Payload)
	if err != nil {
		node.metrics.ApplyFailures.Add(1)
		return err
	}

	node.lock.Lock()
	defer node.lock.Unlock()

	switch msg.Kind {
	case "members":

		delta, err := crdt.FromORSetTokens[string](crdt.NewTokenReader(tokens))
		if err != nil {
			node.metrics.ApplyFailures.Add(1)
			return err
		}
		node.members.Converge(delta)

	case "tally":

		// Counter streams travel value-free, so they re-key
		// from the codec's string form onto unsigned scalars.
		numTokens, err := crdt.ConvertTokens[string, uint64](tokens)
		if err != nil {
			node.metrics.ApplyFailures.Add(1)
			return err
		}

		delta, err := crdt.FromPNCounterTokens[uint64](crdt.NewTokenReader(numTokens))
		if err != nil {
			node.metrics.ApplyFailures.Add(1)
			return err
		}
		node.tally.Converge(delta)

	default:
		node.metrics.ApplyFailures.Add(1)
		return fmt.Errorf("unknown CRDT kind '%s'", msg.Kind)
	}

	node.metrics.DeltasApplied.Add(1)

	return nil
}

// Announce adds this replica's name to the membership set,
// bumps the tally and ships both deltas to all peers.
func (node *Node) Announce() {

	node.lock.Lock()

	memberDelta := node.members.Add(node.name)
	tallyDelta := node.tally.Increment(1)

	node.lock.Unlock()

	node.ship("members", crdt.EncodeTokens(crdt.CollectTokens[string](memberDelta.EmitTokens)))

	tallyTokens, err := crdt.ConvertTokens[uint64, string](crdt.CollectTokens[uint64](tallyDelta.EmitTokens))
	if err != nil {
		level.Error(node.logger).Log(
			"msg", "failed to re-key tally delta tokens",
			"err", err,
		)
		return
	}

	node.ship("tally", crdt.EncodeTokens(tallyTokens))
}

// Retire removes this replica's name from the membership
// set again and ships the delta.
func (node *Node) Retire() {

	node.lock.Lock()
	memberDelta := node.members.Remove(node.name)
	node.lock.Unlock()

	node.ship("members", crdt.EncodeTokens(crdt.CollectTokens[string](memberDelta.EmitTokens)))
}

// ship hands one delta payload to the sender, if one is
// connected.
func (node *Node) ship(kind string, payload []byte) {

	if node.out == nil {
		return
	}

	msg := comm.InitMsg()
	msg.Kind = kind
	msg.Payload = payload

	node.out <- msg
	node.metrics.DeltasSent.Add(1)
}

// LogState writes the currently converged replica state to
// the log.
func (node *Node) LogState() {

	node.lock.Lock()
	members := node.members.Elements()
	tally := node.tally.Value()
	node.lock.Unlock()

	level.Info(node.logger).Log(
		"msg", "replica state",
		"members", fmt.Sprintf("%v", members),
		"tally", tally,
	)
}
