package comm_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"path/filepath"

	"github.com/go-dotted/dotted/comm"
	"github.com/go-dotted/dotted/crdt"
	"github.com/go-dotted/dotted/crypto"
	"github.com/go-kit/kit/log"
)

// Functions

// TestSenderReceiverExchange executes an end-to-end test:
// a delta journaled at one node travels over mutually
// authenticated TLS and converges into the CRDT replica of
// the other node.
func TestSenderReceiverExchange(t *testing.T) {

	logger := log.NewNopLogger()

	pki, err := crypto.NewEphemeralPKI()
	if err != nil {
		t.Fatalf("[comm.TestSenderReceiverExchange] Expected PKI generation to succeed but received error: %v.\n", err)
	}

	// Receiving side: replica state guarded by a mutex,
	// converging every incoming delta.
	lock := &sync.Mutex{}
	replica := crdt.InitORSet[string](2)

	apply := func(msg *comm.Msg) error {

		tokens, err := crdt.DecodeTokens(msg.Payload)
		if err != nil {
			return err
		}

		delta, err := crdt.FromORSetTokens[string](crdt.NewTokenReader(tokens))
		if err != nil {
			return err
		}

		lock.Lock()
		replica.Converge(delta)
		lock.Unlock()

		return nil
	}

	recv, err := comm.InitReceiver(logger, "worker-2", "127.0.0.1:0", pki.ServerConfig(), apply)
	if err != nil {
		t.Fatalf("[comm.TestSenderReceiverExchange] Expected receiver init to succeed but received error: %v.\n", err)
	}
	defer recv.Close()

	go recv.Run()

	// Sending side: a journaling sender whose only peer is
	// the receiver above.
	logFilePath := filepath.Join(t.TempDir(), "sender.log")

	inc, err := comm.InitSender(logger, "worker-1", logFilePath, pki.ClientConfig(), map[string]string{
		"worker-2": recv.Addr(),
	})
	if err != nil {
		t.Fatalf("[comm.TestSenderReceiverExchange] Expected sender init to succeed but received error: %v.\n", err)
	}

	// Originate three deltas on a local replica and put them
	// onto the sender's channel.
	local := crdt.InitORSet[string](1)

	for _, delta := range []*crdt.ORSet[string]{local.Add("tea"), local.Add("coffee"), local.Remove("tea")} {

		msg := comm.InitMsg()
		msg.Kind = "orset"
		msg.Payload = crdt.EncodeTokens(crdt.CollectTokens[string](delta.EmitTokens))

		inc <- msg
	}

	// Wait for the deltas to arrive and converge.
	deadline := time.Now().Add(10 * time.Second)
	for {

		lock.Lock()
		converged := !replica.Lookup("tea") && replica.Lookup("coffee")
		lock.Unlock()

		if converged {
			break
		}

		if time.Now().After(deadline) {
			t.Fatalf("[comm.TestSenderReceiverExchange] Expected deltas to converge on receiving replica before deadline.\n")
		}

		time.Sleep(50 * time.Millisecond)
	}

	lock.Lock()
	if !local.Eq(replica) {
		t.Fatalf("[comm.TestSenderReceiverExchange] Expected replicas to hold the same elements but found %v and %v.\n", local.Elements(), replica.Elements())
	}
	lock.Unlock()

	// The journal drained completely.
	drained := false
	for i := 0; i < 100; i++ {

		info, err := os.Stat(logFilePath)
		if err != nil {
			t.Fatalf("[comm.TestSenderReceiverExchange] Expected to stat sender log but received error: %v.\n", err)
		}

		if info.Size() == 0 {
			drained = true
			break
		}

		time.Sleep(50 * time.Millisecond)
	}

	if !drained {
		t.Fatalf("[comm.TestSenderReceiverExchange] Expected sender log to drain after delivery.\n")
	}
}
