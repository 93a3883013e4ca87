package comm

import (
	"bufio"
	"net"

	"crypto/tls"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Structs

// ApplyFunc is the contact surface between the transport
// and the CRDT layer: the application decodes the payload
// of an incoming delta message and converges it into the
// replica state addressed by the message's kind. Errors are
// logged and the message is dropped. The sender removes a
// message from its log once it has been written to every
// peer connection, so a delta dropped here is not sent again.
type ApplyFunc func(msg *Msg) error

// Receiver accepts incoming delta messages from peer nodes
// and hands them to the application's apply function.
type Receiver struct {
	logger log.Logger
	name   string
	socket net.Listener
	apply  ApplyFunc
}

// Functions

// InitReceiver initializes above struct and opens the TLS
// listener the peer nodes deliver delta messages to. The
// caller is expected to invoke Run in a dedicated goroutine
// afterwards.
func InitReceiver(logger log.Logger, name string, listenAddr string, tlsConfig *tls.Config, apply ApplyFunc) (*Receiver, error) {

	socket, err := tls.Listen("tcp", listenAddr, tlsConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "listening for sync traffic on '%s' failed", listenAddr)
	}

	recv := &Receiver{
		logger: logger,
		name:   name,
		socket: socket,
		apply:  apply,
	}

	return recv, nil
}

// Addr returns the address the receiver listens on.
func (recv *Receiver) Addr() string {
	return recv.socket.Addr().String()
}

// Close shuts down the listener.
func (recv *Receiver) Close() error {
	return recv.socket.Close()
}

// Run loops on incoming connections from peer nodes and
// handles each in its own goroutine. It returns when the
// listener is closed.
func (recv *Receiver) Run() error {

	for {

		conn, err := recv.socket.Accept()
		if err != nil {
			return errors.Wrap(err, "accepting sync connection failed")
		}

		go recv.HandleConn(conn)
	}
}

// HandleConn reads newline-delimited delta message lines
// off one peer connection until it closes and hands every
// parsed message to the apply function.
func (recv *Receiver) HandleConn(conn net.Conn) {

	defer conn.Close()

	reader := bufio.NewReader(conn)

	for {

		line, err := reader.ReadString('\n')
		if err != nil {
			// Peer went away; its sender will reconnect.
			return
		}

		msg, err := ParseMsg(line)
		if err != nil {
			level.Warn(recv.logger).Log(
				"msg", "discarding unparsable sync message",
				"err", err,
			)
			continue
		}

		if err := recv.apply(msg); err != nil {
			level.Warn(recv.logger).Log(
				"msg", "failed to apply incoming delta message",
				"replica", msg.Replica,
				"kind", msg.Kind,
				"err", err,
			)
		}
	}
}
