package comm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"crypto/tls"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	uuid "github.com/satori/go.uuid"
)

// Structs

// Sender bundles everything needed for journaling outgoing
// CRDT deltas and shipping them to all peer nodes.
type Sender struct {
	lock      *sync.Mutex
	logger    log.Logger
	name      string
	tlsConfig *tls.Config
	inc       chan *Msg
	msgInLog  chan struct{}
	writeLog  *os.File
	updLog    *os.File
	conns     map[string]*tls.Conn
	nodes     map[string]string
}

// Functions

// InitSender initializes above struct and sets default
// values for most involved elements to start with. It
// returns a channel local processes can put CRDT deltas
// into, so that those deltas will be communicated to all
// connected nodes.
func InitSender(logger log.Logger, name string, logFilePath string, tlsConfig *tls.Config, nodes map[string]string) (chan *Msg, error) {

	sender := &Sender{
		lock:      &sync.Mutex{},
		logger:    logger,
		name:      name,
		tlsConfig: tlsConfig,
		inc:       make(chan *Msg),
		msgInLog:  make(chan struct{}, 1),
		conns:     make(map[string]*tls.Conn),
		nodes:     nodes,
	}

	// Open log file descriptor for writing.
	write, err := os.OpenFile(logFilePath, (os.O_CREATE | os.O_WRONLY | os.O_APPEND), 0600)
	if err != nil {
		return nil, fmt.Errorf("opening CRDT log file for writing failed with: %v", err)
	}
	sender.writeLog = write

	// Open log file descriptor for updating.
	upd, err := os.OpenFile(logFilePath, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening CRDT log file for updating failed with: %v", err)
	}
	sender.updLog = upd

	// Start brokering routine in background.
	go sender.BrokerMsgs()

	// Start sending routine in background.
	go sender.SendMsgs()

	// If we just started the application, perform an
	// initial run to check if log file contains elements.
	sender.msgInLog <- struct{}{}

	return sender.inc, nil
}

// BrokerMsgs awaits a CRDT delta to send to peer replicas
// from one of the local processes on channel inc. It stamps
// the delta with this replica's name and a fresh message id,
// journals it to the dedicated CRDT log file and passes on a
// signal that a new message is available.
func (sender *Sender) BrokerMsgs() {

	for payload := range sender.inc {

		sender.lock.Lock()

		// Stamp message with sending replica and id.
		payload.Replica = sender.name
		payload.ID = uuid.NewV4().String()

		line, err := payload.Marshal()
		if err != nil {
			level.Error(sender.logger).Log(
				"msg", "failed to marshal outgoing delta message",
				"err", err,
			)
			sender.lock.Unlock()
			continue
		}

		// Append it to the message log file and make sure
		// it reaches stable storage before acknowledging.
		if _, err := sender.writeLog.WriteString(line + "\n"); err != nil {
			level.Error(sender.logger).Log(
				"msg", "writing to CRDT log file failed",
				"err", err,
			)
			os.Exit(1)
		}

		if err := sender.writeLog.Sync(); err != nil {
			level.Error(sender.logger).Log(
				"msg", "syncing CRDT log file to stable storage failed",
				"err", err,
			)
			os.Exit(1)
		}

		sender.lock.Unlock()

		// Indicate consecutive loop iterations that a
		// message is waiting in log.
		if len(sender.msgInLog) < 1 {
			sender.msgInLog <- struct{}{}
		}
	}
}

// SendMsgs waits for a signal indicating that a message is
// waiting in the log file to be sent out, ships the oldest
// message to all peer nodes and truncates it from the log.
func (sender *Sender) SendMsgs() {

	for range sender.msgInLog {

		sender.lock.Lock()

		line, remaining, err := sender.peekOldest()
		if err != nil {
			level.Error(sender.logger).Log(
				"msg", "failed to read oldest message from CRDT log file",
				"err", err,
			)
			os.Exit(1)
		}

		sender.lock.Unlock()

		// Log file is empty, nothing to ship.
		if line == "" {
			continue
		}

		// Ship message to every peer node. Delivery is
		// at-least-once: a send that keeps failing is
		// retried on the next signal.
		delivered := true
		for node, addr := range sender.nodes {

			if err := sender.sendToNode(node, addr, line); err != nil {
				level.Warn(sender.logger).Log(
					"msg", "failed to deliver delta message to peer, will retry",
					"peer", node,
					"err", err,
				)
				delivered = false
			}
		}

		if !delivered {
			continue
		}

		sender.lock.Lock()

		// Read the log again: BrokerMsgs may have appended
		// messages while the lock was released for shipping.
		// The shipped message is still the oldest line.
		_, remaining, err = sender.peekOldest()
		if err != nil {
			level.Error(sender.logger).Log(
				"msg", "failed to reread CRDT log file",
				"err", err,
			)
			os.Exit(1)
		}

		// Remove shipped message from the log by copying
		// back the remaining contents and truncating.
		if err := sender.rewriteLog(remaining); err != nil {
			level.Error(sender.logger).Log(
				"msg", "failed to truncate shipped message from CRDT log file",
				"err", err,
			)
			os.Exit(1)
		}

		sender.lock.Unlock()

		// We do not know how many elements are waiting in
		// the log file. Therefore attempt to send the next
		// one; an empty log aborts the loop iteration.
		if len(sender.msgInLog) < 1 {
			sender.msgInLog <- struct{}{}
		}
	}
}

// sendToNode delivers one marshalled message line to one
// peer node over that peer's long-lived connection,
// establishing or replacing the connection as needed.
func (sender *Sender) sendToNode(node string, addr string, line string) error {

	conn, found := sender.conns[node]
	if !found {

		freshConn, err := ReliableConnect(node, addr, sender.tlsConfig, 250)
		if err != nil {
			return err
		}

		sender.conns[node] = freshConn
		conn = freshConn
	}

	usedConn, err := ReliableSend(conn, line, node, addr, sender.tlsConfig, 5000, 250)
	sender.conns[node] = usedConn

	return err
}

// peekOldest reads the oldest message line from the log
// file and returns it together with the remaining log
// contents. An empty log yields an empty line.
func (sender *Sender) peekOldest() (string, []byte, error) {

	info, err := sender.updLog.Stat()
	if err != nil {
		return "", nil, err
	}

	if info.Size() == 0 {
		return "", nil, nil
	}

	// Reset position to beginning of file and copy the
	// complete contents into a buffer.
	if _, err := sender.updLog.Seek(0, io.SeekStart); err != nil {
		return "", nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, info.Size()))
	if _, err := io.Copy(buf, sender.updLog); err != nil {
		return "", nil, err
	}

	// Split off the first line.
	line, err := buf.ReadString('\n')
	if (err != nil) && (err != io.EOF) {
		return "", nil, err
	}

	return strings.TrimRight(line, "\n"), buf.Bytes(), nil
}

// rewriteLog replaces the log file contents with the
// supplied remainder, effectively deleting the first line,
// and syncs the result to stable storage.
func (sender *Sender) rewriteLog(remaining []byte) error {

	if _, err := sender.updLog.Seek(0, io.SeekStart); err != nil {
		return err
	}

	n, err := sender.updLog.Write(remaining)
	if err != nil {
		return err
	}

	if err := sender.updLog.Truncate(int64(n)); err != nil {
		return err
	}

	if err := sender.updLog.Sync(); err != nil {
		return err
	}

	_, err = sender.updLog.Seek(0, io.SeekStart)

	return err
}
