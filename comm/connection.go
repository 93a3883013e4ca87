package comm

import (
	"fmt"
	"net"
	"strings"
	"time"

	"crypto/tls"
)

// Functions

// ReliableConnect attempts to connect to the defined remote
// node for as long as the error from previous attempts is a
// plain connection refusal, which simply means the remote
// node has not come up yet.
func ReliableConnect(remoteName string, remoteAddr string, tlsConfig *tls.Config, retry int) (*tls.Conn, error) {

	for {

		c, err := tls.Dial("tcp", remoteAddr, tlsConfig)
		if err == nil {
			return c, nil
		}

		if strings.Contains(err.Error(), "connection refused") {
			time.Sleep(time.Duration(retry) * time.Millisecond)
			continue
		}

		return nil, fmt.Errorf("could not connect to sync port of node '%s': %v", remoteName, err)
	}
}

// ReliableSend writes one marshalled message line to the
// supplied connection and replaces the connection via
// ReliableConnect in case of simple disconnects. It returns
// the connection that ended up carrying the message so the
// caller can keep it for the next send.
func ReliableSend(conn *tls.Conn, line string, remoteName string, remoteAddr string, tlsConfig *tls.Config, timeout int, retry int) (*tls.Conn, error) {

	// Set configured timeout on sending.
	conn.SetWriteDeadline(time.Now().Add(time.Duration(timeout) * time.Millisecond))

	_, err := fmt.Fprintf(conn, "%s\r\n", line)
	if err == nil {
		conn.SetDeadline(time.Time{})
		return conn, nil
	}

	// Distinguish a dead connection from other failures.
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return conn, fmt.Errorf("sending to node '%s' timed out: %v", remoteName, err)
	}

	// Connection was lost. Reconnect and retry the
	// transfer once.
	replacedConn, err := ReliableConnect(remoteName, remoteAddr, tlsConfig, retry)
	if err != nil {
		return conn, fmt.Errorf("could not reestablish connection with '%s': %v", remoteName, err)
	}

	replacedConn.SetWriteDeadline(time.Now().Add(time.Duration(timeout) * time.Millisecond))

	_, err = fmt.Fprintf(replacedConn, "%s\r\n", line)
	if err != nil {
		return replacedConn, fmt.Errorf("resending to node '%s' failed: %v", remoteName, err)
	}

	replacedConn.SetDeadline(time.Time{})

	return replacedConn, nil
}
