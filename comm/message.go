package comm

import (
	"strings"

	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Structs

// Msg represents one CRDT delta exchange frame between
// nodes in a dotted cluster. It consists of the name of the
// originating replica, a unique message id, the kind of the
// carried CRDT and the delta's token stream in its byte
// form as produced by crdt.EncodeTokens.
type Msg struct {
	Replica string `msgpack:"replica"`
	ID      string `msgpack:"id"`
	Kind    string `msgpack:"kind"`
	Payload []byte `msgpack:"payload"`
}

// Functions

// InitMsg returns a fresh Msg variable.
func InitMsg() *Msg {
	return &Msg{}
}

// Marshal turns Msg m into its line representation, ready
// to be appended to the send log and sent out onto a TLS
// connection: MessagePack encoded and wrapped in base64 so
// that the binary payload never contains a newline symbol.
func (m *Msg) Marshal() (string, error) {

	data, err := msgpack.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal sync message")
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseMsg takes in the line representation of a received
// message and parses it back into struct form.
func ParseMsg(raw string) (*Msg, error) {

	raw = strings.TrimRight(raw, "\r\n")

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sync message encoding")
	}

	m := InitMsg()
	if err := msgpack.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "invalid sync message")
	}

	if m.Replica == "" {
		return nil, errors.New("invalid sync message because sender replica name is missing")
	}

	if m.Kind == "" {
		return nil, errors.New("invalid sync message because CRDT kind is missing")
	}

	return m, nil
}
