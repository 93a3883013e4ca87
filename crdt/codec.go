package crdt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Functions

// EncodeTokens turns a token stream over string values into
// its compact byte form: one kind byte per token, followed by
// a varint for counts and unsigned scalars or a varint-length
// prefixed byte sequence for values. Collaborators use this
// to ship deltas between replicas and to persist state; the
// structure of the stream is preserved exactly, so decoding
// and feeding the tokens to the matching From*Tokens consumer
// reconstructs the CRDT.
func EncodeTokens(tokens []Token[string]) []byte {

	var buf []byte
	var scratch [binary.MaxVarintLen64]byte

	for _, t := range tokens {

		buf = append(buf, byte(t.Kind))

		switch t.Kind {
		case TokenCount, TokenNum:
			n := binary.PutUvarint(scratch[:], t.Num)
			buf = append(buf, scratch[:n]...)
		case TokenValue:
			n := binary.PutUvarint(scratch[:], uint64(len(t.Val)))
			buf = append(buf, scratch[:n]...)
			buf = append(buf, t.Val...)
		}
	}

	return buf
}

// ConvertTokens re-keys a token stream onto a different
// value type. GCounter and PNCounter streams consist of
// counts and unsigned scalars only, which is what lets them
// pass through the string-valued byte codec; a stream
// carrying an actual value token (such as that of CCounter,
// whose kernel emits its entries as values) cannot be
// re-keyed and surfaces ErrMalformedTokens.
func ConvertTokens[V any, W any](tokens []Token[V]) ([]Token[W], error) {

	out := make([]Token[W], 0, len(tokens))

	for i, t := range tokens {

		if t.Kind == TokenValue {
			return nil, errors.Wrapf(ErrMalformedTokens, "cannot re-key value token at position %d", i)
		}

		out = append(out, Token[W]{Kind: t.Kind, Num: t.Num})
	}

	return out, nil
}

// DecodeTokens parses the byte form produced by EncodeTokens
// back into a token stream. Unknown kind bytes, overlong
// varints and truncated input all surface ErrMalformedTokens.
func DecodeTokens(data []byte) ([]Token[string], error) {

	var tokens []Token[string]

	for pos := 0; pos < len(data); {

		kind := TokenKind(data[pos])
		pos++

		switch kind {
		case TokenCount, TokenNum:

			num, n := binary.Uvarint(data[pos:])
			if n <= 0 {
				return nil, errors.Wrapf(ErrMalformedTokens, "bad varint at byte %d", pos)
			}
			pos += n

			tokens = append(tokens, Token[string]{Kind: kind, Num: num})

		case TokenValue:

			length, n := binary.Uvarint(data[pos:])
			if n <= 0 {
				return nil, errors.Wrapf(ErrMalformedTokens, "bad value length at byte %d", pos)
			}
			pos += n

			if uint64(len(data)-pos) < length {
				return nil, errors.Wrapf(ErrMalformedTokens, "value truncated at byte %d", pos)
			}

			tokens = append(tokens, ValueToken[string](string(data[pos:(pos+int(length))])))
			pos += int(length)

		default:
			return nil, errors.Wrapf(ErrMalformedTokens, "unknown token kind %d at byte %d", kind, (pos - 1))
		}
	}

	return tokens, nil
}
