package crdt

import (
	"github.com/pkg/errors"
)

// Structs

// TokenKind discriminates the variants a token can take:
// an unsigned group count, an unsigned scalar (replica ids,
// sequence numbers, counter entries), or a user value.
type TokenKind uint8

const (
	TokenCount TokenKind = iota
	TokenNum
	TokenValue
)

// Token is one element of the structure-preserving wire
// form every CRDT in this package serializes to. A stream
// of tokens is a tree of counted groups whose leaves are
// scalars, so a consumer knowing the schema can reconstruct
// the value without further framing.
type Token[V any] struct {
	Kind TokenKind
	Num  uint64
	Val  V
}

// ErrMalformedTokens is returned by all token consumers when
// the leading count is wrong for the expected type, a group's
// count has the wrong parity for a pair sequence, a scalar has
// the wrong variant, or the stream ends prematurely.
var ErrMalformedTokens = errors.New("malformed token stream")

// TokenReader walks a token stream during deserialization and
// enforces the variant expectations of the consumer on every
// step.
type TokenReader[V any] struct {
	tokens []Token[V]
	pos    int
}

// Functions

// CountToken constructs a group count token.
func CountToken[V any](n uint64) Token[V] {
	return Token[V]{Kind: TokenCount, Num: n}
}

// NumToken constructs an unsigned scalar token.
func NumToken[V any](n uint64) Token[V] {
	return Token[V]{Kind: TokenNum, Num: n}
}

// ValueToken constructs a user value token.
func ValueToken[V any](v V) Token[V] {
	return Token[V]{Kind: TokenValue, Val: v}
}

// CollectTokens runs a producer's EmitTokens function and
// gathers the emitted sequence into a slice.
func CollectTokens[V any](emitter func(emit func(Token[V]))) []Token[V] {

	var tokens []Token[V]

	emitter(func(t Token[V]) {
		tokens = append(tokens, t)
	})

	return tokens
}

// NewTokenReader wraps a token slice for consumption.
func NewTokenReader[V any](tokens []Token[V]) *TokenReader[V] {

	return &TokenReader[V]{
		tokens: tokens,
	}
}

// Done reports whether the whole stream has been consumed.
func (r *TokenReader[V]) Done() bool {
	return r.pos >= len(r.tokens)
}

// take hands out the token at the current position if it
// carries the expected variant and only then advances, so a
// failed expectation leaves the reader in place.
func (r *TokenReader[V]) take(kind TokenKind, what string) (Token[V], error) {

	if r.pos >= len(r.tokens) {
		return Token[V]{}, errors.Wrapf(ErrMalformedTokens, "stream ended prematurely at token %d", r.pos)
	}

	t := r.tokens[r.pos]
	if t.Kind != kind {
		return Token[V]{}, errors.Wrapf(ErrMalformedTokens, "expected %s at token %d", what, r.pos)
	}

	r.pos++

	return t, nil
}

// Count consumes a group count token.
func (r *TokenReader[V]) Count() (uint64, error) {

	t, err := r.take(TokenCount, "count")
	if err != nil {
		return 0, err
	}

	return t.Num, nil
}

// PairCount consumes a group count token that prefixes a
// key-value pair sequence and rejects counts of odd parity.
func (r *TokenReader[V]) PairCount() (uint64, error) {

	n, err := r.Count()
	if err != nil {
		return 0, err
	}

	if (n % 2) != 0 {
		return 0, errors.Wrapf(ErrMalformedTokens, "pair group count %d has odd parity", n)
	}

	return n, nil
}

// Num consumes an unsigned scalar token.
func (r *TokenReader[V]) Num() (uint64, error) {

	t, err := r.take(TokenNum, "unsigned scalar")
	if err != nil {
		return 0, err
	}

	return t.Num, nil
}

// Value consumes a user value token.
func (r *TokenReader[V]) Value() (V, error) {

	t, err := r.take(TokenValue, "value")
	if err != nil {
		var zero V
		return zero, err
	}

	return t.Val, nil
}

// errorsWrongArity builds the malformation error for a
// leading count that does not match the fixed field arity
// of the type being decoded.
func errorsWrongArity(what string, want uint64, got uint64) error {
	return errors.Wrapf(ErrMalformedTokens, "%s expects leading count %d, got %d", what, want, got)
}

// dot consumes the two unsigned scalars making up a dot.
func (r *TokenReader[V]) dot() (Dot, error) {

	id, err := r.Num()
	if err != nil {
		return Dot{}, err
	}

	seq, err := r.Num()
	if err != nil {
		return Dot{}, err
	}

	return Dot{ID: ReplicaID(id), Seq: SeqNum(seq)}, nil
}
