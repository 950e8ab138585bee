package app

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// TokenLength is the exact length of an auth token: two 64-bit words as
// lowercase hex.
const TokenLength = 32

// Token is an opaque credential binding a client to its player.
type Token string

// PlayerTokens maps tokens to player keys. Keys, not pointers: the registry
// stays the single owner of Player values.
type PlayerTokens struct {
	tokens map[Token]PlayerKey
}

func NewPlayerTokens() *PlayerTokens {
	return &PlayerTokens{tokens: make(map[Token]PlayerKey)}
}

// Issue generates a fresh token for the player. Collisions are vanishingly
// unlikely; on one, we simply roll again.
func (pt *PlayerTokens) Issue(key PlayerKey) Token {
	for {
		tok := newToken()
		if _, taken := pt.tokens[tok]; taken {
			continue
		}
		pt.tokens[tok] = key
		return tok
	}
}

func newToken() Token {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// The system randomness source failing is unrecoverable.
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	w1 := binary.BigEndian.Uint64(buf[:8])
	w2 := binary.BigEndian.Uint64(buf[8:])
	return Token(fmt.Sprintf("%016x%016x", w1, w2))
}

// Lookup resolves a token to its player key.
func (pt *PlayerTokens) Lookup(tok Token) (PlayerKey, bool) {
	key, ok := pt.tokens[tok]
	return key, ok
}

// DropPlayer removes every token resolving to the given player. Called
// before the player itself is deleted so no live token ever dangles.
func (pt *PlayerTokens) DropPlayer(key PlayerKey) {
	for tok, k := range pt.tokens {
		if k == key {
			delete(pt.tokens, tok)
		}
	}
}

// Pair is one token binding, used for state capture.
type Pair struct {
	Token Token
	Key   PlayerKey
}

// All returns the token table in stable token order.
func (pt *PlayerTokens) All() []Pair {
	out := make([]Pair, 0, len(pt.tokens))
	for tok, key := range pt.tokens {
		out = append(out, Pair{Token: tok, Key: key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Restore installs a token binding loaded from a state file.
func (pt *PlayerTokens) Restore(tok Token, key PlayerKey) {
	pt.tokens[tok] = key
}

// TokenFromAuthHeader extracts the bearer token from an Authorization
// header. The token must be exactly 32 lowercase hex characters.
func TokenFromAuthHeader(header string) (Token, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := header[len(prefix):]
	if len(raw) != TokenLength {
		return "", false
	}
	for _, c := range raw {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return Token(raw), true
}
