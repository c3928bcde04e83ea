package yggdrasil

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const accessTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const accessTokenLength = 32

// NewAccessToken generates a fresh opaque access token: 32 alphanumeric
// characters from a CSPRNG. A fresh value is generated per login and per
// refresh; tokens are never reused.
func NewAccessToken() string {
	var b strings.Builder
	b.Grow(accessTokenLength)

	max := big.NewInt(int64(len(accessTokenAlphabet)))
	for i := 0; i < accessTokenLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process has no usable entropy
			// source; nothing sensible can be issued past this point.
			panic(err)
		}
		b.WriteByte(accessTokenAlphabet[n.Int64()])
	}

	return b.String()
}

// NewClientToken generates a client token for callers that did not supply
// one: a dashless UUID, which is also 32 alphanumeric characters.
func NewClientToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// UUIDToHex renders a stored 16-byte UUID as the 32-hex-digit dashless
// string used on the wire. Malformed values render as "".
func UUIDToHex(b []byte) string {
	if len(b) != 16 {
		return ""
	}
	return hex.EncodeToString(b)
}

// HexToUUID parses a wire UUID (dashless or canonical) into the stored
// 16-byte form. Unparseable input yields nil, which downstream code treats
// as "no profile", mirroring the gateway's Option-shaped lookups.
func HexToUUID(s string) []byte {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return id[:]
}
