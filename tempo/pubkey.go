// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tempo

import (
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// PubKey identifies an account. It's the blake2b-256 checksum of the
// uncompressed secp256k1 public key of the account holder, or an arbitrary
// well-known value for builtin programs.
type PubKey [32]byte

var (
	_ json.Marshaler   = (*PubKey)(nil)
	_ json.Unmarshaler = (*PubKey)(nil)
)

// PubKeyFromPublicKey derives the account key from a signer's public key.
func PubKeyFromPublicKey(pub *ecdsa.PublicKey) PubKey {
	return PubKey(Blake2b(crypto.FromECDSAPub(pub)))
}

// String returns the base58 text form.
func (p PubKey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns byte slice form of PubKey.
func (p PubKey) Bytes() []byte {
	return p[:]
}

// IsZero returns if PubKey has all zero bytes.
func (p PubKey) IsZero() bool {
	return p == PubKey{}
}

// MarshalJSON implements json.Marshaler.
func (p *PubKey) MarshalJSON() ([]byte, error) {
	if p == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PubKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePubKey(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePubKey converts base58 text into PubKey type.
func ParsePubKey(s string) (PubKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return PubKey{}, errors.Wrap(err, "parse pubkey")
	}
	if len(b) != 32 {
		return PubKey{}, errors.New("invalid pubkey length")
	}
	var p PubKey
	copy(p[:], b)
	return p, nil
}

// MustParsePubKey converts base58 text into PubKey type, panic on error.
func MustParsePubKey(s string) PubKey {
	p, err := ParsePubKey(s)
	if err != nil {
		panic(err)
	}
	return p
}

// BytesToPubKey converts bytes slice into PubKey.
func BytesToPubKey(b []byte) PubKey {
	var p PubKey
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(p[32-len(b):], b)
	return p
}
