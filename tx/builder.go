// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tempoledger/tempo/tempo"
)

// Builder to make it easy to build a transaction.
type Builder struct {
	body body
}

// Instruction adds an instruction.
func (b *Builder) Instruction(i Instruction) *Builder {
	b.body.Instructions = append(b.body.Instructions, i.Copy())
	return b
}

// RecentHash sets the recent clock hash reference.
func (b *Builder) RecentHash(h tempo.Bytes32) *Builder {
	b.body.RecentHash = h
	return b
}

// Fee sets the offered fee.
func (b *Builder) Fee(fee uint64) *Builder {
	b.body.Fee = fee
	return b
}

// Nonce sets nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Build builds the unsigned tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	tx.body.Instructions = make([]Instruction, len(b.body.Instructions))
	for i := range b.body.Instructions {
		tx.body.Instructions[i] = b.body.Instructions[i].Copy()
	}
	return &tx
}

// MustSign signs a tx with the given private key, panic on error. Intended
// for tests and tooling.
func MustSign(tx *Transaction, priv *ecdsa.PrivateKey) *Transaction {
	signed, err := Sign(tx, priv)
	if err != nil {
		panic(err)
	}
	return signed
}

// Sign signs a tx with the given private key.
func Sign(tx *Transaction, priv *ecdsa.PrivateKey) (*Transaction, error) {
	hash := tx.SigningHash()
	sig, err := crypto.Sign(hash.Bytes(), priv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(sig), nil
}
