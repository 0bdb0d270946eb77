// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the immutable transaction type and its signing scheme.
package tx

import (
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/tempo"
)

// Transaction is an immutable transaction: an ordered list of instructions
// naming the accounts they touch, anchored to a recent clock hash, with a
// single signature over the body.
type Transaction struct {
	body body

	cache struct {
		id     *tempo.Bytes32
		signer *tempo.PubKey
	}
}

// body describes details of a tx.
type body struct {
	Instructions []Instruction
	RecentHash   tempo.Bytes32
	Fee          uint64
	Nonce        uint64
	Signature    []byte
}

// ID returns the tx id, the checksum of the whole tx including signature.
func (t *Transaction) ID() tempo.Bytes32 {
	if cached := t.cache.id; cached != nil {
		return *cached
	}

	id := tempo.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &t.body)
	})
	t.cache.id = &id
	return id
}

// SigningHash returns the hash of the tx body excluding signature.
func (t *Transaction) SigningHash() tempo.Bytes32 {
	return tempo.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Instructions,
			t.body.RecentHash,
			t.body.Fee,
			t.body.Nonce,
		})
	})
}

// Signer extracts the account key of the tx signer. The result is cached, so
// the cost of pubkey recovery is paid once per tx.
func (t *Transaction) Signer() (tempo.PubKey, error) {
	if cached := t.cache.signer; cached != nil {
		return *cached, nil
	}

	hash := t.SigningHash()
	pub, err := crypto.SigToPub(hash.Bytes(), t.body.Signature)
	if err != nil {
		return tempo.PubKey{}, errors.Wrap(err, "recover signer")
	}
	signer := tempo.PubKeyFromPublicKey(pub)
	t.cache.signer = &signer
	return signer, nil
}

// WithSignature creates a new tx with the given signature attached.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Instructions returns a copy of the instruction list.
func (t *Transaction) Instructions() []Instruction {
	instructions := make([]Instruction, len(t.body.Instructions))
	for i := range t.body.Instructions {
		instructions[i] = t.body.Instructions[i].Copy()
	}
	return instructions
}

// RecentHash returns the clock hash the tx is anchored to. Txs referencing a
// hash outside the bank's recent window are stale and rejected at admission.
func (t *Transaction) RecentHash() tempo.Bytes32 {
	return t.body.RecentHash
}

// Fee returns the fee offered, also the scheduling priority signal.
func (t *Transaction) Fee() uint64 {
	return t.body.Fee
}

// Nonce returns nonce.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Signature returns the raw signature bytes.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// AccountSet is the deduplicated read/write footprint of a tx. The signer
// account is always in the write set, since it pays the fee.
type AccountSet struct {
	Reads  []tempo.PubKey
	Writes []tempo.PubKey
}

// Accounts computes the tx's account footprint. It fails if the signature
// can't be recovered.
func (t *Transaction) Accounts() (*AccountSet, error) {
	signer, err := t.Signer()
	if err != nil {
		return nil, err
	}

	writable := map[tempo.PubKey]bool{signer: true}
	for _, instruction := range t.body.Instructions {
		for _, meta := range instruction.Accounts {
			writable[meta.Key] = writable[meta.Key] || meta.Writable
		}
		// programs are read-only code accounts
		if _, ok := writable[instruction.Program]; !ok {
			writable[instruction.Program] = false
		}
	}

	var set AccountSet
	for key, w := range writable {
		if w {
			set.Writes = append(set.Writes, key)
		} else {
			set.Reads = append(set.Reads, key)
		}
	}
	return &set, nil
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

// Transactions a slice of transactions.
type Transactions []*Transaction

// MixinHash computes the hash folded into the clock chain for a batch: the
// checksum of all signatures, in batch order. Re-execution of the same batch
// reproduces the same mixin.
func (txs Transactions) MixinHash() tempo.Bytes32 {
	return tempo.Blake2bFn(func(w io.Writer) {
		for _, t := range txs {
			w.Write(t.body.Signature)
		}
	})
}
