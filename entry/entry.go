// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package entry defines the ledger's atomic unit: either a clock tick or a
// batch of executed transactions, chained by hashing. The chain of entries is
// itself the elapsed-time proof; recomputing every hash must reproduce it.
package entry

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// Entry is one link of the hash chain. NumHashes is the number of hashes
// performed since the previous entry; Hash is the chain state after them.
// A tick carries no transactions.
type Entry struct {
	NumHashes    uint64
	Hash         tempo.Bytes32
	Transactions tx.Transactions
}

// New creates the entry NumHashes after prevHash, folding the batch mixin
// into the final hash. Passing an empty batch makes a tick.
func New(prevHash tempo.Bytes32, numHashes uint64, transactions tx.Transactions) *Entry {
	if numHashes == 0 && len(transactions) != 0 {
		numHashes = 1
	}
	return &Entry{
		NumHashes:    numHashes,
		Hash:         NextHash(prevHash, numHashes, transactions),
		Transactions: transactions,
	}
}

// NewTick creates a tick entry.
func NewTick(prevHash tempo.Bytes32, numHashes uint64) *Entry {
	return New(prevHash, numHashes, nil)
}

// IsTick returns whether the entry is a plain clock tick.
func (e *Entry) IsTick() bool {
	return len(e.Transactions) == 0
}

// Verify checks that Hash is the result of hashing prevHash NumHashes times,
// with the batch mixin folded into the last hash.
func (e *Entry) Verify(prevHash tempo.Bytes32) bool {
	return e.Hash == NextHash(prevHash, e.NumHashes, e.Transactions)
}

// NextHash computes the chain hash numHashes after prevHash. If the batch is
// non-empty its mixin replaces the last plain hash. Zero hashes and an empty
// batch leave the chain untouched.
func NextHash(prevHash tempo.Bytes32, numHashes uint64, transactions tx.Transactions) tempo.Bytes32 {
	if numHashes == 0 && len(transactions) == 0 {
		return prevHash
	}

	hash := prevHash
	for i := uint64(0); i+1 < numHashes; i++ {
		hash = tempo.Blake2b(hash.Bytes())
	}
	if len(transactions) == 0 {
		return tempo.Blake2b(hash.Bytes())
	}
	mixin := transactions.MixinHash()
	return tempo.Blake2b(hash.Bytes(), mixin.Bytes())
}

// EncodeRLP implements rlp.Encoder.
func (e *Entry) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{e.NumHashes, e.Hash, e.Transactions})
}

// DecodeRLP implements rlp.Decoder.
func (e *Entry) DecodeRLP(s *rlp.Stream) error {
	var payload struct {
		NumHashes    uint64
		Hash         tempo.Bytes32
		Transactions tx.Transactions
	}
	if err := s.Decode(&payload); err != nil {
		return err
	}
	*e = Entry{payload.NumHashes, payload.Hash, payload.Transactions}
	return nil
}
