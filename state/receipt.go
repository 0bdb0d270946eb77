// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/tempoledger/tempo/tempo"

// Receipt is the finalized outcome of one sequenced transaction. A non-empty
// Err marks a recorded failure: the fee was charged but state mutations were
// rolled back.
type Receipt struct {
	TxID tempo.Bytes32
	Fee  uint64
	Err  string
}

// Reverted reports whether instruction execution failed.
func (r *Receipt) Reverted() bool {
	return r.Err != ""
}

// Receipts a slice of receipts.
type Receipts []*Receipt
