// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import (
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
)

// ErrInvalidEntries marks a slot whose entries fail verification or can't be
// applied. The slot came from a byzantine or corrupted proposer and must be
// marked dead.
var ErrInvalidEntries = errors.New("invalid entries")

// IsInvalidEntries checks for the replay rejection signal.
func IsInvalidEntries(err error) bool {
	return errors.Cause(err) == ErrInvalidEntries
}

// Replay applies a complete slot's entries to its live bank: the sequential
// re-execution path of the scheduler's transaction application logic. On
// success the bank is frozen and holds exactly the state the slot's leader
// computed; determinism is what makes the entry sequence the ledger's
// canonical linearization.
//
// startHash is the chain hash the slot builds on (the parent bank's hash).
func Replay(
	bank *state.Bank,
	startHash tempo.Bytes32,
	entries entry.Entries,
	ticksPerSlot, hashesPerTick uint64,
) (state.Receipts, error) {
	if len(entries) == 0 {
		return nil, errors.Wrap(ErrInvalidEntries, "empty slot")
	}
	if got := entries.TickCount(); got != ticksPerSlot {
		return nil, errors.Wrapf(ErrInvalidEntries, "tick count %d != %d", got, ticksPerSlot)
	}
	// a complete slot closes on its final tick; anything after it is out of
	// the slot's budget
	if !entries[len(entries)-1].IsTick() {
		return nil, errors.Wrap(ErrInvalidEntries, "slot does not end on a tick")
	}
	if err := entries.Verify(startHash); err != nil {
		return nil, errors.Wrap(ErrInvalidEntries, err.Error())
	}
	var tickHashCount uint64
	if err := entries.VerifyTickSpacing(&tickHashCount, hashesPerTick); err != nil {
		return nil, errors.Wrap(ErrInvalidEntries, err.Error())
	}

	var receipts state.Receipts
	for _, e := range entries {
		if e.IsTick() {
			bank.RegisterTick(e.Hash)
			continue
		}
		for _, trx := range e.Transactions {
			receipt, err := bank.ExecuteTransaction(trx)
			if err != nil {
				// an honest leader never sequences an unexecutable tx
				return nil, errors.Wrap(ErrInvalidEntries, err.Error())
			}
			receipts = append(receipts, receipt)
		}
	}

	bank.Freeze(entries[len(entries)-1].Hash)
	return receipts, nil
}
