// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/stackedmap"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

var (
	// ErrBankFrozen is returned when mutating a sealed bank.
	ErrBankFrozen = errors.New("bank frozen")

	// ErrInsufficientFee means the signer can't cover the fee. The tx is not
	// sequenced at all.
	ErrInsufficientFee = errors.New("insufficient balance for fee")
)

// Bank is the versioned snapshot of all account states at a slot. While its
// slot is live the bank is exclusively owned by the scheduler; Freeze turns
// it into an immutable snapshot shared by reference.
//
// Account lookups fall through to the parent chain, so a bank only stores
// the accounts its own slot touched.
type Bank struct {
	slot      tempo.Slot
	parent    *Bank
	collector tempo.PubKey
	executors map[tempo.PubKey]Executor

	mu            sync.RWMutex
	accounts      map[tempo.PubKey]*Account
	recentHashes  []tempo.Bytes32
	tickHeight    uint64
	collectedFees uint64
	frozen        bool
	hash          tempo.Bytes32
}

// NewBank creates the child bank of parent for the given slot. The parent
// must already be frozen. fee collector is the slot leader's account.
func NewBank(parent *Bank, slot tempo.Slot, collector tempo.PubKey) *Bank {
	b := &Bank{
		slot:      slot,
		parent:    parent,
		collector: collector,
		accounts:  make(map[tempo.PubKey]*Account),
		executors: parent.executors,
	}
	parent.mu.RLock()
	b.recentHashes = append([]tempo.Bytes32(nil), parent.recentHashes...)
	b.tickHeight = parent.tickHeight
	parent.mu.RUnlock()
	return b
}

// NewRootBank creates a parentless bank, the genesis snapshot. startHash
// seeds the recent-hash window so transactions can reference it.
func NewRootBank(collector tempo.PubKey, startHash tempo.Bytes32) *Bank {
	return &Bank{
		accounts:     make(map[tempo.PubKey]*Account),
		executors:    make(map[tempo.PubKey]Executor),
		collector:    collector,
		recentHashes: []tempo.Bytes32{startHash},
	}
}

// Slot returns the bank's slot.
func (b *Bank) Slot() tempo.Slot {
	return b.slot
}

// Parent returns the parent bank, nil for the genesis bank.
func (b *Bank) Parent() *Bank {
	return b.parent
}

// Frozen reports whether the bank is sealed.
func (b *Bank) Frozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}

// Hash returns the bank hash, the chain hash of the slot's last entry. Only
// meaningful once frozen.
func (b *Bank) Hash() tempo.Bytes32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hash
}

// TickHeight returns the number of ticks registered since genesis.
func (b *Bank) TickHeight() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tickHeight
}

// RegisterExecutor installs the executor for a program. Executors are shared
// with child banks, so registration happens once at genesis setup.
func (b *Bank) RegisterExecutor(program tempo.PubKey, exec Executor) {
	b.executors[program] = exec
}

// SetAccount writes an account directly. Used for genesis allocation only.
func (b *Bank) SetAccount(key tempo.PubKey, acc *Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[key] = acc.Copy()
}

// GetAccount returns a copy of the account's state as of this bank.
func (b *Bank) GetAccount(key tempo.PubKey) *Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lookup(key).Copy()
}

// Balance is a shorthand for GetAccount(key).Balance.
func (b *Bank) Balance(key tempo.PubKey) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lookup(key).Balance
}

// lookup walks the parent chain. Caller holds at least the read lock of b;
// ancestors are frozen so reading them unlocked is safe.
func (b *Bank) lookup(key tempo.PubKey) *Account {
	if acc, ok := b.accounts[key]; ok {
		return acc
	}
	for p := b.parent; p != nil; p = p.parent {
		if acc, ok := p.accounts[key]; ok {
			return acc
		}
	}
	return &Account{}
}

// RegisterTick advances the tick height and admits hash into the
// recent-hash window.
func (b *Bank) RegisterTick(hash tempo.Bytes32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return
	}
	b.tickHeight++
	b.recentHashes = append(b.recentHashes, hash)
	if len(b.recentHashes) > tempo.MaxRecentBlockhashes {
		b.recentHashes = b.recentHashes[len(b.recentHashes)-tempo.MaxRecentBlockhashes:]
	}
}

// IsRecentHash reports whether hash is inside the recent-hash window, i.e.
// fresh enough for a transaction to reference.
func (b *Bank) IsRecentHash(hash tempo.Bytes32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.recentHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// Freeze seals the bank with the slot's final chain hash. Collected fees are
// deposited into the leader's account at this point, keeping fee credits out
// of the per-transaction account footprint.
func (b *Bank) Freeze(hash tempo.Bytes32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return
	}
	if b.collectedFees > 0 {
		acc := b.lookup(b.collector).Copy()
		acc.Balance += b.collectedFees
		b.accounts[b.collector] = acc
		b.collectedFees = 0
	}
	b.hash = hash
	b.frozen = true
}

// TxEffects is the uncommitted outcome of executing one transaction:
// the receipt plus the ordered account writes. Splitting execution from
// commit lets the scheduler record the batch with the clock before making
// its state visible; a batch that loses the slot deadline is discarded
// without a trace.
type TxEffects struct {
	receipt *Receipt
	writes  []stackedmap.JournalEntry[tempo.PubKey, *Account]
	fee     uint64
}

// Receipt returns the receipt of the executed transaction.
func (e *TxEffects) Receipt() *Receipt {
	return e.receipt
}

// LoadAndExecute executes one transaction against the bank without
// committing anything.
//
// The fee is charged first; failing that, the tx is not sequenced and an
// error is returned. Instruction failure is not an error here: the receipt
// records it, the fee charge stays in the effects, and instruction state
// mutations are rolled back.
//
// Safe for concurrent calls with account-disjoint transactions; the
// scheduler's lock table guarantees disjointness.
func (b *Bank) LoadAndExecute(trx *tx.Transaction) (*TxEffects, error) {
	if b.Frozen() {
		return nil, ErrBankFrozen
	}

	signer, err := trx.Signer()
	if err != nil {
		return nil, errors.Wrap(err, "bad signature")
	}

	sm := stackedmap.New(func(key tempo.PubKey) (*Account, bool) {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return b.lookup(key).Copy(), true
	})

	// the fee charge lives below the rollback checkpoint
	fee := trx.Fee()
	sm.Push()
	payer, _ := sm.Get(signer)
	if payer.Balance < fee {
		return nil, ErrInsufficientFee
	}
	payer.Balance -= fee
	sm.Put(signer, payer)

	receipt := &Receipt{TxID: trx.ID(), Fee: fee}
	checkpoint := sm.Push()

	for _, instruction := range trx.Instructions() {
		exec, ok := b.executors[instruction.Program]
		if !ok {
			receipt.Err = ErrUnknownProgram.Error()
			break
		}

		writable := map[tempo.PubKey]bool{signer: true, instruction.Program: false}
		for _, meta := range instruction.Accounts {
			writable[meta.Key] = writable[meta.Key] || meta.Writable
		}

		view := &View{sm: sm, signer: signer, writable: writable}
		if err := exec.Execute(instruction, view); err != nil {
			receipt.Err = err.Error()
			break
		}
	}

	if receipt.Reverted() {
		sm.PopTo(checkpoint)
	}

	effects := &TxEffects{receipt: receipt, fee: fee}
	sm.Journal(func(key tempo.PubKey, acc *Account) bool {
		effects.writes = append(effects.writes, stackedmap.JournalEntry[tempo.PubKey, *Account]{Key: key, Value: acc})
		return true
	})
	return effects, nil
}

// Commit makes previously executed effects visible.
func (b *Bank) Commit(effects *TxEffects) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range effects.writes {
		b.accounts[w.Key] = w.Value
	}
	b.collectedFees += effects.fee
}

// ExecuteTransaction executes and immediately commits one transaction. This
// is the sequential-replay path; the scheduler uses the two-phase form.
func (b *Bank) ExecuteTransaction(trx *tx.Transaction) (*Receipt, error) {
	effects, err := b.LoadAndExecute(trx)
	if err != nil {
		return nil, err
	}
	b.Commit(effects)
	return effects.Receipt(), nil
}
