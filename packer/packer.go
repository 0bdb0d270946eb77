// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package packer schedules and executes transactions for the slot a
// validator leads, packing them together with clock ticks into the slot's
// entry sequence.
package packer

import (
	"bytes"
	"runtime"
	"slices"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/co"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/metrics"
	"github.com/tempoledger/tempo/poh"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

var logger = log.WithContext("pkg", "packer")

var (
	metricTxsScheduled = metrics.LazyLoadCounter("packer_txs_scheduled")
	metricTxsDeferred  = metrics.LazyLoadCounter("packer_txs_deferred")
	metricTxsDropped   = metrics.LazyLoadCounter("packer_txs_dropped")
)

// Packer to schedule txs and build slot entries.
type Packer struct {
	workers        int
	maxLockRetries int
}

// New creates a packer. workers sizes the execution pool, defaulting to the
// hardware parallelism; maxLockRetries caps how many scheduling passes a
// lock-conflicted tx survives before it's dropped with ErrWouldBlock.
func New(workers, maxLockRetries int) *Packer {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if maxLockRetries < 1 {
		maxLockRetries = 3
	}
	return &Packer{workers, maxLockRetries}
}

// Prepare starts a packing flow over the given live bank. The recorder must
// be reset to the bank's slot beforehand.
func (p *Packer) Prepare(bank *state.Bank, recorder *poh.Recorder) (*Flow, error) {
	if bank.Frozen() {
		return nil, errors.New("bank already frozen")
	}
	if recorder.Slot() != bank.Slot() {
		return nil, errors.Errorf("recorder at slot %d, bank at slot %d", recorder.Slot(), bank.Slot())
	}
	return &Flow{
		packer:   p,
		bank:     bank,
		recorder: recorder,
		locks:    newAccountLocks(),
		known:    make(map[tempo.Bytes32]struct{}),
	}, nil
}

// queued is one backlog item with its scheduling state.
type queued struct {
	trx     *tx.Transaction
	set     *tx.AccountSet
	seq     uint64
	retries int
}

// DroppedTx pairs a dropped tx with the reason, handed back to the caller at
// seal time instead of being silently discarded.
type DroppedTx struct {
	Tx  *tx.Transaction
	Err error
}

// Sealed is the outcome of a packed slot.
type Sealed struct {
	Entries  entry.Entries
	Receipts state.Receipts
	Dropped  []DroppedTx
	Rollover tx.Transactions // still queued when the slot ended
}

// Flow holds the scheduling state of one slot. It is confined to the
// scheduler task; only bank execution inside a dispatch pass is parallel.
type Flow struct {
	packer   *Packer
	bank     *state.Bank
	recorder *poh.Recorder
	locks    *accountLocks

	queue    []*queued
	seq      uint64
	known    map[tempo.Bytes32]struct{}
	receipts state.Receipts
	dropped  []DroppedTx
	sealed   bool
}

// Bank returns the flow's live bank.
func (f *Flow) Bank() *state.Bank {
	return f.bank
}

// PendingCount returns the number of queued txs.
func (f *Flow) PendingCount() int {
	return len(f.queue)
}

// Adopt queues a transaction for scheduling. It performs the flow-scoped
// admission checks: duplicate detection, recent-hash freshness and signature
// recovery.
func (f *Flow) Adopt(trx *tx.Transaction) error {
	if f.sealed {
		return errors.New("flow sealed")
	}

	id := trx.ID()
	if _, ok := f.known[id]; ok {
		return ErrKnownTx
	}
	if !f.bank.IsRecentHash(trx.RecentHash()) {
		return ErrStaleRecentHash
	}
	set, err := trx.Accounts()
	if err != nil {
		return errors.Wrap(err, "bad signature")
	}

	f.known[id] = struct{}{}
	f.queue = append(f.queue, &queued{trx: trx, set: set, seq: f.seq})
	f.seq++
	return nil
}

// DispatchPass runs one scheduling pass: it pulls the maximal set of
// currently lock-compatible transactions, executes them on the worker pool,
// records the batch with the clock, then commits the results. It returns the
// number of transactions sequenced.
//
// The pass order is deterministic: fee descending, then arrival, then tx id.
func (f *Flow) DispatchPass() (int, error) {
	if f.sealed {
		return 0, errors.New("flow sealed")
	}
	if len(f.queue) == 0 || f.recorder.SlotFull() {
		return 0, nil
	}

	slices.SortStableFunc(f.queue, func(a, b *queued) int {
		if a.trx.Fee() != b.trx.Fee() {
			if a.trx.Fee() > b.trx.Fee() {
				return -1
			}
			return 1
		}
		if a.seq != b.seq {
			if a.seq < b.seq {
				return -1
			}
			return 1
		}
		aID, bID := a.trx.ID(), b.trx.ID()
		return bytes.Compare(aID.Bytes(), bID.Bytes())
	})

	// form the maximal lock-compatible batch
	var batch, deferred []*queued
	for _, q := range f.queue {
		if f.locks.Lock(q.set) {
			batch = append(batch, q)
			continue
		}
		if q.retries++; q.retries > f.packer.maxLockRetries {
			f.drop(q.trx, ErrWouldBlock)
		} else {
			deferred = append(deferred, q)
			metricTxsDeferred().Add(1)
		}
	}
	f.queue = deferred
	if len(batch) == 0 {
		return 0, nil
	}
	defer func() {
		for _, q := range batch {
			f.locks.Unlock(q.set)
		}
	}()

	// parallel execution; conflict freedom is guaranteed by the lock table
	effects := make([]*state.TxEffects, len(batch))
	execErrs := make([]error, len(batch))
	co.ParallelN(f.packer.workers, func(enqueue co.Enqueue) {
		for i, q := range batch {
			i, q := i, q
			enqueue(func() {
				effects[i], execErrs[i] = f.bank.LoadAndExecute(q.trx)
			})
		}
	})

	var (
		sequenced    tx.Transactions
		sequencedIdx []int
	)
	for i, q := range batch {
		if execErrs[i] != nil {
			// unsequenceable (unpayable fee, bad signature): hand it back
			f.drop(q.trx, execErrs[i])
			continue
		}
		sequenced = append(sequenced, q.trx)
		sequencedIdx = append(sequencedIdx, i)
	}
	if len(sequenced) == 0 {
		return 0, nil
	}

	// record the batch; a tick may win the race, in which case re-read the
	// chain head and try again
	for {
		_, err := f.recorder.Record(f.recorder.CurrentHash(), sequenced)
		if err == nil {
			break
		}
		if errors.Cause(err) == poh.ErrStaleHash {
			continue
		}
		if errors.Cause(err) == poh.ErrSlotExhausted {
			// the slot ended under us: discard effects, roll the batch over
			for _, i := range sequencedIdx {
				f.queue = append(f.queue, batch[i])
			}
			return 0, nil
		}
		return 0, err
	}

	for _, i := range sequencedIdx {
		f.bank.Commit(effects[i])
		f.receipts = append(f.receipts, effects[i].Receipt())
	}
	metricTxsScheduled().Add(int64(len(sequenced)))
	return len(sequenced), nil
}

func (f *Flow) drop(trx *tx.Transaction, reason error) {
	f.dropped = append(f.dropped, DroppedTx{Tx: trx, Err: reason})
	metricTxsDropped().Add(1)
	logger.Debug("tx dropped", "id", trx.ID(), "reason", reason)
}

// Seal closes the slot: the recorder fills the remaining ticks, the bank
// registers them and freezes, and anything still queued rolls over to the
// next slot's backlog.
func (f *Flow) Seal() (*Sealed, error) {
	if f.sealed {
		return nil, errors.New("flow sealed")
	}
	f.sealed = true

	entries := f.recorder.Seal()
	if len(entries) == 0 {
		return nil, errors.New("empty slot seal")
	}
	for _, e := range entries {
		if e.IsTick() {
			f.bank.RegisterTick(e.Hash)
		}
	}
	f.bank.Freeze(entries[len(entries)-1].Hash)

	var rollover tx.Transactions
	for _, q := range f.queue {
		rollover = append(rollover, q.trx)
	}
	f.queue = nil

	logger.Debug("slot sealed",
		"slot", f.bank.Slot(),
		"entries", len(entries),
		"txs", len(f.receipts),
		"rollover", len(rollover),
	)
	return &Sealed{
		Entries:  entries,
		Receipts: f.receipts,
		Dropped:  f.dropped,
		Rollover: rollover,
	}, nil
}
