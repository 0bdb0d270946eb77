// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poh

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/metrics"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

var (
	// ErrStaleHash is returned by Record when the caller's view of the chain
	// head is outdated, a tick won the race.
	ErrStaleHash = errors.New("stale prev hash")

	// ErrSlotExhausted is returned by Record when the active slot's tick
	// budget has run out. The batch rolls over to the next leader slot.
	ErrSlotExhausted = errors.New("slot tick budget exhausted")
)

var metricTickHeight = metrics.LazyLoadGauge("poh_tick_height")

// Recorder binds the hash chain to slots and entries. It owns the canonical
// entry sequence of the active slot: ticks and recorded batches are appended
// in chain order, which makes the sequence reproducible by replay.
//
// It's thread-safe.
type Recorder struct {
	mu sync.Mutex

	poh           *Poh
	slot          tempo.Slot
	tickHeight    uint64
	maxTickHeight uint64
	ticksPerSlot  uint64
	hashesPerTick uint64
	entries       entry.Entries
}

// NewRecorder creates a recorder with no active slot. Reset must be called
// before recording.
func NewRecorder(startHash tempo.Bytes32, ticksPerSlot, hashesPerTick uint64) *Recorder {
	return &Recorder{
		poh:           NewPoh(startHash, hashesPerTick),
		ticksPerSlot:  ticksPerSlot,
		hashesPerTick: hashesPerTick,
	}
}

// Reset begins a new active slot on top of startHash, dropping any entries of
// the previous slot that were not sealed.
func (r *Recorder) Reset(slot tempo.Slot, startHash tempo.Bytes32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.poh = NewPoh(startHash, r.hashesPerTick)
	r.slot = slot
	r.tickHeight = slot * r.ticksPerSlot
	r.maxTickHeight = (slot + 1) * r.ticksPerSlot
	r.entries = nil
}

// Slot returns the active slot.
func (r *Recorder) Slot() tempo.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot
}

// TickHeight returns the global tick count.
func (r *Recorder) TickHeight() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickHeight
}

// CurrentHash returns the chain head. A caller intending to Record should
// pass this value back as its prev hash.
func (r *Recorder) CurrentHash() tempo.Bytes32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poh.Hash()
}

// SlotFull reports whether the active slot's tick budget is used up.
func (r *Recorder) SlotFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickHeight >= r.maxTickHeight
}

// Tick advances the clock by one tick. Time advances regardless of slot
// state; ticks beyond the slot budget extend the chain but are not part of
// the sealed slot's entries.
func (r *Recorder) Tick() *entry.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick()
}

func (r *Recorder) tick() *entry.Entry {
	hash, numHashes := r.poh.Tick()
	r.tickHeight++
	metricTickHeight().Set(int64(r.tickHeight))

	e := &entry.Entry{NumHashes: numHashes, Hash: hash}
	if r.tickHeight <= r.maxTickHeight {
		r.entries = append(r.entries, e)
	}
	return e
}

// Record appends a transaction batch to the active slot. prev must equal the
// current chain hash, otherwise ErrStaleHash is returned and the caller has
// to re-read the head; this is the append-only monotonicity check. A tick
// due at the record point is taken first.
func (r *Recorder) Record(prev tempo.Bytes32, txs tx.Transactions) (*entry.Entry, error) {
	if len(txs) == 0 {
		return nil, errors.New("empty batch")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tickHeight >= r.maxTickHeight {
		return nil, ErrSlotExhausted
	}
	if prev != r.poh.Hash() {
		return nil, ErrStaleHash
	}

	hash, numHashes, ok := r.poh.Record(txs.MixinHash())
	if !ok {
		// the tick boundary was reached mid-slot
		r.tick()
		if r.tickHeight >= r.maxTickHeight {
			return nil, ErrSlotExhausted
		}
		return nil, ErrStaleHash
	}

	e := &entry.Entry{NumHashes: numHashes, Hash: hash, Transactions: txs}
	r.entries = append(r.entries, e)
	return e, nil
}

// Seal fills the slot with its remaining ticks and returns the complete
// entry sequence. The recorder has no active slot afterwards until Reset.
func (r *Recorder) Seal() entry.Entries {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.tickHeight < r.maxTickHeight {
		r.tick()
	}

	sealed := r.entries
	r.entries = nil
	return sealed
}
