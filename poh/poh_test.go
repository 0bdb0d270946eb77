// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poh_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/poh"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

func newTestTx(t *testing.T, nonce uint64) *tx.Transaction {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return tx.MustSign(new(tx.Builder).Nonce(nonce).Build(), priv)
}

func TestPohTickMatchesEntryVerification(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))

	p := poh.NewPoh(start, 8)
	hash, numHashes := p.Tick()
	assert.Equal(t, uint64(8), numHashes)

	tick := &entry.Entry{NumHashes: numHashes, Hash: hash}
	assert.True(t, tick.Verify(start))
}

func TestPohRecordMatchesEntryVerification(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	txs := tx.Transactions{newTestTx(t, 1)}

	p := poh.NewPoh(start, 8)
	hash, numHashes, ok := p.Record(txs.MixinHash())
	require.True(t, ok)
	assert.Equal(t, uint64(1), numHashes)

	e := &entry.Entry{NumHashes: numHashes, Hash: hash, Transactions: txs}
	assert.True(t, e.Verify(start))

	// following tick covers the rest of the period
	hash2, numHashes2 := p.Tick()
	assert.Equal(t, uint64(7), numHashes2)
	assert.True(t, (&entry.Entry{NumHashes: numHashes2, Hash: hash2}).Verify(e.Hash))
}

func TestPohRecordRefusedAtBoundary(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	mixin := tempo.Blake2b([]byte("mixin"))

	p := poh.NewPoh(start, 2)
	_, _, ok := p.Record(mixin)
	require.True(t, ok)
	// only the reserved tick hash remains
	_, _, ok = p.Record(mixin)
	assert.False(t, ok)
}

func TestRecorderSlotLifecycle(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	r := poh.NewRecorder(start, 4, 8)
	r.Reset(0, start)

	assert.Equal(t, uint64(0), r.TickHeight())

	txs := tx.Transactions{newTestTx(t, 1)}
	e, err := r.Record(r.CurrentHash(), txs)
	require.NoError(t, err)
	assert.False(t, e.IsTick())

	// stale view is rejected
	_, err = r.Record(start, tx.Transactions{newTestTx(t, 2)})
	assert.ErrorIs(t, err, poh.ErrStaleHash)

	sealed := r.Seal()
	assert.Equal(t, uint64(4), sealed.TickCount())
	assert.True(t, r.SlotFull())

	require.NoError(t, sealed.Verify(start))
	var carry uint64
	require.NoError(t, sealed.VerifyTickSpacing(&carry, 8))
}

func TestRecorderSlotExhausted(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	r := poh.NewRecorder(start, 2, 8)
	r.Reset(3, start)

	assert.Equal(t, uint64(6), r.TickHeight())
	r.Tick()
	r.Tick()
	assert.True(t, r.SlotFull())

	_, err := r.Record(r.CurrentHash(), tx.Transactions{newTestTx(t, 1)})
	assert.ErrorIs(t, err, poh.ErrSlotExhausted)
}

func TestRecorderTickRace(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	r := poh.NewRecorder(start, 8, 8)
	r.Reset(0, start)

	prev := r.CurrentHash()
	r.Tick() // a tick wins the race

	_, err := r.Record(prev, tx.Transactions{newTestTx(t, 1)})
	assert.ErrorIs(t, err, poh.ErrStaleHash)

	// retry with the fresh head succeeds
	_, err = r.Record(r.CurrentHash(), tx.Transactions{newTestTx(t, 1)})
	require.NoError(t, err)
}

func TestClockKeepsTicking(t *testing.T) {
	start := tempo.Blake2b([]byte("genesis"))
	r := poh.NewRecorder(start, 1000, 2)
	r.Reset(0, start)

	clock := poh.NewClock(r, time.Millisecond)
	w := clock.NewTickWaiter()
	clock.Start()
	defer clock.Stop()

	<-w.C()
	deadline := time.After(time.Second)
	for r.TickHeight() < 3 {
		select {
		case <-deadline:
			t.Fatal("clock stalled")
		case <-time.After(time.Millisecond):
		}
	}
}
