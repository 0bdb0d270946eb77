// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer_test

import (
	"crypto/ecdsa"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/packer"
	"github.com/tempoledger/tempo/poh"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

const (
	testTicksPerSlot  = 4
	testHashesPerTick = 8
)

type testAccount struct {
	priv *ecdsa.PrivateKey
	key  tempo.PubKey
}

func newTestAccount(t *testing.T) *testAccount {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &testAccount{priv, tempo.PubKeyFromPublicKey(&priv.PublicKey)}
}

// testChain is a frozen genesis bank plus a live slot-1 bank and recorder.
type testChain struct {
	root     *state.Bank
	bank     *state.Bank
	recorder *poh.Recorder
	leader   *testAccount
}

func newTestChain(t *testing.T, holders ...*testAccount) *testChain {
	startHash := tempo.Blake2b([]byte("genesis"))
	leader := newTestAccount(t)

	root := state.NewRootBank(leader.key, startHash)
	root.RegisterExecutor(state.SystemProgramKey, &state.SystemProgram{})
	for _, h := range holders {
		root.SetAccount(h.key, &state.Account{Balance: 10000})
	}
	root.Freeze(startHash)

	bank := state.NewBank(root, 1, leader.key)
	recorder := poh.NewRecorder(root.Hash(), testTicksPerSlot, testHashesPerTick)
	recorder.Reset(1, root.Hash())
	return &testChain{root, bank, recorder, leader}
}

func (c *testChain) transferTx(from *testAccount, to tempo.PubKey, amount, fee, nonce uint64) *tx.Transaction {
	return tx.MustSign(new(tx.Builder).
		RecentHash(c.root.Hash()).
		Fee(fee).
		Nonce(nonce).
		Instruction(state.NewTransferInstruction(from.key, to, amount)).
		Build(), from.priv)
}

func TestDisjointTxsShareOneEntry(t *testing.T) {
	alice := newTestAccount(t)
	carol := newTestAccount(t)
	bob := newTestAccount(t)
	dave := newTestAccount(t)
	eve := newTestAccount(t)
	chain := newTestChain(t, alice, carol)

	flow, err := packer.New(4, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	t1 := chain.transferTx(alice, bob.key, 100, 1, 1)
	t2 := chain.transferTx(carol, dave.key, 100, 1, 1)
	t3 := chain.transferTx(alice, eve.key, 100, 1, 2) // conflicts with t1 on alice

	require.NoError(t, flow.Adopt(t1))
	require.NoError(t, flow.Adopt(t2))
	require.NoError(t, flow.Adopt(t3))

	n, err := flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, flow.PendingCount())

	n, err = flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sealed, err := flow.Seal()
	require.NoError(t, err)

	var batches []int
	for _, e := range sealed.Entries {
		if !e.IsTick() {
			batches = append(batches, len(e.Transactions))
		}
	}
	// t1 and t2 together, t3 deferred to the next batch
	assert.Equal(t, []int{2, 1}, batches)
	assert.Len(t, sealed.Receipts, 3)
	assert.Empty(t, sealed.Dropped)
	assert.Equal(t, uint64(testTicksPerSlot), sealed.Entries.TickCount())
}

func TestAdoptRejections(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	trx := chain.transferTx(alice, bob.key, 1, 1, 1)
	require.NoError(t, flow.Adopt(trx))
	assert.ErrorIs(t, flow.Adopt(trx), packer.ErrKnownTx)

	stale := tx.MustSign(new(tx.Builder).
		RecentHash(tempo.Blake2b([]byte("ancient"))).
		Fee(1).
		Instruction(state.NewTransferInstruction(alice.key, bob.key, 1)).
		Build(), alice.priv)
	assert.ErrorIs(t, flow.Adopt(stale), packer.ErrStaleRecentHash)
}

func TestLockConflictDropsAfterRetries(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 1).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	// three txs all writing alice: each pass sequences one
	for nonce := uint64(1); nonce <= 3; nonce++ {
		require.NoError(t, flow.Adopt(chain.transferTx(alice, bob.key, 10, 1, nonce)))
	}

	n, err := flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sealed, err := flow.Seal()
	require.NoError(t, err)
	require.Len(t, sealed.Dropped, 1)
	assert.True(t, packer.IsWouldBlock(sealed.Dropped[0].Err))
}

func TestSlotEndRollsOver(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	// exhaust the tick budget before anything is scheduled
	for i := 0; i < testTicksPerSlot; i++ {
		chain.recorder.Tick()
	}

	require.NoError(t, flow.Adopt(chain.transferTx(alice, bob.key, 10, 1, 1)))
	n, err := flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	sealed, err := flow.Seal()
	require.NoError(t, err)
	assert.Len(t, sealed.Rollover, 1)
	assert.Empty(t, sealed.Receipts)
	// even an empty slot carries its full tick chain
	assert.Equal(t, uint64(testTicksPerSlot), sealed.Entries.TickCount())
}

func TestFailedTxSequencedWithFee(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	// transfer beyond alice's balance: sequenced as a recorded failure
	require.NoError(t, flow.Adopt(chain.transferTx(alice, bob.key, 999999, 5, 1)))
	n, err := flow.DispatchPass()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sealed, err := flow.Seal()
	require.NoError(t, err)
	require.Len(t, sealed.Receipts, 1)
	assert.True(t, sealed.Receipts[0].Reverted())
	assert.Equal(t, uint64(10000-5), chain.bank.Balance(alice.key))
}

func TestPackThenReplayDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var holders []*testAccount
	for i := 0; i < 4; i++ {
		holders = append(holders, newTestAccount(t))
	}
	chain := newTestChain(t, holders...)

	flow, err := packer.New(4, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)

	for nonce := uint64(1); nonce <= 20; nonce++ {
		from := holders[rng.Intn(len(holders))]
		to := holders[rng.Intn(len(holders))]
		if to == from {
			continue
		}
		require.NoError(t, flow.Adopt(
			chain.transferTx(from, to.key, uint64(rng.Intn(500)), uint64(rng.Intn(5)), nonce)))
	}

	for {
		n, err := flow.DispatchPass()
		require.NoError(t, err)
		if n == 0 && flow.PendingCount() == 0 {
			break
		}
	}
	sealed, err := flow.Seal()
	require.NoError(t, err)
	require.NoError(t, sealed.Entries.Verify(chain.root.Hash()))

	// replay twice against fresh banks; all three must agree
	for i := 0; i < 2; i++ {
		replayBank := state.NewBank(chain.root, 1, chain.leader.key)
		_, err := packer.Replay(replayBank, chain.root.Hash(), sealed.Entries, testTicksPerSlot, testHashesPerTick)
		require.NoError(t, err)

		assert.Equal(t, chain.bank.Hash(), replayBank.Hash())
		for _, h := range holders {
			assert.Equal(t, chain.bank.Balance(h.key), replayBank.Balance(h.key))
		}
		assert.Equal(t, chain.bank.Balance(chain.leader.key), replayBank.Balance(chain.leader.key))
	}
}

func TestReplayRejectsTamperedEntries(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)
	require.NoError(t, flow.Adopt(chain.transferTx(alice, bob.key, 10, 1, 1)))
	_, err = flow.DispatchPass()
	require.NoError(t, err)
	sealed, err := flow.Seal()
	require.NoError(t, err)

	sealed.Entries[0].Hash[0] ^= 0xff

	replayBank := state.NewBank(chain.root, 1, chain.leader.key)
	_, err = packer.Replay(replayBank, chain.root.Hash(), sealed.Entries, testTicksPerSlot, testHashesPerTick)
	assert.True(t, packer.IsInvalidEntries(err))
}

func TestReplayRejectsBatchAfterFinalTick(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	chain := newTestChain(t, alice)

	flow, err := packer.New(2, 3).Prepare(chain.bank, chain.recorder)
	require.NoError(t, err)
	sealed, err := flow.Seal()
	require.NoError(t, err)

	// a dishonest leader smuggles a batch in after the slot's last tick
	last := sealed.Entries[len(sealed.Entries)-1]
	smuggled := entry.New(last.Hash, 1, tx.Transactions{chain.transferTx(alice, bob.key, 10, 1, 1)})
	entries := append(sealed.Entries, smuggled)

	replayBank := state.NewBank(chain.root, 1, chain.leader.key)
	receipts, err := packer.Replay(replayBank, chain.root.Hash(), entries, testTicksPerSlot, testHashesPerTick)
	assert.True(t, packer.IsInvalidEntries(err))
	assert.Empty(t, receipts)
	assert.False(t, replayBank.Frozen())
}
