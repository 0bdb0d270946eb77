// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/blockstore"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/lvldb"
	"github.com/tempoledger/tempo/packer"
	"github.com/tempoledger/tempo/poh"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tower"
	"github.com/tempoledger/tempo/tx"
)

const (
	testTicksPerSlot  = 4
	testHashesPerTick = 8
)

type validator struct {
	priv *ecdsa.PrivateKey
	key  tempo.PubKey
}

func newValidator(t *testing.T) *validator {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &validator{priv, tempo.PubKeyFromPublicKey(&priv.PublicKey)}
}

// cluster is a three-validator fixture with equal stakes; the engine under
// test runs as validators[0].
type cluster struct {
	db         *lvldb.LevelDB
	store      *blockstore.Store
	engine     *tower.Engine
	genesis    *state.Bank
	validators []*validator
	stakes     map[tempo.PubKey]uint64
}

func newCluster(t *testing.T) *cluster {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := blockstore.New(db)
	require.NoError(t, err)

	var validators []*validator
	stakes := make(map[tempo.PubKey]uint64)
	for i := 0; i < 3; i++ {
		v := newValidator(t)
		validators = append(validators, v)
		stakes[v.key] = 1
	}

	c := &cluster{db: db, store: store, validators: validators, stakes: stakes}
	c.genesis = c.buildGenesisBank()

	engine, err := tower.NewEngine(store, db, c.genesis, stakes, c.config())
	require.NoError(t, err)
	c.engine = engine
	return c
}

// buildGenesisBank reconstructs the deterministic genesis bank, so restart
// tests can hand a fresh engine the same starting state.
func (c *cluster) buildGenesisBank() *state.Bank {
	startHash := tempo.Blake2b([]byte("cluster genesis"))
	genesis := state.NewRootBank(c.validators[0].key, startHash)
	genesis.RegisterExecutor(state.SystemProgramKey, &state.SystemProgram{})
	genesis.RegisterExecutor(tower.VoteProgramKey, &tower.Program{})
	for _, v := range c.validators {
		genesis.SetAccount(v.key, &state.Account{Balance: 1000})
	}
	genesis.Freeze(startHash)
	return genesis
}

func (c *cluster) config() tower.Config {
	return tower.Config{
		TicksPerSlot:  testTicksPerSlot,
		HashesPerTick: testHashesPerTick,
		PrivateKey:    c.validators[0].priv,
		LeaderAt: func(slot tempo.Slot) tempo.PubKey {
			return c.validators[slot%3].key
		},
	}
}

// packSlot packs txs into a slot on top of parent and returns its entries.
func (c *cluster) packSlot(t *testing.T, parent *state.Bank, slot tempo.Slot, txs ...*tx.Transaction) entry.Entries {
	leader := c.validators[slot%3].key
	bank := state.NewBank(parent, slot, leader)
	recorder := poh.NewRecorder(parent.Hash(), testTicksPerSlot, testHashesPerTick)
	recorder.Reset(slot, parent.Hash())

	flow, err := packer.New(2, 3).Prepare(bank, recorder)
	require.NoError(t, err)
	for _, trx := range txs {
		require.NoError(t, flow.Adopt(trx))
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
	require.Empty(t, sealed.Dropped)
	return sealed.Entries
}

func (c *cluster) insertAndProcess(t *testing.T, slot, parent tempo.Slot, entries entry.Entries) {
	require.NoError(t, c.store.InsertEntries(slot, parent, 0, true, entries))
	require.NoError(t, c.engine.ProcessSlot(slot))
}

func (c *cluster) voteTx(v *validator, slot tempo.Slot, bankHash tempo.Bytes32) *tx.Transaction {
	return tx.MustSign(new(tx.Builder).
		RecentHash(bankHash).
		Nonce(uint64(slot)).
		Instruction(tower.NewVoteInstruction(v.key, tower.Vote{Slot: slot, Hash: bankHash})).
		Build(), v.priv)
}

func TestProcessSlotReplays(t *testing.T) {
	c := newCluster(t)

	entries := c.packSlot(t, c.genesis, 1)
	c.insertAndProcess(t, 1, 0, entries)

	bank, ok := c.engine.Bank(1)
	require.True(t, ok)
	assert.True(t, bank.Frozen())
	assert.Equal(t, entries[len(entries)-1].Hash, bank.Hash())
	assert.Equal(t, tempo.Slot(1), c.engine.HeadSlot())
}

func TestProcessSlotParentBankUnknown(t *testing.T) {
	c := newCluster(t)

	e1 := c.packSlot(t, c.genesis, 1)
	require.NoError(t, c.store.InsertEntries(1, 0, 0, true, e1))

	bank1 := state.NewBank(c.genesis, 1, c.validators[1].key)
	_, err := packer.Replay(bank1, c.genesis.Hash(), e1, testTicksPerSlot, testHashesPerTick)
	require.NoError(t, err)
	e2 := c.packSlot(t, bank1, 2)
	require.NoError(t, c.store.InsertEntries(2, 1, 0, true, e2))

	// slot 2 cannot be replayed before slot 1
	assert.True(t, tower.IsParentBankUnknown(c.engine.ProcessSlot(2)))

	require.NoError(t, c.engine.ProcessSlot(1))
	require.NoError(t, c.engine.ProcessSlot(2))
	assert.Equal(t, tempo.Slot(2), c.engine.HeadSlot())
}

func TestProcessSlotMarksDeadOnBadEntries(t *testing.T) {
	c := newCluster(t)

	entries := c.packSlot(t, c.genesis, 1)
	entries[1].Hash[0] ^= 0xff
	require.NoError(t, c.store.InsertEntries(1, 0, 0, true, entries))

	err := c.engine.ProcessSlot(1)
	assert.True(t, packer.IsInvalidEntries(err))

	dead, err := c.store.IsDead(1)
	require.NoError(t, err)
	assert.True(t, dead)

	// dead slots never become the head
	assert.Equal(t, tempo.Slot(0), c.engine.HeadSlot())
}

func TestVoteAndLockoutAcrossForks(t *testing.T) {
	c := newCluster(t)

	// two competing children of the genesis slot
	c.insertAndProcess(t, 1, 0, c.packSlot(t, c.genesis, 1))
	c.insertAndProcess(t, 2, 0, c.packSlot(t, c.genesis, 2))

	voteTx, err := c.engine.TryVote(1)
	require.NoError(t, err)
	require.NotNil(t, voteTx)

	// slot 2 does not descend from slot 1, whose lockout still binds
	_, err = c.engine.TryVote(2)
	assert.True(t, tower.IsConsensusViolation(err))

	// voting for an unreplayed slot is suppressed too
	_, err = c.engine.TryVote(9)
	assert.True(t, tower.IsConsensusViolation(err))
}

func TestVoteTxExecutes(t *testing.T) {
	c := newCluster(t)

	c.insertAndProcess(t, 1, 0, c.packSlot(t, c.genesis, 1))
	voteTx, err := c.engine.TryVote(1)
	require.NoError(t, err)

	bank1, _ := c.engine.Bank(1)
	entries := c.packSlot(t, bank1, 2, voteTx)
	c.insertAndProcess(t, 2, 1, entries)

	bank2, ok := c.engine.Bank(2)
	require.True(t, ok)
	acc := bank2.GetAccount(c.validators[0].key)
	assert.NotEmpty(t, acc.Data)
}

func TestVoteProgramRejectsStaleVote(t *testing.T) {
	c := newCluster(t)
	bank := state.NewBank(c.genesis, 1, c.validators[0].key)
	v := c.validators[1]

	r1, err := bank.ExecuteTransaction(c.voteTx(v, 5, c.genesis.Hash()))
	require.NoError(t, err)
	assert.False(t, r1.Reverted())

	// votes must move forward
	r2, err := bank.ExecuteTransaction(c.voteTx(v, 3, c.genesis.Hash()))
	require.NoError(t, err)
	assert.True(t, r2.Reverted())
}

func TestSupermajorityAdvancesRoot(t *testing.T) {
	c := newCluster(t)

	c.insertAndProcess(t, 1, 0, c.packSlot(t, c.genesis, 1))
	bank1, _ := c.engine.Bank(1)

	// two of three validators vote for slot 1 in slot 2
	votes := []*tx.Transaction{
		c.voteTx(c.validators[1], 1, bank1.Hash()),
		c.voteTx(c.validators[2], 1, bank1.Hash()),
	}
	c.insertAndProcess(t, 2, 1, c.packSlot(t, bank1, 2, votes...))

	assert.Equal(t, tempo.Slot(1), c.store.Root())

	// rooted history is final: a competing fork below the root is rejected
	err := c.store.InsertEntries(3, 0, 0, true, c.packSlot(t, c.genesis, 3))
	assert.Error(t, err)
}

func TestHeadTieBreaksOnHigherSlot(t *testing.T) {
	c := newCluster(t)

	// two voteless forks off genesis carry equal (zero) weight
	c.insertAndProcess(t, 1, 0, c.packSlot(t, c.genesis, 1))
	assert.Equal(t, tempo.Slot(1), c.engine.HeadSlot())

	c.insertAndProcess(t, 2, 0, c.packSlot(t, c.genesis, 2))
	assert.Equal(t, tempo.Slot(2), c.engine.HeadSlot())
}

func TestEngineRestartReplaysRootedChain(t *testing.T) {
	c := newCluster(t)

	c.insertAndProcess(t, 1, 0, c.packSlot(t, c.genesis, 1))
	bank1, _ := c.engine.Bank(1)
	votes := []*tx.Transaction{
		c.voteTx(c.validators[1], 1, bank1.Hash()),
		c.voteTx(c.validators[2], 1, bank1.Hash()),
	}
	c.insertAndProcess(t, 2, 1, c.packSlot(t, bank1, 2, votes...))
	require.Equal(t, tempo.Slot(1), c.store.Root())

	// reopen the store over the same db and bring up a fresh engine; it
	// must rebuild bank state by replaying the persisted rooted chain
	store, err := blockstore.New(c.db)
	require.NoError(t, err)
	require.Equal(t, tempo.Slot(1), store.Root())

	engine, err := tower.NewEngine(store, c.db, c.buildGenesisBank(), c.stakes, c.config())
	require.NoError(t, err)

	rebuilt, ok := engine.Bank(1)
	require.True(t, ok)
	assert.Equal(t, bank1.Hash(), rebuilt.Hash())
	assert.Equal(t, tempo.Slot(1), engine.HeadSlot())
}
