// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/genesis"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tower"
	"github.com/tempoledger/tempo/tx"
)

func TestDevnetDeterminism(t *testing.T) {
	g1, err := genesis.NewDevnet()
	require.NoError(t, err)
	g2, err := genesis.NewDevnet()
	require.NoError(t, err)

	assert.Equal(t, g1.ID(), g2.ID())
	assert.False(t, g1.ID().IsZero())
	assert.Equal(t, "devnet", g1.Name())

	b1, err := g1.Build()
	require.NoError(t, err)
	b2, err := g2.Build()
	require.NoError(t, err)
	assert.Equal(t, b1.Hash(), b2.Hash())
	assert.Equal(t, g1.ID(), b1.Hash())
	assert.True(t, b1.Frozen())

	for _, acc := range genesis.DevAccounts() {
		assert.Equal(t, uint64(1_000_000_000), b1.Balance(acc.Key))
	}
	assert.Len(t, g1.Validators(), 4)
	assert.Len(t, g1.Stakes(), 4)
}

func TestGenesisBankExecutes(t *testing.T) {
	g, err := genesis.NewDevnet()
	require.NoError(t, err)
	bank, err := g.Build()
	require.NoError(t, err)

	accs := genesis.DevAccounts()
	child := state.NewBank(bank, 1, accs[0].Key)

	trx := tx.MustSign(new(tx.Builder).
		RecentHash(bank.Hash()).
		Fee(1).
		Instruction(state.NewTransferInstruction(accs[1].Key, accs[2].Key, 100)).
		Build(), accs[1].PrivateKey)
	receipt, err := child.ExecuteTransaction(trx)
	require.NoError(t, err)
	assert.False(t, receipt.Reverted())

	vote := tx.MustSign(new(tx.Builder).
		RecentHash(bank.Hash()).
		Instruction(tower.NewVoteInstruction(accs[1].Key, tower.Vote{Slot: 1, Hash: bank.Hash()})).
		Build(), accs[1].PrivateKey)
	receipt, err = child.ExecuteTransaction(vote)
	require.NoError(t, err)
	assert.False(t, receipt.Reverted())
}

func TestCustomNet(t *testing.T) {
	accs := genesis.DevAccounts()
	def := `{
		"seed": "test-net",
		"accounts": [
			{"key": "` + accs[0].Key.String() + `", "balance": 500, "stake": 10},
			{"key": "` + accs[1].Key.String() + `", "balance": 700}
		]
	}`
	g, err := genesis.ReadCustomNet(strings.NewReader(def))
	require.NoError(t, err)

	bank, err := g.Build()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bank.Balance(accs[0].Key))
	assert.Equal(t, uint64(700), bank.Balance(accs[1].Key))
	assert.Equal(t, map[tempo.PubKey]uint64{accs[0].Key: 10}, g.Stakes())

	// different seed, different network
	g2, err := genesis.ReadCustomNet(strings.NewReader(strings.Replace(def, "test-net", "other-net", 1)))
	require.NoError(t, err)
	assert.NotEqual(t, g.ID(), g2.ID())

	_, err = genesis.ReadCustomNet(strings.NewReader(`{"accounts": []}`))
	assert.Error(t, err)
}
