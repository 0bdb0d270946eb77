// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
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

func newTestBank(t *testing.T, holders ...*testAccount) (*state.Bank, tempo.Bytes32) {
	startHash := tempo.Blake2b([]byte("genesis"))
	leader := newTestAccount(t)

	bank := state.NewRootBank(leader.key, startHash)
	bank.RegisterExecutor(state.SystemProgramKey, &state.SystemProgram{})
	for _, h := range holders {
		bank.SetAccount(h.key, &state.Account{Balance: 1000})
	}
	return bank, startHash
}

func transferTx(a *testAccount, to tempo.PubKey, amount, fee uint64, recent tempo.Bytes32) *tx.Transaction {
	return tx.MustSign(new(tx.Builder).
		RecentHash(recent).
		Fee(fee).
		Instruction(state.NewTransferInstruction(a.key, to, amount)).
		Build(), a.priv)
}

func TestExecuteTransfer(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	bank, startHash := newTestBank(t, alice)

	receipt, err := bank.ExecuteTransaction(transferTx(alice, bob.key, 300, 10, startHash))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted())

	assert.Equal(t, uint64(1000-300-10), bank.Balance(alice.key))
	assert.Equal(t, uint64(300), bank.Balance(bob.key))
}

func TestExecutionFailureSequencedWithFee(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	bank, startHash := newTestBank(t, alice)

	// more than alice holds
	receipt, err := bank.ExecuteTransaction(transferTx(alice, bob.key, 5000, 10, startHash))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted())
	assert.Contains(t, receipt.Err, "insufficient funds")

	// fee charged, transfer rolled back
	assert.Equal(t, uint64(990), bank.Balance(alice.key))
	assert.Equal(t, uint64(0), bank.Balance(bob.key))
}

func TestFeeUnpayableNotSequenced(t *testing.T) {
	pauper := newTestAccount(t)
	bob := newTestAccount(t)
	bank, startHash := newTestBank(t)

	_, err := bank.ExecuteTransaction(transferTx(pauper, bob.key, 1, 10, startHash))
	assert.ErrorIs(t, err, state.ErrInsufficientFee)
}

func TestUnknownProgramReverted(t *testing.T) {
	alice := newTestAccount(t)
	bank, _ := newTestBank(t, alice)

	trx := tx.MustSign(new(tx.Builder).
		Fee(5).
		Instruction(tx.Instruction{Program: tempo.BytesToPubKey([]byte("no-such-program"))}).
		Build(), alice.priv)

	receipt, err := bank.ExecuteTransaction(trx)
	require.NoError(t, err)
	assert.True(t, receipt.Reverted())
	assert.Equal(t, uint64(995), bank.Balance(alice.key))
}

func TestTransferFromNonSignerReverted(t *testing.T) {
	alice := newTestAccount(t)
	mallory := newTestAccount(t)
	bob := newTestAccount(t)
	bank, startHash := newTestBank(t, alice, mallory)

	// mallory signs a transfer out of alice's account
	trx := tx.MustSign(new(tx.Builder).
		RecentHash(startHash).
		Fee(1).
		Instruction(state.NewTransferInstruction(alice.key, bob.key, 100)).
		Build(), mallory.priv)

	receipt, err := bank.ExecuteTransaction(trx)
	require.NoError(t, err)
	assert.True(t, receipt.Reverted())
	assert.Equal(t, uint64(1000), bank.Balance(alice.key))
}

func TestChildBankInheritsState(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	parent, startHash := newTestBank(t, alice)

	_, err := parent.ExecuteTransaction(transferTx(alice, bob.key, 100, 0, startHash))
	require.NoError(t, err)
	parent.Freeze(tempo.Blake2b([]byte("slot-0-last")))

	child := state.NewBank(parent, 1, bob.key)
	assert.Equal(t, uint64(900), child.Balance(alice.key))
	assert.Equal(t, uint64(100), child.Balance(bob.key))

	// child mutations don't leak into the frozen parent
	_, err = child.ExecuteTransaction(transferTx(alice, bob.key, 100, 0, startHash))
	require.NoError(t, err)
	assert.Equal(t, uint64(900), parent.Balance(alice.key))
	assert.Equal(t, uint64(800), child.Balance(alice.key))
}

func TestFrozenBankRejectsExecution(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	bank, startHash := newTestBank(t, alice)

	bank.Freeze(tempo.Blake2b([]byte("sealed")))
	_, err := bank.ExecuteTransaction(transferTx(alice, bob.key, 1, 1, startHash))
	assert.ErrorIs(t, err, state.ErrBankFrozen)
}

func TestFeesDepositedAtFreeze(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	leader := newTestAccount(t)
	startHash := tempo.Blake2b([]byte("genesis"))

	bank := state.NewRootBank(leader.key, startHash)
	bank.RegisterExecutor(state.SystemProgramKey, &state.SystemProgram{})
	bank.SetAccount(alice.key, &state.Account{Balance: 1000})

	_, err := bank.ExecuteTransaction(transferTx(alice, bob.key, 10, 7, startHash))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bank.Balance(leader.key))

	bank.Freeze(tempo.Blake2b([]byte("sealed")))
	assert.Equal(t, uint64(7), bank.Balance(leader.key))
}

func TestRecentHashWindow(t *testing.T) {
	bank, startHash := newTestBank(t)

	assert.True(t, bank.IsRecentHash(startHash))
	assert.False(t, bank.IsRecentHash(tempo.Blake2b([]byte("other"))))

	tick := tempo.Blake2b([]byte("tick"))
	bank.RegisterTick(tick)
	assert.True(t, bank.IsRecentHash(tick))
	assert.Equal(t, uint64(1), bank.TickHeight())

	// the window is bounded
	for i := 0; i < tempo.MaxRecentBlockhashes; i++ {
		bank.RegisterTick(tempo.Blake2b([]byte{byte(i), byte(i >> 8)}))
	}
	assert.False(t, bank.IsRecentHash(startHash))
}
