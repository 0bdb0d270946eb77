// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

func TestSignAndRecover(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	trx := new(tx.Builder).
		RecentHash(tempo.Blake2b([]byte("recent"))).
		Fee(10).
		Nonce(1).
		Instruction(tx.Instruction{
			Program: tempo.BytesToPubKey([]byte("system")),
			Accounts: []tx.AccountMeta{
				{Key: tempo.BytesToPubKey([]byte("a")), Writable: true},
			},
			Data: []byte{1, 2, 3},
		}).
		Build()

	signed := tx.MustSign(trx, priv)

	signer, err := signed.Signer()
	require.NoError(t, err)
	assert.Equal(t, tempo.PubKeyFromPublicKey(&priv.PublicKey), signer)

	// signature alters id but not signing hash
	assert.Equal(t, trx.SigningHash(), signed.SigningHash())
	assert.NotEqual(t, trx.ID(), signed.ID())
}

func TestRecoverGarbageSignature(t *testing.T) {
	trx := new(tx.Builder).Fee(1).Build().WithSignature(make([]byte, 65))
	_, err := trx.Signer()
	assert.Error(t, err)
}

func TestAccountsFootprint(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := tempo.PubKeyFromPublicKey(&priv.PublicKey)

	var (
		program = tempo.BytesToPubKey([]byte("system"))
		accA    = tempo.BytesToPubKey([]byte("a"))
		accB    = tempo.BytesToPubKey([]byte("b"))
	)

	trx := tx.MustSign(new(tx.Builder).
		Instruction(tx.Instruction{
			Program: program,
			Accounts: []tx.AccountMeta{
				{Key: accA, Writable: true},
				{Key: accB, Writable: false},
			},
		}).
		Instruction(tx.Instruction{
			Program: program,
			Accounts: []tx.AccountMeta{
				// upgraded to writable by the second instruction
				{Key: accB, Writable: true},
			},
		}).
		Build(), priv)

	set, err := trx.Accounts()
	require.NoError(t, err)

	assert.ElementsMatch(t, []tempo.PubKey{signer, accA, accB}, set.Writes)
	assert.ElementsMatch(t, []tempo.PubKey{program}, set.Reads)
}

func TestCodecRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	signed := tx.MustSign(new(tx.Builder).
		RecentHash(tempo.Blake2b([]byte("h"))).
		Fee(7).
		Nonce(42).
		Instruction(tx.Instruction{
			Program: tempo.BytesToPubKey([]byte("system")),
			Data:    []byte{9},
		}).
		Build(), priv)

	data, err := rlp.EncodeToBytes(signed)
	require.NoError(t, err)

	var decoded tx.Transaction
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, signed.ID(), decoded.ID())

	recovered, err := decoded.Signer()
	require.NoError(t, err)
	assert.Equal(t, tempo.PubKeyFromPublicKey(&priv.PublicKey), recovered)
}

func TestMixinHashOrderSensitive(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx1 := tx.MustSign(new(tx.Builder).Nonce(1).Build(), priv)
	tx2 := tx.MustSign(new(tx.Builder).Nonce(2).Build(), priv)

	assert.NotEqual(t,
		tx.Transactions{tx1, tx2}.MixinHash(),
		tx.Transactions{tx2, tx1}.MixinHash())
	assert.Equal(t,
		tx.Transactions{tx1, tx2}.MixinHash(),
		tx.Transactions{tx1, tx2}.MixinHash())
}
