// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tempoledger/tempo/tempo"
)

// DevAccount is an account prefunded by the devnet preset, with its private
// key in the clear. Never use outside local development.
type DevAccount struct {
	Key        tempo.PubKey
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts struct {
	once     sync.Once
	accounts []DevAccount
}

// DevAccounts returns the devnet's deterministic accounts.
func DevAccounts() []DevAccount {
	devAccounts.once.Do(func() {
		for i := 0; i < 4; i++ {
			seed := tempo.Blake2b([]byte(fmt.Sprintf("tempo-dev-key-%d", i)))
			priv, err := crypto.ToECDSA(seed.Bytes())
			if err != nil {
				panic(err)
			}
			devAccounts.accounts = append(devAccounts.accounts, DevAccount{
				Key:        tempo.PubKeyFromPublicKey(&priv.PublicKey),
				PrivateKey: priv,
			})
		}
	})
	return devAccounts.accounts
}

// NewDevnet creates the local development network genesis: all dev accounts
// prefunded and equally staked.
func NewDevnet() (*Genesis, error) {
	builder := new(Builder).Seed([]byte("devnet"))
	for _, acc := range DevAccounts() {
		builder.Add(Alloc{
			Key:     acc.Key,
			Balance: 1_000_000_000,
			Stake:   1_000_000,
		})
	}
	return newGenesis(builder, "devnet")
}
