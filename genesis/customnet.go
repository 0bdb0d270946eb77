// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/tempo"
)

// CustomGenesis is a user-customized genesis definition.
type CustomGenesis struct {
	Seed     string    `json:"seed"`
	Accounts []Account `json:"accounts"`
}

// Account is one account of a custom genesis file. The key is base58.
type Account struct {
	Key     tempo.PubKey `json:"key"`
	Balance uint64       `json:"balance"`
	Stake   uint64       `json:"stake"`
}

// NewCustomNet creates a custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if len(gen.Accounts) == 0 {
		return nil, errors.New("custom genesis needs at least one account")
	}
	var staked bool
	builder := new(Builder).Seed([]byte(gen.Seed))
	for _, acc := range gen.Accounts {
		if acc.Key.IsZero() {
			return nil, errors.New("custom genesis account key missing")
		}
		staked = staked || acc.Stake > 0
		builder.Add(Alloc{Key: acc.Key, Balance: acc.Balance, Stake: acc.Stake})
	}
	if !staked {
		return nil, errors.New("custom genesis needs staked accounts")
	}
	return newGenesis(builder, "customnet")
}

// ReadCustomNet parses a custom genesis definition from JSON.
func ReadCustomNet(r io.Reader) (*Genesis, error) {
	var gen CustomGenesis
	if err := json.NewDecoder(r).Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "parse custom genesis")
	}
	return NewCustomNet(&gen)
}
