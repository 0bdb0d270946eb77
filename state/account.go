// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state implements accounts and the bank, the versioned snapshot of
// all account states at a slot.
package state

import "github.com/tempoledger/tempo/tempo"

// Account is the mutable unit of ledger state. Accounts are never deleted,
// only zeroed; an account nobody ever touched reads as the zero value.
type Account struct {
	Balance    uint64
	Owner      tempo.PubKey
	Data       []byte
	Executable bool
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cpy := *a
	cpy.Data = append([]byte(nil), a.Data...)
	return &cpy
}

// IsZero returns whether the account is indistinguishable from one that was
// never created.
func (a *Account) IsZero() bool {
	return a.Balance == 0 && a.Owner.IsZero() && len(a.Data) == 0 && !a.Executable
}
