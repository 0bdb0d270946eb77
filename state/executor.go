// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/stackedmap"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// Execution errors. A transaction hitting one is still sequenced, with its
// state mutations rolled back and the fee kept.
var (
	ErrUnknownProgram       = errors.New("unknown program")
	ErrAccountNotReferenced = errors.New("account not referenced by instruction")
	ErrAccountNotWritable   = errors.New("account not writable")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidInstruction   = errors.New("invalid instruction data")
)

// Executor is the program execution capability. How a program interprets its
// instruction is outside the core; the bank only cares that effects flow
// through the view, so they can be rolled back on failure.
type Executor interface {
	Execute(instruction tx.Instruction, view *View) error
}

// View is an instruction's window onto the bank. It only exposes accounts the
// instruction names (plus the tx signer), and enforces the declared access
// mode, which is what makes the scheduler's conflict detection sound.
type View struct {
	sm       *stackedmap.StackedMap[tempo.PubKey, *Account]
	signer   tempo.PubKey
	writable map[tempo.PubKey]bool
}

// Signer returns the account key of the transaction signer.
func (v *View) Signer() tempo.PubKey {
	return v.signer
}

// Account returns a copy of the referenced account. Unreferenced accounts
// are not readable.
func (v *View) Account(key tempo.PubKey) (*Account, error) {
	if _, ok := v.writable[key]; !ok {
		return nil, errors.Wrap(ErrAccountNotReferenced, key.String())
	}
	if acc, ok := v.sm.Get(key); ok {
		return acc.Copy(), nil
	}
	return &Account{}, nil
}

// PutAccount stores the account, which must be writable per the instruction's
// account metas.
func (v *View) PutAccount(key tempo.PubKey, acc *Account) error {
	if !v.writable[key] {
		return errors.Wrap(ErrAccountNotWritable, key.String())
	}
	v.sm.Put(key, acc.Copy())
	return nil
}
