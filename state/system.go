// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// SystemProgramKey identifies the builtin system program, the only program
// the core itself supplies. Everything else arrives through RegisterExecutor.
var SystemProgramKey = tempo.BytesToPubKey([]byte("tempo-system-program"))

type transferArgs struct {
	Amount uint64
}

// NewTransferInstruction builds a system transfer moving amount from the tx
// signer to the given account.
func NewTransferInstruction(from, to tempo.PubKey, amount uint64) tx.Instruction {
	data, _ := rlp.EncodeToBytes(&transferArgs{Amount: amount})
	return tx.Instruction{
		Program: SystemProgramKey,
		Accounts: []tx.AccountMeta{
			{Key: from, Writable: true},
			{Key: to, Writable: true},
		},
		Data: data,
	}
}

// SystemProgram executes builtin transfers.
type SystemProgram struct{}

// Execute implements Executor.
func (p *SystemProgram) Execute(instruction tx.Instruction, view *View) error {
	var args transferArgs
	if err := rlp.DecodeBytes(instruction.Data, &args); err != nil {
		return errors.Wrap(ErrInvalidInstruction, err.Error())
	}
	if len(instruction.Accounts) != 2 {
		return errors.Wrap(ErrInvalidInstruction, "transfer takes 2 accounts")
	}

	fromKey := instruction.Accounts[0].Key
	toKey := instruction.Accounts[1].Key
	if fromKey == toKey {
		return errors.Wrap(ErrInvalidInstruction, "self transfer")
	}

	// only the holder moves funds out of an account
	if fromKey != view.Signer() {
		return errors.Wrap(ErrAccountNotWritable, "transfer source must be the signer")
	}

	from, err := view.Account(fromKey)
	if err != nil {
		return err
	}
	if from.Balance < args.Amount {
		return ErrInsufficientFunds
	}
	to, err := view.Account(toKey)
	if err != nil {
		return err
	}

	from.Balance -= args.Amount
	to.Balance += args.Amount

	if err := view.PutAccount(fromKey, from); err != nil {
		return err
	}
	return view.PutAccount(toKey, to)
}
