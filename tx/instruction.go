// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/tempoledger/tempo/tempo"

// AccountMeta names an account an instruction touches, with its access mode.
type AccountMeta struct {
	Key      tempo.PubKey
	Writable bool
}

// Instruction directs a program to operate on a list of accounts.
type Instruction struct {
	Program  tempo.PubKey
	Accounts []AccountMeta
	Data     []byte
}

// Copy returns a deep copy of the instruction.
func (i *Instruction) Copy() Instruction {
	return Instruction{
		Program:  i.Program,
		Accounts: append([]AccountMeta(nil), i.Accounts...),
		Data:     append([]byte(nil), i.Data...),
	}
}
