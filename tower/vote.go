// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// VoteProgramKey is the well-known key of the built-in vote program.
var VoteProgramKey = tempo.BytesToPubKey([]byte("tempo-vote-program"))

// Vote states that the voter has observed slot and now builds on it.
type Vote struct {
	Slot tempo.Slot
	Hash tempo.Bytes32 // the slot's bank hash
}

// NewVoteInstruction builds the instruction casting vote from the voter's
// account.
func NewVoteInstruction(voter tempo.PubKey, vote Vote) tx.Instruction {
	data, err := rlp.EncodeToBytes(&vote)
	if err != nil {
		// Vote is a fixed flat struct
		panic(err)
	}
	return tx.Instruction{
		Program: VoteProgramKey,
		Accounts: []tx.AccountMeta{
			{Key: voter, Writable: true},
		},
		Data: data,
	}
}

// ParseVote decodes a vote instruction. Returns false if the instruction
// does not target the vote program.
func ParseVote(instr tx.Instruction) (*Vote, bool) {
	if instr.Program != VoteProgramKey {
		return nil, false
	}
	var vote Vote
	if err := rlp.DecodeBytes(instr.Data, &vote); err != nil {
		return nil, false
	}
	return &vote, true
}

// voteAccountState is the payload persisted in a voter's account, the
// recent vote history newest-last.
type voteAccountState struct {
	Votes []Vote
}

// Program is the built-in vote program. Executing a vote instruction appends
// the vote to the voter's account payload, so vote history replays with the
// ledger like any other state.
type Program struct{}

// Execute implements state.Executor.
func (p *Program) Execute(instr tx.Instruction, view *state.View) error {
	vote, ok := ParseVote(instr)
	if !ok {
		return errors.Wrap(state.ErrInvalidInstruction, "malformed vote")
	}
	if len(instr.Accounts) != 1 {
		return errors.Wrap(state.ErrInvalidInstruction, "vote wants 1 account")
	}
	voter := instr.Accounts[0].Key
	if voter != view.Signer() {
		return errors.Wrap(state.ErrInvalidInstruction, "voter is not the signer")
	}

	acc, err := view.Account(voter)
	if err != nil {
		return err
	}
	var vs voteAccountState
	if len(acc.Data) > 0 {
		if err := rlp.DecodeBytes(acc.Data, &vs); err != nil {
			return errors.Wrap(state.ErrInvalidInstruction, "corrupt vote account")
		}
	}
	if n := len(vs.Votes); n > 0 && vote.Slot <= vs.Votes[n-1].Slot {
		return errors.Wrap(state.ErrInvalidInstruction, "vote slot not increasing")
	}

	vs.Votes = append(vs.Votes, *vote)
	if len(vs.Votes) > tempo.MaxLockoutHistory {
		vs.Votes = vs.Votes[len(vs.Votes)-tempo.MaxLockoutHistory:]
	}
	data, err := rlp.EncodeToBytes(&vs)
	if err != nil {
		return err
	}
	acc.Data = data
	return view.PutAccount(voter, acc)
}
