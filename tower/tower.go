// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tower implements the consensus engine: the per-validator vote
// stack with exponential lockouts, stake-weighted fork choice and the
// replay loop feeding both.
package tower

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/tempo"
)

var logger = log.WithContext("pkg", "tower")

// ErrConsensusViolation is returned when a vote would break the validator's
// own lockouts, or targets a dead or unknown slot. The vote is suppressed,
// never applied.
var ErrConsensusViolation = errors.New("consensus violation")

// IsConsensusViolation reports whether err is a consensus violation.
func IsConsensusViolation(err error) bool {
	return errors.Cause(err) == ErrConsensusViolation
}

// Tower is the validator's own vote stack. Not thread-safe; owned by the
// engine's replay task.
type Tower struct {
	votes []Lockout
	root  tempo.Slot
}

// NewTower creates an empty tower rooted at the genesis slot.
func NewTower() *Tower {
	return &Tower{}
}

// Root returns the highest slot this tower considers irreversible.
func (t *Tower) Root() tempo.Slot {
	return t.root
}

// Votes returns a copy of the vote stack, oldest first.
func (t *Tower) Votes() []Lockout {
	return slices.Clone(t.votes)
}

// LastVote returns the most recent vote, if any.
func (t *Tower) LastVote() (Lockout, bool) {
	if len(t.votes) == 0 {
		return Lockout{}, false
	}
	return t.votes[len(t.votes)-1], true
}

// Status reports the vote state as observed at slot.
func (t *Tower) Status(at tempo.Slot) Status {
	if len(t.votes) == 0 {
		return StatusNoVote
	}
	for i := range t.votes {
		if t.votes[i].IsLockedAt(at) {
			return StatusLocked
		}
	}
	return StatusVoted
}

// CheckVote verifies that voting for slot would not violate any lockout.
// descends reports whether the candidate fork at slot contains the given
// slot as an ancestor (or is that slot itself).
func (t *Tower) CheckVote(slot tempo.Slot, descends func(ancestor tempo.Slot) bool) error {
	if t.root != 0 && slot <= t.root {
		return errors.Wrapf(ErrConsensusViolation, "slot %d at or below root %d", slot, t.root)
	}
	if last, ok := t.LastVote(); ok && slot <= last.Slot {
		return errors.Wrapf(ErrConsensusViolation, "slot %d not after last vote %d", slot, last.Slot)
	}
	for i := range t.votes {
		v := &t.votes[i]
		if !v.IsLockedAt(slot) {
			// expired, would be popped
			continue
		}
		if !descends(v.Slot) {
			return errors.Wrapf(ErrConsensusViolation,
				"fork at slot %d excludes still-locked vote for slot %d (locked through %d)",
				slot, v.Slot, v.LastLockedSlot())
		}
	}
	return nil
}

// RecordVote pushes a vote for slot onto the stack: expired votes are
// popped first, then every older vote confirmed by its full depth has its
// lockout doubled. When the stack exceeds the max depth the oldest vote
// becomes the new tower root. Returns the rooted slot, if any.
//
// The caller must have validated the vote with CheckVote.
func (t *Tower) RecordVote(slot tempo.Slot) (rooted tempo.Slot, ok bool) {
	for len(t.votes) > 0 && !t.votes[len(t.votes)-1].IsLockedAt(slot) {
		t.votes = t.votes[:len(t.votes)-1]
	}
	t.votes = append(t.votes, Lockout{Slot: slot, ConfirmationCount: 1})

	// a vote at depth d from the top doubles once it is confirmed by d
	// stacked votes
	for i := len(t.votes) - 2; i >= 0; i-- {
		depth := uint32(len(t.votes) - 1 - i)
		if t.votes[i].ConfirmationCount == depth && t.votes[i].ConfirmationCount < tempo.MaxLockoutHistory {
			t.votes[i].ConfirmationCount++
		}
	}

	if len(t.votes) > tempo.MaxLockoutHistory {
		rooted = t.votes[0].Slot
		t.votes = slices.Clone(t.votes[1:])
		t.root = rooted
		return rooted, true
	}
	return 0, false
}

// AdvanceRoot lifts the tower root to slot, discarding votes the new root
// already implies. Called when supermajority finalization outruns the
// tower's own depth-based rooting.
func (t *Tower) AdvanceRoot(slot tempo.Slot) {
	if slot <= t.root {
		return
	}
	t.root = slot
	kept := t.votes[:0]
	for _, v := range t.votes {
		if v.Slot > slot {
			kept = append(kept, v)
		}
	}
	t.votes = kept
	logger.Debug("tower root advanced", "root", slot, "depth", len(t.votes))
}
