// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import "github.com/tempoledger/tempo/tempo"

// Lockout is one entry of the vote stack. ConfirmationCount grows as later
// votes stack on top, doubling the lockout each time.
type Lockout struct {
	Slot              tempo.Slot
	ConfirmationCount uint32
}

// Span returns the lockout span in slots, base^confirmations capped at
// base^maxLockoutHistory.
func (l *Lockout) Span() uint64 {
	n := l.ConfirmationCount
	if n > tempo.MaxLockoutHistory {
		n = tempo.MaxLockoutHistory
	}
	span := uint64(1)
	for i := uint32(0); i < n; i++ {
		span *= tempo.LockoutBase
	}
	return span
}

// LastLockedSlot returns the last slot this vote is locked at. Voting on a
// fork excluding l.Slot is illegal through that slot inclusive.
func (l *Lockout) LastLockedSlot() tempo.Slot {
	return l.Slot + l.Span()
}

// IsLockedAt reports whether the lockout still binds at slot.
func (l *Lockout) IsLockedAt(slot tempo.Slot) bool {
	return slot <= l.LastLockedSlot()
}

// Status is the per-validator vote state.
type Status int

const (
	// StatusNoVote means no votes are on the stack.
	StatusNoVote Status = iota
	// StatusVoted means votes exist but none binds at the observed slot.
	StatusVoted
	// StatusLocked means at least one vote still binds at the observed slot.
	StatusLocked
)

func (s Status) String() string {
	switch s {
	case StatusNoVote:
		return "no-vote"
	case StatusVoted:
		return "voted"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}
