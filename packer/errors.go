// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import "github.com/pkg/errors"

var (
	// ErrKnownTx rejects a tx already adopted in the flow.
	ErrKnownTx = errors.New("known tx")

	// ErrStaleRecentHash rejects a tx referencing a clock hash outside the
	// bank's recent window.
	ErrStaleRecentHash = errors.New("stale recent hash")

	// ErrWouldBlock marks a tx dropped after exhausting its lock-conflict
	// retries within the slot. The submitter may retry next slot.
	ErrWouldBlock = errors.New("would block on account locks")

	// ErrSlotEnded marks a tx that was still queued when the slot's tick
	// budget ran out. It rolls over to the next slot's backlog.
	ErrSlotEnded = errors.New("slot ended")
)

// IsWouldBlock checks for the lock-conflict drop signal.
func IsWouldBlock(err error) bool {
	return errors.Cause(err) == ErrWouldBlock
}
