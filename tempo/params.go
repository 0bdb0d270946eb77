// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tempo defines basic types and constants of the Tempo validator core.
package tempo

// Constants of the tick clock and consensus protocol. All of them are startup
// configuration defaults; a validator never changes them at runtime.
const (
	// DefaultTicksPerSlot is the tick budget a leader gets to fill one slot.
	DefaultTicksPerSlot uint64 = 64

	// DefaultHashesPerTick is the number of chain hashes one tick stands for.
	DefaultHashesPerTick uint64 = 12500

	// DefaultTickInterval is the target wall time between two ticks, in
	// milliseconds. Only a pacing hint, never part of verification.
	DefaultTickIntervalMS uint64 = 6

	// MaxLockoutHistory bounds the depth of a validator's vote tower. A vote
	// at max depth has lockout LockoutBase^MaxLockoutHistory and is about to
	// be rooted.
	MaxLockoutHistory = 31

	// LockoutBase is the per-depth lockout growth factor.
	LockoutBase uint64 = 2

	// SupermajorityNum/SupermajorityDen express the stake fraction required
	// to root a slot, kept as a ratio to avoid float rounding.
	SupermajorityNum uint64 = 2
	SupermajorityDen uint64 = 3

	// MaxRecentBlockhashes is how many registered tick hashes stay valid as
	// a transaction's recent-blockhash reference.
	MaxRecentBlockhashes = 300
)

// Slot is a fixed span of ticks assigned to exactly one leader.
type Slot = uint64
