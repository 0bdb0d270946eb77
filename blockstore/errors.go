// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockstore

import "github.com/pkg/errors"

var (
	// ErrParentUnknown is returned when a fragment names a parent slot the
	// store has never seen. The caller buffers and retries after the parent
	// arrives.
	ErrParentUnknown = errors.New("parent slot unknown")

	// ErrSlotNotFound is returned when querying a slot the store has no
	// record of.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotIncomplete is returned when a slot's fragment sequence still
	// has gaps.
	ErrSlotIncomplete = errors.New("slot incomplete")

	// ErrSlotDead is returned when inserting into a slot already marked dead.
	ErrSlotDead = errors.New("slot is dead")

	// ErrSlotOld is returned when inserting into a slot at or below the root.
	ErrSlotOld = errors.New("slot not after root")

	// ErrConflictingFragment is returned when a fragment contradicts one
	// already stored. The slot is marked dead as a side effect.
	ErrConflictingFragment = errors.New("conflicting fragment")

	// ErrNotDescendant is returned when trying to move the root to a slot
	// that does not descend from the current root.
	ErrNotDescendant = errors.New("not a descendant of current root")
)

func IsParentUnknown(err error) bool {
	return errors.Cause(err) == ErrParentUnknown
}

func IsSlotNotFound(err error) bool {
	return errors.Cause(err) == ErrSlotNotFound
}

func IsSlotIncomplete(err error) bool {
	return errors.Cause(err) == ErrSlotIncomplete
}

func IsConflictingFragment(err error) bool {
	return errors.Cause(err) == ErrConflictingFragment
}
