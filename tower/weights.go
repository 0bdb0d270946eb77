// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import (
	"github.com/tempoledger/tempo/tempo"
)

// ForkWeights aggregates observed votes into per-fork stake weights. A
// voter's stake always counts for its latest voted slot and every ancestor
// of it, so weights are recomputed from the latest-vote map on demand
// rather than persisted.
type ForkWeights struct {
	stakes map[tempo.PubKey]uint64
	total  uint64
	latest map[tempo.PubKey]tempo.Slot
}

// NewForkWeights creates the weight aggregate over the given stake
// distribution. Votes from keys without stake are ignored.
func NewForkWeights(stakes map[tempo.PubKey]uint64) *ForkWeights {
	w := &ForkWeights{
		stakes: make(map[tempo.PubKey]uint64, len(stakes)),
		latest: make(map[tempo.PubKey]tempo.Slot),
	}
	for key, stake := range stakes {
		w.stakes[key] = stake
		w.total += stake
	}
	return w
}

// TotalStake returns the sum of all registered stake.
func (w *ForkWeights) TotalStake() uint64 {
	return w.total
}

// RecordVote observes a vote. Older or equal votes from the same voter are
// ignored, so replays and gossip duplicates are harmless.
func (w *ForkWeights) RecordVote(voter tempo.PubKey, slot tempo.Slot) bool {
	if _, staked := w.stakes[voter]; !staked {
		return false
	}
	if last, ok := w.latest[voter]; ok && slot <= last {
		return false
	}
	w.latest[voter] = slot
	return true
}

// LatestVote returns the voter's latest observed vote slot.
func (w *ForkWeights) LatestVote(voter tempo.PubKey) (tempo.Slot, bool) {
	slot, ok := w.latest[voter]
	return slot, ok
}

// VotedStake sums the stake credited to slot: every voter whose latest vote
// lands on slot or one of its descendants. descends reports whether its
// second argument descends from (or equals) its first.
func (w *ForkWeights) VotedStake(slot tempo.Slot, descends func(ancestor, slot tempo.Slot) bool) uint64 {
	var stake uint64
	for voter, voted := range w.latest {
		if descends(slot, voted) {
			stake += w.stakes[voter]
		}
	}
	return stake
}

// HasSupermajority reports whether stake clears the finalization threshold
// of total stake.
func (w *ForkWeights) HasSupermajority(stake uint64) bool {
	return stake*tempo.SupermajorityDen >= w.total*tempo.SupermajorityNum
}
