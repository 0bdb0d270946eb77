// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/tempoledger/tempo/tempo"

// LeaderSchedule decides which validator leads a slot. Rotation policy is
// supplied from outside the core; the node only consults it.
type LeaderSchedule interface {
	LeaderAt(slot tempo.Slot) tempo.PubKey
}

// RoundRobin is the default schedule, rotating over a fixed validator set.
type RoundRobin struct {
	validators []tempo.PubKey
}

// NewRoundRobin creates a round-robin schedule over validators, typically
// the genesis stakers.
func NewRoundRobin(validators []tempo.PubKey) *RoundRobin {
	if len(validators) == 0 {
		panic("empty validator set")
	}
	return &RoundRobin{validators}
}

// LeaderAt implements LeaderSchedule.
func (r *RoundRobin) LeaderAt(slot tempo.Slot) tempo.PubKey {
	return r.validators[slot%tempo.Slot(len(r.validators))]
}
