// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package poh implements the verifiable delay clock: a continuously advancing
// hash chain that orders events without a trusted wall clock. Ticks mark the
// passage of time; recording folds a transaction batch mixin into the chain,
// proving the batch existed at that point.
package poh

import (
	"github.com/tempoledger/tempo/tempo"
)

// Poh is the raw hash chain state. Not safe for concurrent use; the Recorder
// serializes access.
type Poh struct {
	hash            tempo.Bytes32
	numHashes       uint64 // hashes since the last emitted entry
	hashesPerTick   uint64
	remainingHashes uint64 // hashes until the next tick boundary
}

// NewPoh creates a chain starting at startHash. hashesPerTick must be at
// least 1.
func NewPoh(startHash tempo.Bytes32, hashesPerTick uint64) *Poh {
	if hashesPerTick < 1 {
		hashesPerTick = 1
	}
	return &Poh{
		hash:            startHash,
		hashesPerTick:   hashesPerTick,
		remainingHashes: hashesPerTick,
	}
}

// Hash returns the current chain hash.
func (p *Poh) Hash() tempo.Bytes32 {
	return p.hash
}

// Record folds mixin into the chain. It reports false if a tick is due, in
// which case the caller must Tick first; the last hash of every tick period
// is reserved for the tick itself.
func (p *Poh) Record(mixin tempo.Bytes32) (hash tempo.Bytes32, numHashes uint64, ok bool) {
	if p.remainingHashes == 1 {
		return tempo.Bytes32{}, 0, false
	}

	p.hash = tempo.Blake2b(p.hash.Bytes(), mixin.Bytes())
	numHashes = p.numHashes + 1
	p.numHashes = 0
	p.remainingHashes--
	return p.hash, numHashes, true
}

// Tick advances the chain to the next tick boundary, performing all hashes
// remaining in the current period.
func (p *Poh) Tick() (hash tempo.Bytes32, numHashes uint64) {
	for p.remainingHashes > 0 {
		p.hash = tempo.Blake2b(p.hash.Bytes())
		p.numHashes++
		p.remainingHashes--
	}

	numHashes = p.numHashes
	p.numHashes = 0
	p.remainingHashes = p.hashesPerTick
	return p.hash, numHashes
}
