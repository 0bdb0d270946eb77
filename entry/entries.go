// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package entry

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tempoledger/tempo/tempo"
)

// Entries is an ordered entry sequence, usually one slot's worth.
type Entries []*Entry

var (
	// ErrBrokenChain means some entry's hash doesn't match recomputation.
	ErrBrokenChain = errors.New("broken entry hash chain")
	// ErrBadTickSpacing means ticks are not exactly hashesPerTick apart.
	ErrBadTickSpacing = errors.New("bad tick hash spacing")
)

// Verify recomputes the whole hash chain starting at startHash. Each entry
// only depends on its predecessor's recorded hash, so entries verify in
// parallel.
func (es Entries) Verify(startHash tempo.Bytes32) error {
	var group errgroup.Group
	for i, e := range es {
		i, e := i, e
		prev := startHash
		if i > 0 {
			prev = es[i-1].Hash
		}
		group.Go(func() error {
			if !e.Verify(prev) {
				return errors.Wrapf(ErrBrokenChain, "entry #%d", i)
			}
			return nil
		})
	}
	return group.Wait()
}

// VerifyTickSpacing checks that every tick sits exactly hashesPerTick hashes
// after the previous one. tickHashCount carries the running count across
// sequences that don't end on a tick; a trailing remainder of a full tick or
// more means a tick went missing and is rejected too.
func (es Entries) VerifyTickSpacing(tickHashCount *uint64, hashesPerTick uint64) error {
	if hashesPerTick == 0 {
		// hashing density not enforced
		return nil
	}
	for i, e := range es {
		*tickHashCount += e.NumHashes
		if e.IsTick() {
			if *tickHashCount != hashesPerTick {
				return errors.Wrapf(ErrBadTickSpacing, "entry #%d: %d hashes", i, *tickHashCount)
			}
			*tickHashCount = 0
		}
	}
	if *tickHashCount >= hashesPerTick {
		return errors.Wrapf(ErrBadTickSpacing, "trailing %d hashes without a tick", *tickHashCount)
	}
	return nil
}

// TickCount counts tick entries.
func (es Entries) TickCount() uint64 {
	var n uint64
	for _, e := range es {
		if e.IsTick() {
			n++
		}
	}
	return n
}
