// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import (
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// accountLocks is the short-lived per-slot lock table. Write access is
// exclusive, read access is shared. Acquisition is all-or-nothing: a tx
// whose footprint conflicts takes none of its locks and is deferred, it
// never blocks a worker.
//
// Only the scheduling pass touches the table, so no mutex is needed.
type accountLocks struct {
	writeLocked map[tempo.PubKey]struct{}
	readLocked  map[tempo.PubKey]int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{
		writeLocked: make(map[tempo.PubKey]struct{}),
		readLocked:  make(map[tempo.PubKey]int),
	}
}

// Lock tries to acquire the whole footprint, reporting whether it succeeded.
func (l *accountLocks) Lock(set *tx.AccountSet) bool {
	for _, key := range set.Writes {
		if _, ok := l.writeLocked[key]; ok {
			return false
		}
		if l.readLocked[key] > 0 {
			return false
		}
	}
	for _, key := range set.Reads {
		if _, ok := l.writeLocked[key]; ok {
			return false
		}
	}

	for _, key := range set.Writes {
		l.writeLocked[key] = struct{}{}
	}
	for _, key := range set.Reads {
		l.readLocked[key]++
	}
	return true
}

// Unlock releases a previously acquired footprint.
func (l *accountLocks) Unlock(set *tx.AccountSet) {
	for _, key := range set.Writes {
		delete(l.writeLocked, key)
	}
	for _, key := range set.Reads {
		if l.readLocked[key]--; l.readLocked[key] <= 0 {
			delete(l.readLocked, key)
		}
	}
}
