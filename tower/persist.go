// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tempoledger/tempo/kv"
	"github.com/tempoledger/tempo/tempo"
)

// The validator's own tower survives restarts so it never re-votes in ways
// its previous lockouts forbid.
const towerBucket = kv.Bucket("tw.self")

var towerKey = []byte("tower")

type persistedTower struct {
	Votes []Lockout
	Root  tempo.Slot
}

// SaveTower persists the tower.
func SaveTower(w kv.Putter, t *Tower) error {
	data, err := rlp.EncodeToBytes(&persistedTower{
		Votes: t.votes,
		Root:  t.root,
	})
	if err != nil {
		return err
	}
	return towerBucket.NewPutter(w).Put(towerKey, data)
}

// LoadTower restores the persisted tower, or returns a fresh one for an
// uninitialized store.
func LoadTower(r kv.Getter) (*Tower, error) {
	getter := towerBucket.NewGetter(r)
	data, err := getter.Get(towerKey)
	if err != nil {
		if getter.IsNotFound(err) {
			return NewTower(), nil
		}
		return nil, err
	}
	var p persistedTower
	if err := rlp.DecodeBytes(data, &p); err != nil {
		return nil, err
	}
	return &Tower{votes: p.Votes, root: p.Root}, nil
}
