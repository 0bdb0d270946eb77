// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"sync"

	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// txObjectMap maintains the mapping of tx id to tx object along with
// per-signer quota accounting.
type txObjectMap struct {
	lock    sync.RWMutex
	mapByID map[tempo.Bytes32]*txObject
	quota   map[tempo.PubKey]int
}

func newTxObjectMap() *txObjectMap {
	return &txObjectMap{
		mapByID: make(map[tempo.Bytes32]*txObject),
		quota:   make(map[tempo.PubKey]int),
	}
}

func (m *txObjectMap) Contains(id tempo.Bytes32) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, found := m.mapByID[id]
	return found
}

func (m *txObjectMap) Add(obj *txObject, limitPerSigner int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := obj.ID()
	if _, found := m.mapByID[id]; found {
		return errKnownTx
	}
	if m.quota[obj.Signer()] >= limitPerSigner {
		return errQuotaExceeded
	}
	m.quota[obj.Signer()]++
	m.mapByID[id] = obj
	return nil
}

func (m *txObjectMap) GetByID(id tempo.Bytes32) *txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.mapByID[id]
}

func (m *txObjectMap) RemoveByID(id tempo.Bytes32) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	obj, found := m.mapByID[id]
	if !found {
		return false
	}
	if m.quota[obj.Signer()] > 1 {
		m.quota[obj.Signer()]--
	} else {
		delete(m.quota, obj.Signer())
	}
	delete(m.mapByID, id)
	return true
}

func (m *txObjectMap) ToTxObjects() []*txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()

	objs := make([]*txObject, 0, len(m.mapByID))
	for _, obj := range m.mapByID {
		objs = append(objs, obj)
	}
	return objs
}

func (m *txObjectMap) ToTxs() tx.Transactions {
	m.lock.RLock()
	defer m.lock.RUnlock()

	txs := make(tx.Transactions, 0, len(m.mapByID))
	for _, obj := range m.mapByID {
		txs = append(txs, obj.Transaction)
	}
	return txs
}

func (m *txObjectMap) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.mapByID)
}
