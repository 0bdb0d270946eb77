// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockstore

import (
	"encoding/binary"
	"math"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/kv"
	"github.com/tempoledger/tempo/tempo"
)

const (
	metaBucket     = kv.Bucket("bs.meta") // slot -> SlotMeta
	fragmentBucket = kv.Bucket("bs.frag") // (slot | index) -> entries
	propsBucket    = kv.Bucket("bs.prop") // named properties
)

var rootSlotKey = []byte("root-slot")

// lastIndexNone marks a slot whose final fragment index is not yet known.
const lastIndexNone = uint32(math.MaxUint32)

// SlotMeta is the persisted metadata of a slot.
type SlotMeta struct {
	ParentSlot tempo.Slot
	Received   uint32 // fragments stored
	Consumed   uint32 // contiguous fragments from index 0
	LastIndex  uint32 // lastIndexNone until the final fragment arrives
	IsFull     bool
	IsDead     bool
}

// FirstMissingIndex returns the lowest fragment index not yet stored.
func (m *SlotMeta) FirstMissingIndex() uint32 {
	return m.Consumed
}

// the key for a slot's meta: big-endian slot number, so iteration is
// ordered by slot.
func makeSlotKey(slot tempo.Slot) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], slot)
	return k[:]
}

func parseSlotKey(k []byte) tempo.Slot {
	return binary.BigEndian.Uint64(k[:8])
}

// the key for a fragment: ( slot | index )
func makeFragmentKey(slot tempo.Slot, index uint32) []byte {
	var k [12]byte
	binary.BigEndian.PutUint64(k[:8], slot)
	binary.BigEndian.PutUint32(k[8:], index)
	return k[:]
}

func encodeEntries(entries entry.Entries) ([]byte, error) {
	return rlp.EncodeToBytes(entries)
}

func decodeSlotMeta(data []byte, meta *SlotMeta) error {
	return rlp.DecodeBytes(data, meta)
}

func saveRLP(w kv.Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func saveSlotMeta(w kv.Putter, slot tempo.Slot, meta *SlotMeta) error {
	return saveRLP(w, makeSlotKey(slot), meta)
}

func loadSlotMeta(r kv.Getter, slot tempo.Slot) (*SlotMeta, error) {
	data, err := r.Get(makeSlotKey(slot))
	if err != nil {
		return nil, err
	}
	var meta SlotMeta
	if err := rlp.DecodeBytes(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func saveFragment(w kv.Putter, slot tempo.Slot, index uint32, data []byte) error {
	return w.Put(makeFragmentKey(slot, index), data)
}

func loadFragment(r kv.Getter, slot tempo.Slot, index uint32) (entry.Entries, error) {
	data, err := r.Get(makeFragmentKey(slot, index))
	if err != nil {
		return nil, err
	}
	var entries entry.Entries
	if err := rlp.DecodeBytes(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
