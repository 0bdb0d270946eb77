// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package blockstore implements the fork-aware ledger store. Entries arrive
// as indexed fragments per slot, possibly out of order within the slot, and
// become queryable once the fragment sequence is gapless.
package blockstore

import (
	"bytes"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/kv"
	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/tempo"
)

var logger = log.WithContext("pkg", "blockstore")

const (
	metaCacheSize    = 512
	entriesCacheSize = 64
)

// Store is the slot-keyed entry log.
//
// It's thread-safe. The set of non-dead slots always forms a tree rooted at
// the last finalized root.
type Store struct {
	db kv.GetPutter

	mu       sync.RWMutex
	root     tempo.Slot
	children map[tempo.Slot][]tempo.Slot

	metaCache    *lru.Cache
	entriesCache *lru.Cache
}

// New opens the store over db. A fresh database is bootstrapped with slot 0
// as the genesis root.
func New(db kv.GetPutter) (*Store, error) {
	metaCache, _ := lru.New(metaCacheSize)
	entriesCache, _ := lru.New(entriesCacheSize)
	s := &Store{
		db:           db,
		children:     make(map[tempo.Slot][]tempo.Slot),
		metaCache:    metaCache,
		entriesCache: entriesCache,
	}

	props := propsBucket.NewGetter(db)
	if val, err := props.Get(rootSlotKey); err != nil {
		if !props.IsNotFound(err) {
			return nil, err
		}
		// fresh database
		batch := db.NewBatch()
		genesisMeta := &SlotMeta{LastIndex: lastIndexNone, IsFull: true}
		if err := saveSlotMeta(metaBucket.NewPutter(batch), 0, genesisMeta); err != nil {
			return nil, err
		}
		if err := propsBucket.NewPutter(batch).Put(rootSlotKey, makeSlotKey(0)); err != nil {
			return nil, err
		}
		if err := batch.Write(); err != nil {
			return nil, err
		}
	} else {
		s.root = parseSlotKey(val)
	}

	if err := s.buildChildrenIndex(); err != nil {
		return nil, err
	}
	metricRootGauge().Set(int64(s.root))
	return s, nil
}

func (s *Store) buildChildrenIndex() error {
	it := metaBucket.NewGetter(s.db).NewIterator(kv.Range{})
	defer it.Release()

	var count int64
	for it.Next() {
		slot := parseSlotKey(it.Key())
		var meta SlotMeta
		if err := decodeSlotMeta(it.Value(), &meta); err != nil {
			return err
		}
		if slot != 0 {
			s.children[meta.ParentSlot] = append(s.children[meta.ParentSlot], slot)
		}
		count++
	}
	if err := it.Error(); err != nil {
		return err
	}
	for _, c := range s.children {
		slices.Sort(c)
	}
	metricSlotsGauge().Set(count)
	return nil
}

// Root returns the last finalized root slot.
func (s *Store) Root() tempo.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// HasSlot reports whether the store has any record of the slot.
func (s *Store) HasSlot(slot tempo.Slot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, _ := s.loadMeta(slot)
	return meta != nil
}

// SlotMeta returns a copy of the slot's metadata.
func (s *Store) SlotMeta(slot tempo.Slot) (*SlotMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, err := s.loadMeta(slot)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errors.Wrapf(ErrSlotNotFound, "slot %d", slot)
	}
	cpy := *meta
	return &cpy, nil
}

// Gap is a slot the store knows of but cannot serve yet, with the fragment
// index a repair request should start from.
type Gap struct {
	Slot         tempo.Slot
	FirstMissing uint32
}

// IncompleteSlots lists live slots still waiting for fragments, ascending.
// It feeds the external repair layer when the ledger stalls on holes.
func (s *Store) IncompleteSlots() ([]Gap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it := metaBucket.NewGetter(s.db).NewIterator(kv.Range{})
	defer it.Release()

	var gaps []Gap
	for it.Next() {
		var meta SlotMeta
		if err := decodeSlotMeta(it.Value(), &meta); err != nil {
			return nil, err
		}
		if meta.IsFull || meta.IsDead {
			continue
		}
		gaps = append(gaps, Gap{Slot: parseSlotKey(it.Key()), FirstMissing: meta.FirstMissingIndex()})
	}
	return gaps, it.Error()
}

// Children returns the known child slots of slot, ascending.
func (s *Store) Children(slot tempo.Slot) []tempo.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.children[slot])
}

// InsertEntries appends the fragment at index for the slot. parent is the
// slot's parent and must already be present. last marks the slot's final
// fragment. Re-inserting an identical fragment is a no-op; a contradicting
// one marks the slot dead.
func (s *Store) InsertEntries(slot, parent tempo.Slot, index uint32, last bool, entries entry.Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot <= s.root {
		return errors.Wrapf(ErrSlotOld, "slot %d, root %d", slot, s.root)
	}
	if parent >= slot {
		return errors.Errorf("parent slot %d not before slot %d", parent, slot)
	}
	if parent < s.root {
		// would fork below the finalized root
		return errors.Wrapf(ErrSlotOld, "parent %d below root %d", parent, s.root)
	}
	if parentMeta, err := s.loadMeta(parent); err != nil {
		return err
	} else if parentMeta == nil {
		return errors.Wrapf(ErrParentUnknown, "slot %d, parent %d", slot, parent)
	}

	meta, err := s.loadMeta(slot)
	if err != nil {
		return err
	}
	newSlot := meta == nil
	if newSlot {
		meta = &SlotMeta{ParentSlot: parent, LastIndex: lastIndexNone}
	} else {
		cpy := *meta
		meta = &cpy
	}

	if meta.IsDead {
		return errors.Wrapf(ErrSlotDead, "slot %d", slot)
	}
	if meta.ParentSlot != parent {
		return s.conflict(slot, meta, "parent mismatch")
	}
	if last && meta.LastIndex != lastIndexNone && meta.LastIndex != index {
		return s.conflict(slot, meta, "last index mismatch")
	}
	if meta.LastIndex != lastIndexNone && index > meta.LastIndex {
		return s.conflict(slot, meta, "index beyond last")
	}

	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	fragGetter := fragmentBucket.NewGetter(s.db)
	if stored, err := fragGetter.Get(makeFragmentKey(slot, index)); err == nil {
		if bytes.Equal(stored, data) {
			return nil
		}
		return s.conflict(slot, meta, "duplicate index with different payload")
	} else if !fragGetter.IsNotFound(err) {
		return err
	}

	if last {
		meta.LastIndex = index
	}
	meta.Received++
	// advance the contiguous prefix, counting the fragment being written
	for {
		has, err := fragGetter.Has(makeFragmentKey(slot, meta.Consumed))
		if err != nil {
			return err
		}
		if !has && meta.Consumed != index {
			break
		}
		meta.Consumed++
	}
	meta.IsFull = meta.LastIndex != lastIndexNone && meta.Consumed > meta.LastIndex

	batch := s.db.NewBatch()
	if err := saveFragment(fragmentBucket.NewPutter(batch), slot, index, data); err != nil {
		return err
	}
	if err := saveSlotMeta(metaBucket.NewPutter(batch), slot, meta); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	s.metaCache.Add(slot, meta)
	s.entriesCache.Remove(slot)
	if newSlot {
		s.addChild(parent, slot)
		metricSlotsGauge().Add(1)
	}
	metricFragmentsCount().Add(1)
	logger.Trace("fragment inserted",
		"slot", slot, "index", index, "last", last, "full", meta.IsFull)
	return nil
}

// GetEntries returns the slot's complete ordered entry sequence.
func (s *Store) GetEntries(slot tempo.Slot) (entry.Entries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cached, ok := s.entriesCache.Get(slot); ok {
		return cached.(entry.Entries), nil
	}

	meta, err := s.loadMeta(slot)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errors.Wrapf(ErrSlotNotFound, "slot %d", slot)
	}
	if !meta.IsFull {
		return nil, errors.Wrapf(ErrSlotIncomplete, "slot %d, first missing %d", slot, meta.FirstMissingIndex())
	}

	var entries entry.Entries
	if meta.LastIndex != lastIndexNone {
		fragGetter := fragmentBucket.NewGetter(s.db)
		for i := uint32(0); i <= meta.LastIndex; i++ {
			frag, err := loadFragment(fragGetter, slot, i)
			if err != nil {
				return nil, err
			}
			entries = append(entries, frag...)
		}
	}
	s.entriesCache.Add(slot, entries)
	return entries, nil
}

// MarkDead excludes the slot from fork choice permanently.
func (s *Store) MarkDead(slot tempo.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta(slot)
	if err != nil {
		return err
	}
	if meta == nil {
		return errors.Wrapf(ErrSlotNotFound, "slot %d", slot)
	}
	if meta.IsDead {
		return nil
	}
	cpy := *meta
	cpy.IsDead = true
	return s.storeMeta(slot, &cpy, true)
}

// IsDead reports whether the slot is marked dead.
func (s *Store) IsDead(slot tempo.Slot) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta(slot)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, errors.Wrapf(ErrSlotNotFound, "slot %d", slot)
	}
	return meta.IsDead, nil
}

// IsRooted reports whether the slot lies on the finalized chain, at or
// below the current root.
func (s *Store) IsRooted(slot tempo.Slot) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := s.root
	for cur > slot {
		meta, err := s.loadMeta(cur)
		if err != nil {
			return false, err
		}
		if meta == nil || meta.ParentSlot >= cur {
			return false, nil
		}
		cur = meta.ParentSlot
	}
	return cur == slot, nil
}

// SetRoot finalizes the slot. The new root must descend from the current
// root; the call is idempotent. Slots on competing forks are pruned.
func (s *Store) SetRoot(newRoot tempo.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newRoot == s.root {
		return nil
	}
	if newRoot < s.root {
		return errors.Wrapf(ErrNotDescendant, "slot %d, root %d", newRoot, s.root)
	}

	// walk the parent chain back to the current root
	rootedChain := map[tempo.Slot]struct{}{newRoot: {}}
	cur := newRoot
	for cur != s.root {
		meta, err := s.loadMeta(cur)
		if err != nil {
			return err
		}
		if meta == nil || meta.ParentSlot >= cur || meta.ParentSlot < s.root {
			return errors.Wrapf(ErrNotDescendant, "slot %d, root %d", newRoot, s.root)
		}
		cur = meta.ParentSlot
		rootedChain[cur] = struct{}{}
	}

	// anything not on the rooted history nor descending from the new root
	// goes away
	keep := make(map[tempo.Slot]struct{})
	cur = newRoot
	for {
		keep[cur] = struct{}{}
		meta, err := s.loadMeta(cur)
		if err != nil {
			return err
		}
		if meta == nil || meta.ParentSlot >= cur {
			break
		}
		cur = meta.ParentSlot
	}
	var walk func(slot tempo.Slot)
	walk = func(slot tempo.Slot) {
		for _, child := range s.children[slot] {
			keep[child] = struct{}{}
			walk(child)
		}
	}
	walk(newRoot)

	batch := s.db.NewBatch()
	metaPutter := metaBucket.NewPutter(batch)
	fragPutter := fragmentBucket.NewPutter(batch)

	var pruned []tempo.Slot
	it := metaBucket.NewGetter(s.db).NewIterator(kv.Range{})
	for it.Next() {
		slot := parseSlotKey(it.Key())
		if _, ok := keep[slot]; ok {
			continue
		}
		if err := metaPutter.Delete(makeSlotKey(slot)); err != nil {
			it.Release()
			return err
		}
		if err := s.deleteFragments(fragPutter, slot); err != nil {
			it.Release()
			return err
		}
		pruned = append(pruned, slot)
	}
	if err := it.Error(); err != nil {
		it.Release()
		return err
	}
	it.Release()

	if err := propsBucket.NewPutter(batch).Put(rootSlotKey, makeSlotKey(newRoot)); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	s.root = newRoot
	for _, slot := range pruned {
		s.metaCache.Remove(slot)
		s.entriesCache.Remove(slot)
		delete(s.children, slot)
	}
	for parent, children := range s.children {
		filtered := children[:0]
		for _, c := range children {
			if _, ok := keep[c]; ok {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			delete(s.children, parent)
		} else {
			s.children[parent] = filtered
		}
	}

	metricRootGauge().Set(int64(newRoot))
	metricSlotsGauge().Set(int64(len(keep)))
	metricPrunedCounter().Add(int64(len(pruned)))
	logger.Debug("root advanced", "root", newRoot, "pruned", len(pruned))
	return nil
}

func (s *Store) deleteFragments(w kv.Putter, slot tempo.Slot) error {
	it := fragmentBucket.NewGetter(s.db).NewIterator(kv.Range{
		From: makeSlotKey(slot),
		To:   makeSlotKey(slot + 1),
	})
	defer it.Release()
	for it.Next() {
		if err := w.Delete(slices.Clone(it.Key())); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *Store) loadMeta(slot tempo.Slot) (*SlotMeta, error) {
	if cached, ok := s.metaCache.Get(slot); ok {
		return cached.(*SlotMeta), nil
	}
	getter := metaBucket.NewGetter(s.db)
	meta, err := loadSlotMeta(getter, slot)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	s.metaCache.Add(slot, meta)
	return meta, nil
}

func (s *Store) storeMeta(slot tempo.Slot, meta *SlotMeta, dead bool) error {
	if err := saveSlotMeta(metaBucket.NewPutter(s.db), slot, meta); err != nil {
		return err
	}
	s.metaCache.Add(slot, meta)
	if dead {
		s.entriesCache.Remove(slot)
		metricDeadCounter().Add(1)
		logger.Warn("slot marked dead", "slot", slot)
	}
	return nil
}

// conflict marks the slot dead and reports the contradiction.
func (s *Store) conflict(slot tempo.Slot, meta *SlotMeta, why string) error {
	cpy := *meta
	cpy.IsDead = true
	if err := s.storeMeta(slot, &cpy, true); err != nil {
		return err
	}
	return errors.Wrapf(ErrConflictingFragment, "slot %d: %s", slot, why)
}

func (s *Store) addChild(parent, slot tempo.Slot) {
	children := s.children[parent]
	i, found := slices.BinarySearch(children, slot)
	if found {
		return
	}
	s.children[parent] = slices.Insert(children, i, slot)
}
