// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import (
	"crypto/ecdsa"
	"sync"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/blockstore"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/kv"
	"github.com/tempoledger/tempo/packer"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// ErrParentBankUnknown is returned when a slot's parent has not been
// replayed yet. The caller retries once the parent is processed.
var ErrParentBankUnknown = errors.New("parent bank unknown")

// IsParentBankUnknown reports whether err means the parent still needs
// replay.
func IsParentBankUnknown(err error) bool {
	return errors.Cause(err) == ErrParentBankUnknown
}

// Config is the engine's static startup configuration.
type Config struct {
	TicksPerSlot  uint64
	HashesPerTick uint64

	// PrivateKey is the validator identity votes are signed with.
	PrivateKey *ecdsa.PrivateKey

	// LeaderAt maps a slot to its designated leader, whose account collects
	// the slot's fees. Rotation itself is decided outside the core.
	LeaderAt func(tempo.Slot) tempo.PubKey
}

// Engine replays complete slots into bank snapshots, tracks fork weights
// from observed votes, casts the validator's own votes under tower lockout
// rules and advances the finalized root.
type Engine struct {
	store   *blockstore.Store
	db      kv.GetPutter
	tower   *Tower
	weights *ForkWeights
	cfg     Config
	voter   tempo.PubKey

	mu    sync.RWMutex
	banks map[tempo.Slot]*state.Bank
}

// NewEngine creates the engine over the ledger store. genesisBank is the
// frozen bank at the store's current root; stakes is the static stake
// distribution votes are weighted by.
func NewEngine(
	store *blockstore.Store,
	db kv.GetPutter,
	genesisBank *state.Bank,
	stakes map[tempo.PubKey]uint64,
	cfg Config,
) (*Engine, error) {
	if !genesisBank.Frozen() {
		return nil, errors.New("genesis bank not frozen")
	}
	if genesisBank.Slot() > store.Root() {
		return nil, errors.Errorf("genesis bank slot %d beyond store root %d", genesisBank.Slot(), store.Root())
	}
	t, err := LoadTower(db)
	if err != nil {
		return nil, errors.Wrap(err, "load tower")
	}
	e := &Engine{
		store:   store,
		db:      db,
		tower:   t,
		weights: NewForkWeights(stakes),
		cfg:     cfg,
		voter:   tempo.PubKeyFromPublicKey(&cfg.PrivateKey.PublicKey),
		banks:   map[tempo.Slot]*state.Bank{genesisBank.Slot(): genesisBank},
	}
	if err := e.catchUp(genesisBank.Slot()); err != nil {
		return nil, errors.Wrap(err, "replay rooted chain")
	}
	return e, nil
}

// catchUp rebuilds bank state after a restart by replaying the persisted
// rooted chain forward from the genesis bank. The store keeps the rooted
// history's entries, so state reconstruction needs no separate snapshots.
func (e *Engine) catchUp(from tempo.Slot) error {
	root := e.store.Root()
	if root <= from {
		return nil
	}
	var path []tempo.Slot
	for slot := root; slot > from; {
		meta, err := e.store.SlotMeta(slot)
		if err != nil {
			return err
		}
		path = append(path, slot)
		slot = meta.ParentSlot
	}
	logger.Info("replaying rooted chain", "from", from, "root", root, "slots", len(path))
	for i := len(path) - 1; i >= 0; i-- {
		if err := e.ProcessSlot(path[i]); err != nil {
			return err
		}
	}
	return nil
}

// Tower returns the engine's vote stack.
func (e *Engine) Tower() *Tower {
	return e.tower
}

// Bank returns the frozen bank snapshot of slot, if replayed.
func (e *Engine) Bank(slot tempo.Slot) (*state.Bank, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bank, ok := e.banks[slot]
	return bank, ok
}

// ProcessSlot replays the complete slot against its parent bank. Slots
// whose entries fail verification are marked dead and reported.
func (e *Engine) ProcessSlot(slot tempo.Slot) error {
	if dead, err := e.store.IsDead(slot); err != nil {
		return err
	} else if dead {
		return errors.Wrapf(blockstore.ErrSlotDead, "slot %d", slot)
	}
	meta, err := e.store.SlotMeta(slot)
	if err != nil {
		return err
	}
	entries, err := e.store.GetEntries(slot)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, done := e.banks[slot]; done {
		return nil
	}
	parentBank, ok := e.banks[meta.ParentSlot]
	if !ok {
		return errors.Wrapf(ErrParentBankUnknown, "slot %d, parent %d", slot, meta.ParentSlot)
	}

	bank := state.NewBank(parentBank, slot, e.cfg.LeaderAt(slot))
	receipts, err := packer.Replay(bank, parentBank.Hash(), entries, e.cfg.TicksPerSlot, e.cfg.HashesPerTick)
	if err != nil {
		if packer.IsInvalidEntries(err) {
			logger.Warn("slot failed replay", "slot", slot, "err", err)
			if mdErr := e.store.MarkDead(slot); mdErr != nil {
				return mdErr
			}
		}
		return err
	}

	e.banks[slot] = bank
	e.observeVotes(entries, receipts)
	e.maybeAdvanceRoot()
	logger.Debug("slot replayed", "slot", slot, "txs", len(receipts), "hash", bank.Hash())
	return nil
}

// AdoptLocal registers a locally packed slot, whose bank and vote
// transactions are already known, skipping a redundant replay.
func (e *Engine) AdoptLocal(bank *state.Bank, entries entry.Entries, receipts state.Receipts) error {
	if !bank.Frozen() {
		return errors.New("bank not frozen")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.banks[bank.Slot()] = bank
	e.observeVotes(entries, receipts)
	e.maybeAdvanceRoot()
	return nil
}

// TryVote casts the validator's own vote for slot, returning the signed
// vote transaction for gossip and local sequencing. A vote that would
// violate a lockout, or targets a dead or unreplayed slot, is suppressed
// with ErrConsensusViolation.
func (e *Engine) TryVote(slot tempo.Slot) (*tx.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bank, ok := e.banks[slot]
	if !ok {
		return nil, errors.Wrapf(ErrConsensusViolation, "vote for unreplayed slot %d", slot)
	}
	if dead, err := e.store.IsDead(slot); err == nil && dead {
		return nil, errors.Wrapf(ErrConsensusViolation, "vote for dead slot %d", slot)
	}
	if err := e.tower.CheckVote(slot, func(ancestor tempo.Slot) bool {
		return e.descends(ancestor, slot)
	}); err != nil {
		logger.Warn("vote suppressed", "slot", slot, "err", err)
		return nil, err
	}

	if rooted, ok := e.tower.RecordVote(slot); ok {
		// the tower bottomed out; the oldest vote is irreversible for us
		// regardless of observed supermajority
		if err := e.setRoot(rooted); err != nil {
			return nil, err
		}
	}
	if err := SaveTower(e.db, e.tower); err != nil {
		return nil, err
	}
	e.weights.RecordVote(e.voter, slot)
	e.maybeAdvanceRoot()

	voteTx, err := tx.Sign(new(tx.Builder).
		RecentHash(bank.Hash()).
		Nonce(uint64(slot)).
		Instruction(NewVoteInstruction(e.voter, Vote{Slot: slot, Hash: bank.Hash()})).
		Build(), e.cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	metricVotesCast().Add(1)
	return voteTx, nil
}

// HeadSlot returns the heaviest replayed leaf, the fork the validator
// should build on and vote for.
func (e *Engine) HeadSlot() tempo.Slot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.headSlotLocked()
}

// HeadBank returns the bank of the heaviest replayed leaf.
func (e *Engine) HeadBank() *state.Bank {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.banks[e.headSlotLocked()]
}

func (e *Engine) headSlotLocked() tempo.Slot {
	hasChild := make(map[tempo.Slot]bool)
	for _, bank := range e.banks {
		if parent := bank.Parent(); parent != nil {
			hasChild[parent.Slot()] = true
		}
	}

	best := e.store.Root()
	var bestWeight uint64
	first := true
	for slot := range e.banks {
		if hasChild[slot] {
			continue
		}
		if dead, err := e.store.IsDead(slot); err == nil && dead {
			continue
		}
		weight := e.pathWeight(slot)
		if first || e.better(slot, weight, best, bestWeight) {
			best, bestWeight, first = slot, weight, false
		}
	}
	return best
}

// better decides the fork-choice ordering: cumulative stake, then the
// higher slot. Candidate leaves are distinct slots, so the order is total.
func (e *Engine) better(slot tempo.Slot, weight uint64, than tempo.Slot, thanWeight uint64) bool {
	if weight != thanWeight {
		return weight > thanWeight
	}
	return slot > than
}

// pathWeight sums the voted stake of the leaf and each of its ancestors.
func (e *Engine) pathWeight(leaf tempo.Slot) uint64 {
	var weight uint64
	cur := leaf
	root := e.store.Root()
	for {
		weight += e.weights.VotedStake(cur, e.descends)
		if cur <= root {
			break
		}
		parent, ok := e.parentOf(cur)
		if !ok || parent >= cur {
			break
		}
		cur = parent
	}
	return weight
}

// observeVotes credits fork weights with the vote transactions sequenced in
// the slot. Reverted votes carry no weight.
func (e *Engine) observeVotes(entries entry.Entries, receipts state.Receipts) {
	reverted := make(map[tempo.Bytes32]bool, len(receipts))
	for _, r := range receipts {
		if r.Reverted() {
			reverted[r.TxID] = true
		}
	}
	for _, ent := range entries {
		for _, trx := range ent.Transactions {
			if reverted[trx.ID()] {
				continue
			}
			signer, err := trx.Signer()
			if err != nil {
				continue
			}
			for _, instr := range trx.Instructions() {
				vote, ok := ParseVote(instr)
				if !ok {
					continue
				}
				if e.weights.RecordVote(signer, vote.Slot) {
					metricVotesObserved().Add(1)
				}
			}
		}
	}
}

// maybeAdvanceRoot roots the highest replayed slot holding supermajority
// stake. Crediting ancestors means every ancestor of such a slot holds a
// supermajority too.
func (e *Engine) maybeAdvanceRoot() {
	root := e.store.Root()
	best, found := root, false
	for slot := range e.banks {
		if slot <= root || slot <= best && found {
			continue
		}
		if dead, err := e.store.IsDead(slot); err != nil || dead {
			continue
		}
		if e.weights.HasSupermajority(e.weights.VotedStake(slot, e.descends)) {
			best, found = slot, true
		}
	}
	if !found {
		return
	}
	if err := e.setRoot(best); err != nil {
		logger.Warn("root advance failed", "slot", best, "err", err)
	}
}

// setRoot finalizes slot in the store, lifts the tower root and drops
// banks on pruned forks. Caller holds the write lock.
func (e *Engine) setRoot(slot tempo.Slot) error {
	if slot <= e.store.Root() {
		return nil
	}
	if err := e.store.SetRoot(slot); err != nil {
		return err
	}
	e.tower.AdvanceRoot(slot)
	if err := SaveTower(e.db, e.tower); err != nil {
		return err
	}
	for s := range e.banks {
		if s != slot && !e.descends(slot, s) {
			delete(e.banks, s)
		}
	}
	metricRootedGauge().Set(int64(slot))
	logger.Info("root advanced", "root", slot)
	return nil
}

// descends reports whether slot descends from (or is) ancestor.
func (e *Engine) descends(ancestor, slot tempo.Slot) bool {
	cur := slot
	for cur > ancestor {
		parent, ok := e.parentOf(cur)
		if !ok || parent >= cur {
			return false
		}
		cur = parent
	}
	return cur == ancestor
}

// parentOf resolves a slot's parent from the replayed banks, falling back
// to stored metadata for slots replayed before a restart.
func (e *Engine) parentOf(slot tempo.Slot) (tempo.Slot, bool) {
	if bank, ok := e.banks[slot]; ok && bank.Parent() != nil {
		return bank.Parent().Slot(), true
	}
	meta, err := e.store.SlotMeta(slot)
	if err != nil || meta == nil {
		return 0, false
	}
	return meta.ParentSlot, true
}
