// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node wires the validator core together: the tick clock, the
// packing loop, the tx pool, the ledger store and the consensus engine,
// connected over bounded channels so no component stalls another beyond
// its channel capacity.
package node

import (
	"context"
	"crypto/ecdsa"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/blockstore"
	"github.com/tempoledger/tempo/co"
	"github.com/tempoledger/tempo/entry"
	"github.com/tempoledger/tempo/genesis"
	"github.com/tempoledger/tempo/kv"
	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/packer"
	"github.com/tempoledger/tempo/poh"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tower"
	"github.com/tempoledger/tempo/tx"
	"github.com/tempoledger/tempo/txpool"
)

var logger = log.WithContext("pkg", "node")

const (
	outboundBacklog = 256
	poolDrainMax    = 2000
)

// Options is the node's static startup configuration.
type Options struct {
	TicksPerSlot   uint64
	HashesPerTick  uint64
	TickInterval   time.Duration
	Workers        int
	MaxLockRetries int
	TxPoolOptions  txpool.Options
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TicksPerSlot:  tempo.DefaultTicksPerSlot,
		HashesPerTick: tempo.DefaultHashesPerTick,
		TickInterval:  time.Duration(tempo.DefaultTickIntervalMS) * time.Millisecond,
		TxPoolOptions: txpool.Options{
			Limit:          10000,
			LimitPerSigner: 16,
			MaxLifetime:    20 * time.Minute,
		},
	}
}

// SealedSlot is a locally produced slot, emitted for broadcast.
type SealedSlot struct {
	Slot    tempo.Slot
	Parent  tempo.Slot
	Entries entry.Entries
}

// Node is the local validator.
type Node struct {
	opts     Options
	priv     *ecdsa.PrivateKey
	self     tempo.PubKey
	schedule LeaderSchedule

	store    *blockstore.Store
	engine   *tower.Engine
	pool     *txpool.TxPool
	recorder *poh.Recorder
	clock    *poh.Clock
	packer   *packer.Packer

	rollover tx.Transactions

	completeMu    sync.Mutex
	completeSlots map[tempo.Slot]struct{}
	completeFeed  co.Signal

	sealedCh chan *SealedSlot
	voteCh   chan *tx.Transaction

	goes co.Goes
}

// New assembles a node from its genesis definition. db backs both the
// ledger store and the persisted tower.
func New(
	db kv.GetPutter,
	gene *genesis.Genesis,
	priv *ecdsa.PrivateKey,
	schedule LeaderSchedule,
	opts Options,
) (*Node, error) {
	genesisBank, err := gene.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build genesis")
	}
	store, err := blockstore.New(db)
	if err != nil {
		return nil, errors.Wrap(err, "open blockstore")
	}

	if schedule == nil {
		schedule = NewRoundRobin(gene.Validators())
	}
	engine, err := tower.NewEngine(store, db, genesisBank, gene.Stakes(), tower.Config{
		TicksPerSlot:  opts.TicksPerSlot,
		HashesPerTick: opts.HashesPerTick,
		PrivateKey:    priv,
		LeaderAt:      schedule.LeaderAt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create engine")
	}

	n := &Node{
		opts:          opts,
		priv:          priv,
		self:          tempo.PubKeyFromPublicKey(&priv.PublicKey),
		schedule:      schedule,
		store:         store,
		engine:        engine,
		recorder:      poh.NewRecorder(genesisBank.Hash(), opts.TicksPerSlot, opts.HashesPerTick),
		packer:        packer.New(opts.Workers, opts.MaxLockRetries),
		completeSlots: make(map[tempo.Slot]struct{}),
		sealedCh:      make(chan *SealedSlot, outboundBacklog),
		voteCh:        make(chan *tx.Transaction, outboundBacklog),
	}
	n.clock = poh.NewClock(n.recorder, opts.TickInterval)
	n.pool = txpool.New(headSourceFunc(engine.HeadBank), opts.TxPoolOptions)
	return n, nil
}

type headSourceFunc func() *state.Bank

func (f headSourceFunc) HeadBank() *state.Bank { return f() }

// Run starts the node services and blocks until ctx is canceled.
func (n *Node) Run(ctx context.Context) error {
	logger.Info("starting node",
		"validator", n.self,
		"root", n.store.Root(),
		"head", n.engine.HeadSlot(),
	)
	n.clock.Start()
	defer n.clock.Stop()
	defer n.pool.Close()

	n.goes.Go(func() { n.packLoop(ctx) })
	n.goes.Go(func() { n.replayLoop(ctx) })
	n.goes.Wait()
	logger.Info("node stopped")
	return nil
}

// SubmitTransaction admits a candidate transaction from the ingress layer.
func (n *Node) SubmitTransaction(trx *tx.Transaction) error {
	return n.pool.Add(trx)
}

// Pool returns the node's tx pool.
func (n *Node) Pool() *txpool.TxPool {
	return n.pool
}

// Store returns the ledger store.
func (n *Node) Store() *blockstore.Store {
	return n.store
}

// Engine returns the consensus engine.
func (n *Node) Engine() *tower.Engine {
	return n.engine
}

// SealedSlots emits locally produced slots for broadcast.
func (n *Node) SealedSlots() <-chan *SealedSlot {
	return n.sealedCh
}

// Votes emits the validator's own vote transactions for gossip.
func (n *Node) Votes() <-chan *tx.Transaction {
	return n.voteCh
}

// InsertEntries accepts a reassembled entry fragment from the network
// transport. The transport has already authenticated the fragment against
// the leader's identity.
func (n *Node) InsertEntries(slot, parent tempo.Slot, index uint32, last bool, entries entry.Entries) error {
	if err := n.store.InsertEntries(slot, parent, index, last, entries); err != nil {
		return err
	}
	meta, err := n.store.SlotMeta(slot)
	if err != nil {
		return err
	}
	if meta.IsFull && !meta.IsDead {
		n.enqueueComplete(slot)
	}
	return nil
}

func (n *Node) enqueueComplete(slot tempo.Slot) {
	n.completeMu.Lock()
	n.completeSlots[slot] = struct{}{}
	n.completeMu.Unlock()
	n.completeFeed.Signal()
}

func (n *Node) takeComplete() []tempo.Slot {
	n.completeMu.Lock()
	defer n.completeMu.Unlock()
	slots := make([]tempo.Slot, 0, len(n.completeSlots))
	for slot := range n.completeSlots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

func (n *Node) dropComplete(slot tempo.Slot) {
	n.completeMu.Lock()
	delete(n.completeSlots, slot)
	n.completeMu.Unlock()
}

// tryVote casts a vote for slot, feeding the vote transaction to gossip and
// to the local pool so it gets sequenced like any other tx. Suppressed
// votes are only logged; consensus violations must never escalate.
func (n *Node) tryVote(slot tempo.Slot) {
	voteTx, err := n.engine.TryVote(slot)
	if err != nil {
		if !tower.IsConsensusViolation(err) {
			logger.Error("vote failed", "slot", slot, "err", err)
		}
		return
	}
	if err := n.pool.AddLocal(voteTx); err != nil {
		logger.Debug("own vote not pooled", "err", err)
	}
	select {
	case n.voteCh <- voteTx:
	default:
		logger.Warn("vote channel full, dropping", "slot", slot)
	}
}
