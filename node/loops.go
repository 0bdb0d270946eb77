// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tower"
)

// packLoop tracks the leader schedule and produces a slot whenever it is
// this validator's turn. When a remote leader fails to deliver within its
// tick budget the candidate slot is skipped, so the schedule keeps moving
// over crashed validators.
func (n *Node) packLoop(ctx context.Context) {
	ticks := n.clock.NewTickWaiter()

	head := n.engine.HeadSlot()
	candidate := head + 1
	var idleTicks uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks.C():
		}

		if newHead := n.engine.HeadSlot(); newHead != head {
			head = newHead
			if candidate <= head {
				candidate = head + 1
			}
			idleTicks = 0
		}

		if n.schedule.LeaderAt(candidate) != n.self {
			// a remote leader owns the candidate slot; give it one full
			// slot of ticks before moving on
			idleTicks++
			if idleTicks >= n.opts.TicksPerSlot {
				logger.Debug("leader timed out, skipping slot",
					"slot", candidate, "leader", n.schedule.LeaderAt(candidate))
				candidate++
				idleTicks = 0
			}
			continue
		}

		if err := n.leadSlot(ctx, candidate); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("slot production failed", "slot", candidate, "err", err)
		}
		head = n.engine.HeadSlot()
		candidate = head + 1
		idleTicks = 0
	}
}

// leadSlot packs one slot on top of the current head and hands the sealed
// result to the store, the engine and the outbound channel.
func (n *Node) leadSlot(ctx context.Context, slot tempo.Slot) error {
	parent := n.engine.HeadBank()
	if parent == nil {
		return errors.New("no head bank")
	}
	bank := state.NewBank(parent, slot, n.self)
	n.recorder.Reset(slot, parent.Hash())

	flow, err := n.packer.Prepare(bank, n.recorder)
	if err != nil {
		return err
	}

	for _, trx := range n.rollover {
		if err := flow.Adopt(trx); err != nil {
			logger.Debug("rollover tx not adopted", "id", trx.ID(), "err", err)
		}
	}
	n.rollover = nil
	for _, trx := range n.pool.Pending(poolDrainMax) {
		if err := flow.Adopt(trx); err != nil {
			logger.Debug("pool tx not adopted", "id", trx.ID(), "err", err)
		}
	}

	ticks := n.clock.NewTickWaiter()
	for !n.recorder.SlotFull() {
		if _, err := flow.DispatchPass(); err != nil {
			return err
		}
		if flow.PendingCount() == 0 {
			// nothing left to schedule; pick up newly pooled txs on the
			// next tick, or just let empty ticks fill the slot
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks.C():
			}
			for _, trx := range n.pool.Pending(poolDrainMax) {
				_ = flow.Adopt(trx)
			}
		}
	}

	sealed, err := flow.Seal()
	if err != nil {
		return err
	}

	if err := n.store.InsertEntries(slot, parent.Slot(), 0, true, sealed.Entries); err != nil {
		return errors.Wrap(err, "store sealed slot")
	}
	if err := n.engine.AdoptLocal(bank, sealed.Entries, sealed.Receipts); err != nil {
		return errors.Wrap(err, "adopt sealed slot")
	}
	for _, r := range sealed.Receipts {
		n.pool.Remove(r.TxID)
	}
	for _, d := range sealed.Dropped {
		n.pool.Remove(d.Tx.ID())
	}
	n.rollover = sealed.Rollover

	select {
	case n.sealedCh <- &SealedSlot{Slot: slot, Parent: parent.Slot(), Entries: sealed.Entries}:
	default:
		logger.Warn("sealed channel full, dropping broadcast", "slot", slot)
	}
	logger.Info("slot sealed",
		"slot", slot,
		"txs", len(sealed.Receipts),
		"dropped", len(sealed.Dropped),
		"hash", bank.Hash(),
	)

	n.tryVote(slot)
	return nil
}

// replayLoop replays remotely produced slots as their entries complete in
// the store. Slots arriving before their parent bank stay queued until the
// parent gets replayed.
func (n *Node) replayLoop(ctx context.Context) {
	wake := n.completeFeed.NewWaiter()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wake.C():
		}

		for {
			progressed := false
			for _, slot := range n.takeComplete() {
				if _, ok := n.engine.Bank(slot); ok {
					n.dropComplete(slot)
					continue
				}
				switch err := n.engine.ProcessSlot(slot); {
				case err == nil:
					n.dropComplete(slot)
					progressed = true
					n.tryVote(n.engine.HeadSlot())
				case tower.IsParentBankUnknown(err):
					// parent not replayed yet, keep it queued
				default:
					n.dropComplete(slot)
					logger.Warn("slot replay failed", "slot", slot, "err", err)
				}
			}
			if !progressed {
				break
			}
		}
	}
}
