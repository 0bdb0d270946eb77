// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/ethereum/go-ethereum/event"

	"github.com/tempoledger/tempo/co"
	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

var logger = log.WithContext("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Limit          int
	LimitPerSigner int
	MaxLifetime    time.Duration
}

// HeadSource supplies the bank the pool validates admissions against,
// normally the latest frozen bank of the heaviest fork.
type HeadSource interface {
	HeadBank() *state.Bank
}

// TxEvent is posted when a tx enters the pool.
type TxEvent struct {
	Tx *tx.Transaction
}

// TxPool maintains the backlog of unprocessed transactions.
type TxPool struct {
	options Options
	head    HeadSource
	all     *txObjectMap

	addedAfterWash uint32

	ctx    context.Context
	cancel func()
	txFeed event.Feed
	scope  event.SubscriptionScope
	goes   co.Goes
}

// New creates a new TxPool instance.
// Close is required to be called at end.
func New(head HeadSource, options Options) *TxPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &TxPool{
		options: options,
		head:    head,
		all:     newTxObjectMap(),
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.goes.Go(pool.housekeeping)
	return pool
}

func (p *TxPool) housekeeping() {
	logger.Debug("enter housekeeping")
	defer logger.Debug("leave housekeeping")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			poolLen := p.all.Len()
			// wash when the pool is over limit or new txs arrived
			if poolLen > p.options.Limit || atomic.LoadUint32(&p.addedAfterWash) > 0 {
				atomic.StoreUint32(&p.addedAfterWash, 0)
				removed := p.wash(p.head.HeadBank())
				if removed > 0 {
					metricWashedCounter().Add(int64(removed))
					logger.Trace("wash done", "len", poolLen, "removed", removed)
				}
				metricPoolGauge().Set(int64(p.all.Len()))
			}
		}
	}
}

// wash removes expired txs and txs the head bank would no longer admit.
func (p *TxPool) wash(head *state.Bank) int {
	now := mclock.Now()
	lifetime := mclock.AbsTime(p.options.MaxLifetime)

	var removed int
	for _, obj := range p.all.ToTxObjects() {
		switch {
		case obj.Expired(now, lifetime):
		case !head.IsRecentHash(obj.RecentHash()):
		case head.Balance(obj.Signer()) < obj.Fee():
		default:
			continue
		}
		if p.all.RemoveByID(obj.ID()) {
			removed++
		}
	}
	return removed
}

// Close cleanup inner go routines.
func (p *TxPool) Close() {
	p.cancel()
	p.scope.Close()
	p.goes.Wait()
	logger.Debug("closed")
}

// SubscribeTxEvent receivers will receive newly pooled txs.
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

func (p *TxPool) add(newTx *tx.Transaction, local bool) (err error) {
	source := "local"
	if !local {
		source = "remote"
	}
	defer func() {
		if err != nil {
			metricBadTxCounter().AddWithLabel(1, map[string]string{"source": source})
		}
	}()

	if p.all.Contains(newTx.ID()) {
		return errKnownTx
	}

	obj, err := resolveTx(newTx, local)
	if err != nil {
		return err
	}

	head := p.head.HeadBank()
	if !head.IsRecentHash(newTx.RecentHash()) {
		return errStaleHash
	}
	if head.Balance(obj.Signer()) < newTx.Fee() {
		return errUnpayableFee
	}

	limit := p.options.Limit
	if !local {
		// remote submissions get squeezed out first
		limit = limit * 12 / 10
	}
	if p.all.Len() >= limit {
		return errPoolFull
	}

	if err := p.all.Add(obj, p.options.LimitPerSigner); err != nil {
		return err
	}
	atomic.AddUint32(&p.addedAfterWash, 1)

	p.goes.Go(func() {
		p.txFeed.Send(&TxEvent{newTx})
	})
	logger.Trace("tx added", "id", newTx.ID())
	return nil
}

// Add adds a new tx into pool. It's not assumed as an error if the tx
// to be added is already in the pool.
func (p *TxPool) Add(newTx *tx.Transaction) error {
	return p.add(newTx, false)
}

// AddLocal adds a locally submitted tx, bypassing the remote size squeeze.
func (p *TxPool) AddLocal(newTx *tx.Transaction) error {
	return p.add(newTx, true)
}

// Get returns the pooled tx with the given id, or nil.
func (p *TxPool) Get(id tempo.Bytes32) *tx.Transaction {
	if obj := p.all.GetByID(id); obj != nil {
		return obj.Transaction
	}
	return nil
}

// Remove removes the tx with the given id. Called when a slot sealed
// with the tx, or when a dropped tx should not be retried.
func (p *TxPool) Remove(id tempo.Bytes32) bool {
	if p.all.RemoveByID(id) {
		metricPoolGauge().Set(int64(p.all.Len()))
		return true
	}
	return false
}

// Dump dumps all txs in the pool, in no particular order.
func (p *TxPool) Dump() tx.Transactions {
	return p.all.ToTxs()
}

// Pending returns up to max txs ordered by fee descending then arrival,
// the order the packer schedules them in.
func (p *TxPool) Pending(max int) tx.Transactions {
	objs := p.all.ToTxObjects()
	slices.SortStableFunc(objs, func(a, b *txObject) int {
		if a.Fee() != b.Fee() {
			if a.Fee() > b.Fee() {
				return -1
			}
			return 1
		}
		if a.addedAt < b.addedAt {
			return -1
		}
		if a.addedAt > b.addedAt {
			return 1
		}
		return 0
	})
	if max > 0 && len(objs) > max {
		objs = objs[:max]
	}
	txs := make(tx.Transactions, 0, len(objs))
	for _, obj := range objs {
		txs = append(txs, obj.Transaction)
	}
	return txs
}

// Len returns the number of pooled txs.
func (p *TxPool) Len() int {
	return p.all.Len()
}
