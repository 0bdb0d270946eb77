// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/ethereum/go-ethereum/common/mclock"

	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tx"
)

// txObject wraps a pooled tx with its recovered signer and arrival time.
type txObject struct {
	*tx.Transaction

	signer  tempo.PubKey
	addedAt mclock.AbsTime
	local   bool
}

func resolveTx(trx *tx.Transaction, local bool) (*txObject, error) {
	signer, err := trx.Signer()
	if err != nil {
		return nil, errBadSignature
	}
	return &txObject{
		Transaction: trx,
		signer:      signer,
		addedAt:     mclock.Now(),
		local:       local,
	}, nil
}

func (o *txObject) Signer() tempo.PubKey {
	return o.signer
}

// Expired reports whether the tx outlived the pool lifetime.
func (o *txObject) Expired(now mclock.AbsTime, lifetime mclock.AbsTime) bool {
	return now-o.addedAt > lifetime
}
