// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/pkg/errors"

var (
	errKnownTx       = errors.New("known transaction")
	errStaleHash     = errors.New("stale recent hash")
	errBadSignature  = errors.New("bad signature")
	errUnpayableFee  = errors.New("insufficient balance for fee")
	errPoolFull      = errors.New("pool is full")
	errQuotaExceeded = errors.New("account quota exceeded")
)

func IsErrKnownTx(err error) bool {
	return errors.Cause(err) == errKnownTx
}

func IsErrStaleHash(err error) bool {
	return errors.Cause(err) == errStaleHash
}

func IsErrBadSignature(err error) bool {
	return errors.Cause(err) == errBadSignature
}

func IsErrUnpayableFee(err error) bool {
	return errors.Cause(err) == errUnpayableFee
}

func IsErrPoolFull(err error) bool {
	return errors.Cause(err) == errPoolFull
}

func IsErrQuotaExceeded(err error) bool {
	return errors.Cause(err) == errQuotaExceeded
}
