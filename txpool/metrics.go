// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/tempoledger/tempo/metrics"

var (
	metricPoolGauge     = metrics.LazyLoadGauge("txpool_size_gauge")
	metricWashedCounter = metrics.LazyLoadCounter("txpool_washed_tx_count")
	metricBadTxCounter  = metrics.LazyLoadCounterVec("txpool_bad_tx_count", []string{"source"})
)
