// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockstore

import "github.com/tempoledger/tempo/metrics"

var (
	metricRootGauge      = metrics.LazyLoadGauge("blockstore_root_slot_gauge")
	metricSlotsGauge     = metrics.LazyLoadGauge("blockstore_live_slots_gauge")
	metricDeadCounter    = metrics.LazyLoadCounter("blockstore_dead_slot_count")
	metricPrunedCounter  = metrics.LazyLoadCounter("blockstore_pruned_slot_count")
	metricFragmentsCount = metrics.LazyLoadCounter("blockstore_fragment_count")
)
