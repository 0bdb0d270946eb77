// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tower

import "github.com/tempoledger/tempo/metrics"

var (
	metricVotesCast     = metrics.LazyLoadCounter("tower_votes_cast_count")
	metricVotesObserved = metrics.LazyLoadCounter("tower_votes_observed_count")
	metricRootedGauge   = metrics.LazyLoadGauge("tower_rooted_slot_gauge")
)
