// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import "github.com/vechain/devnode/metrics"

var (
	metricCacheLookups = metrics.LazyLoadCounterVec("fork_cache_lookups_count", []string{"kind", "result"})
	metricRemoteCalls  = metrics.LazyLoadCounterVec("fork_remote_calls_count", []string{"kind", "result"})
	metricCoalesced    = metrics.LazyLoadCounterVec("fork_coalesced_count", []string{"kind"})
)
