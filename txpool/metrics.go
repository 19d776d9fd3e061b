// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/vechain/devnode/metrics"

var (
	metricTxPoolGauge  = metrics.LazyLoadGauge("txpool_current_tx_count")
	metricTxPoolAdded  = metrics.LazyLoadCounterVec("txpool_added_count", []string{"result"})
	metricTxPoolPruned = metrics.LazyLoadCounter("txpool_pruned_count")
)
