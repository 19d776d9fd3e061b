// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import "github.com/vechain/devnode/metrics"

var (
	metricBlocksMined  = metrics.LazyLoadCounter("miner_blocks_count")
	metricTxsMined     = metrics.LazyLoadCounterVec("miner_txs_count", []string{"status"})
	metricTxsSkipped   = metrics.LazyLoadCounter("miner_txs_skipped_count")
	metricMineDuration = metrics.LazyLoadHistogram("miner_duration_ms", metrics.BucketDuration)
)
