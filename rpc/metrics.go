// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import "github.com/vechain/devnode/metrics"

var (
	metricCalls        = metrics.LazyLoadCounterVec("rpc_calls_count", []string{"method", "code"})
	metricCallDuration = metrics.LazyLoadHistogramVec("rpc_duration_ms", []string{"method"}, metrics.BucketDuration)
	metricWSConns      = metrics.LazyLoadGauge("rpc_ws_connections")
	metricBlockCache   = metrics.LazyLoadCounterVec("rpc_block_cache_count", []string{"result"})
)
