// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a yaml config file, flags set on the command line take precedence",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8545",
		Usage: "JSON-RPC service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "*",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds (0 disables it)",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiBlockCacheFlag = cli.IntFlag{
		Name:  "api-block-cache",
		Value: 256,
		Usage: "number of rendered blocks kept by the API",
	}

	chainIDFlag = cli.Uint64Flag{
		Name:  "chain-id",
		Value: 31337,
		Usage: "chain id of the local chain",
	}
	gasLimitFlag = cli.Uint64Flag{
		Name:  "gas-limit",
		Value: 30_000_000,
		Usage: "block gas limit",
	}
	baseFeeFlag = cli.Uint64Flag{
		Name:  "base-fee",
		Value: 1_000_000_000,
		Usage: "base fee of the genesis block in wei",
	}
	gasPriceFlag = cli.Uint64Flag{
		Name:  "gas-price",
		Usage: "minimum gas price reported to clients in wei",
	}
	timestampFlag = cli.Uint64Flag{
		Name:  "timestamp",
		Usage: "timestamp of the genesis block (now if set to 0)",
	}
	coinbaseFlag = cli.StringFlag{
		Name:  "coinbase",
		Usage: "address receiving block rewards and priority fees",
	}
	accountsFlag = cli.IntFlag{
		Name:  "accounts",
		Value: 10,
		Usage: "number of dev accounts to generate",
	}
	balanceFlag = cli.Uint64Flag{
		Name:  "balance",
		Value: 10_000,
		Usage: "balance of every dev account in ether",
	}
	mnemonicFlag = cli.StringFlag{
		Name:  "mnemonic",
		Usage: "BIP39 mnemonic phrase used to derive dev accounts",
	}
	blockTimeFlag = cli.Uint64Flag{
		Name:  "block-time",
		Usage: "mine a block every n seconds instead of on every transaction",
	}
	noMiningFlag = cli.BoolFlag{
		Name:  "no-mining",
		Usage: "disable automine, blocks are mined only on request",
	}
	orderFlag = cli.StringFlag{
		Name:  "order",
		Value: "fees",
		Usage: "order of pending transactions in mined blocks (fees|fifo)",
	}

	forkURLFlag = cli.StringFlag{
		Name:  "fork-url",
		Usage: "JSON-RPC endpoint of the chain to fork from",
	}
	forkBlockNumberFlag = cli.Uint64Flag{
		Name:  "fork-block-number",
		Usage: "fork at the given block instead of the remote head",
	}
	forkRetriesFlag = cli.IntFlag{
		Name:  "fork-retries",
		Value: 5,
		Usage: "number of retries of a failed remote request",
	}
	forkRetryBackoffFlag = cli.Uint64Flag{
		Name:  "fork-retry-backoff",
		Value: 1000,
		Usage: "initial wait between remote retries in milliseconds",
	}
	forkTimeoutFlag = cli.Uint64Flag{
		Name:  "fork-timeout",
		Value: 45000,
		Usage: "timeout of a single remote request in milliseconds",
	}
	forkCacheDirFlag = cli.StringFlag{
		Name:  "fork-cache-dir",
		Usage: "directory persisting remote state across restarts",
	}

	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
)
