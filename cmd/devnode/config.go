// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/devnode/fork"
	"github.com/vechain/devnode/node"
)

// loadConfig builds the node config from defaults, the optional config file
// and the flags set on the command line, in increasing precedence.
func loadConfig(ctx *cli.Context) (node.Config, error) {
	cfg := node.DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return node.Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return node.Config{}, errors.Wrapf(err, "parse config file [%v]", path)
		}
	}
	if err := applyFlags(ctx, &cfg); err != nil {
		return node.Config{}, err
	}
	switch cfg.Order {
	case "fees", "fifo":
	default:
		return node.Config{}, errors.Errorf("unsupported transaction order %q", cfg.Order)
	}
	cfg.Version = version
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *node.Config) error {
	if ctx.IsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.Uint64(chainIDFlag.Name)
	}
	if ctx.IsSet(gasLimitFlag.Name) {
		cfg.GasLimit = ctx.Uint64(gasLimitFlag.Name)
	}
	if ctx.IsSet(baseFeeFlag.Name) {
		cfg.BaseFee = ctx.Uint64(baseFeeFlag.Name)
	}
	if ctx.IsSet(gasPriceFlag.Name) {
		cfg.GasPrice = ctx.Uint64(gasPriceFlag.Name)
	}
	if ctx.IsSet(timestampFlag.Name) {
		cfg.Timestamp = ctx.Uint64(timestampFlag.Name)
	}
	if ctx.IsSet(coinbaseFlag.Name) {
		s := ctx.String(coinbaseFlag.Name)
		if !common.IsHexAddress(s) {
			return errors.Errorf("invalid coinbase address %q", s)
		}
		cfg.Coinbase = common.HexToAddress(s)
	}
	if ctx.IsSet(accountsFlag.Name) {
		cfg.Accounts = ctx.Int(accountsFlag.Name)
	}
	if ctx.IsSet(balanceFlag.Name) {
		cfg.Balance = ctx.Uint64(balanceFlag.Name)
	}
	if ctx.IsSet(mnemonicFlag.Name) {
		cfg.Mnemonic = ctx.String(mnemonicFlag.Name)
	}
	if ctx.IsSet(blockTimeFlag.Name) {
		cfg.BlockTime = time.Duration(ctx.Uint64(blockTimeFlag.Name)) * time.Second
	}
	if ctx.IsSet(noMiningFlag.Name) {
		cfg.NoMining = ctx.Bool(noMiningFlag.Name)
	}
	if ctx.IsSet(orderFlag.Name) {
		cfg.Order = ctx.String(orderFlag.Name)
	}

	forkConfig := func() *fork.Config {
		if cfg.Fork == nil {
			cfg.Fork = &fork.Config{}
		}
		return cfg.Fork
	}
	if ctx.IsSet(forkURLFlag.Name) {
		forkConfig().URL = ctx.String(forkURLFlag.Name)
	}
	if ctx.IsSet(forkBlockNumberFlag.Name) {
		number := ctx.Uint64(forkBlockNumberFlag.Name)
		forkConfig().BlockNumber = &number
	}
	if ctx.IsSet(forkRetriesFlag.Name) {
		forkConfig().Retries = ctx.Int(forkRetriesFlag.Name)
	}
	if ctx.IsSet(forkRetryBackoffFlag.Name) {
		forkConfig().RetryBackoff = time.Duration(ctx.Uint64(forkRetryBackoffFlag.Name)) * time.Millisecond
	}
	if ctx.IsSet(forkTimeoutFlag.Name) {
		forkConfig().Timeout = time.Duration(ctx.Uint64(forkTimeoutFlag.Name)) * time.Millisecond
	}
	if ctx.IsSet(forkCacheDirFlag.Name) {
		forkConfig().CacheDir = ctx.String(forkCacheDirFlag.Name)
	}
	if cfg.Fork != nil && cfg.Fork.URL == "" {
		return errors.New("fork options require a fork url")
	}
	return nil
}
