// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/devnode/node"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{
		configFlag, chainIDFlag, gasLimitFlag, baseFeeFlag, coinbaseFlag, accountsFlag,
		blockTimeFlag, noMiningFlag, orderFlag, forkURLFlag, forkBlockNumberFlag,
		forkRetriesFlag, forkRetryBackoffFlag,
	} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "devnode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newContext(t))
	require.NoError(t, err)

	want := node.DefaultConfig()
	want.Version = version
	assert.Equal(t, want, cfg)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
chain-id: 5
gas-limit: 12000000
accounts: 2
block-time: 2s
fork:
  url: http://localhost:9545
  retries: 3
`)
	cfg, err := loadConfig(newContext(t,
		"--config", path,
		"--chain-id", "7",
		"--fork-block-number", "42",
		"--coinbase", "0x00000000000000000000000000000000000000aa",
	))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.ChainID)
	assert.Equal(t, uint64(12_000_000), cfg.GasLimit)
	assert.Equal(t, 2, cfg.Accounts)
	assert.Equal(t, 2*time.Second, cfg.BlockTime)
	assert.Equal(t, common.HexToAddress("0xaa"), cfg.Coinbase)

	require.NotNil(t, cfg.Fork)
	assert.Equal(t, "http://localhost:9545", cfg.Fork.URL)
	assert.Equal(t, 3, cfg.Fork.Retries)
	require.NotNil(t, cfg.Fork.BlockNumber)
	assert.Equal(t, uint64(42), *cfg.Fork.BlockNumber)
}

func TestLoadConfigForkFlags(t *testing.T) {
	cfg, err := loadConfig(newContext(t,
		"--fork-url", "http://localhost:9545",
		"--fork-retry-backoff", "250",
		"--block-time", "3",
		"--no-mining",
	))
	require.NoError(t, err)

	require.NotNil(t, cfg.Fork)
	assert.Equal(t, 250*time.Millisecond, cfg.Fork.RetryBackoff)
	assert.Nil(t, cfg.Fork.BlockNumber)
	assert.Equal(t, 3*time.Second, cfg.BlockTime)
	assert.True(t, cfg.NoMining)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(newContext(t, "--order", "random"))
	assert.Error(t, err)

	_, err = loadConfig(newContext(t, "--coinbase", "0x12"))
	assert.Error(t, err)

	_, err = loadConfig(newContext(t, "--fork-retries", "2"))
	assert.Error(t, err)

	_, err = loadConfig(newContext(t, "--config", writeConfig(t, "chain-id: [")))
	assert.Error(t, err)

	_, err = loadConfig(newContext(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}
