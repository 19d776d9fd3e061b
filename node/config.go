// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vechain/devnode/accounts"
	"github.com/vechain/devnode/fork"
)

// Config describes a node.
type Config struct {
	ChainID  uint64 `yaml:"chain-id"`
	GasLimit uint64 `yaml:"gas-limit"`
	// BaseFee in wei, used unless forking a chain with a base fee.
	BaseFee uint64 `yaml:"base-fee"`
	// GasPrice is the minimum gas price reported by eth_gasPrice, in wei.
	GasPrice uint64 `yaml:"gas-price"`
	Coinbase common.Address `yaml:"coinbase"`
	// Timestamp of the genesis block, zero means now.
	Timestamp uint64 `yaml:"timestamp"`

	Accounts int    `yaml:"accounts"`
	Balance  uint64 `yaml:"balance"` // in ether
	Mnemonic string `yaml:"mnemonic"`

	// BlockTime enables interval mining and disables automine when set.
	BlockTime time.Duration `yaml:"block-time"`
	NoMining  bool          `yaml:"no-mining"`
	Order     string        `yaml:"order"`

	Fork *fork.Config `yaml:"fork"`

	// Version is reported in the client version string.
	Version string `yaml:"-"`
}

// DefaultConfig returns the config of a fresh local chain.
func DefaultConfig() Config {
	return Config{
		ChainID:  31337,
		GasLimit: 30_000_000,
		BaseFee:  1_000_000_000,
		Accounts: 10,
		Balance:  10_000,
		Mnemonic: accounts.DefaultMnemonic,
		Order:    "fees",
		Version:  "0.1.0",
	}
}

// forking reports whether the config forks a remote chain.
func (c Config) forking() bool {
	return c.Fork != nil && c.Fork.URL != ""
}
