// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const hardFork = "prague"

// NodeInfo is the result of anvil_nodeInfo.
type NodeInfo struct {
	CurrentBlockNumber    hexutil.Uint64  `json:"currentBlockNumber"`
	CurrentBlockTimestamp uint64          `json:"currentBlockTimestamp"`
	CurrentBlockHash      common.Hash     `json:"currentBlockHash"`
	HardFork              string          `json:"hardFork"`
	TransactionOrder      string          `json:"transactionOrder"`
	Environment           InfoEnvironment `json:"environment"`
	ForkConfig            InfoForkConfig  `json:"forkConfig"`
}

type InfoEnvironment struct {
	BaseFee  *hexutil.Big   `json:"baseFee"`
	ChainID  hexutil.Uint64 `json:"chainId"`
	GasLimit hexutil.Uint64 `json:"gasLimit"`
	GasPrice *hexutil.Big   `json:"gasPrice"`
}

type InfoForkConfig struct {
	ForkURL          *string `json:"forkUrl"`
	ForkBlockNumber  *uint64 `json:"forkBlockNumber"`
	ForkRetryBackoff *uint64 `json:"forkRetryBackoff"`
}

// Metadata is the result of anvil_metadata.
type Metadata struct {
	ClientVersion     string         `json:"clientVersion"`
	ChainID           hexutil.Uint64 `json:"chainId"`
	InstanceID        string         `json:"instanceId"`
	LatestBlockNumber hexutil.Uint64 `json:"latestBlockNumber"`
	LatestBlockHash   common.Hash    `json:"latestBlockHash"`
	ForkedNetwork     *ForkedNetwork `json:"forkedNetwork"`
	Snapshots         int            `json:"snapshots"`
}

type ForkedNetwork struct {
	ChainID         hexutil.Uint64 `json:"chainId"`
	ForkBlockNumber hexutil.Uint64 `json:"forkBlockNumber"`
	ForkBlockHash   common.Hash    `json:"forkBlockHash"`
}

// NodeInfo describes the current chain and mining environment.
func (n *Node) NodeInfo() *NodeInfo {
	b := n.current()
	head := b.repo.Head()
	env := b.miner.Environment()

	info := &NodeInfo{
		CurrentBlockNumber:    hexutil.Uint64(head.Number()),
		CurrentBlockTimestamp: head.Time(),
		CurrentBlockHash:      head.Hash(),
		HardFork:              hardFork,
		TransactionOrder:      b.pool.Order().String(),
		Environment: InfoEnvironment{
			BaseFee:  (*hexutil.Big)(env.BaseFee),
			ChainID:  hexutil.Uint64(b.chainID.Uint64()),
			GasLimit: hexutil.Uint64(env.GasLimit),
			GasPrice: (*hexutil.Big)(n.GasPrice()),
		},
	}
	if b.fork != nil {
		cfg := b.fork.Config()
		backoff := uint64(cfg.RetryBackoff.Milliseconds())
		info.ForkConfig = InfoForkConfig{
			ForkURL:          &cfg.URL,
			ForkBlockNumber:  cfg.BlockNumber,
			ForkRetryBackoff: &backoff,
		}
	}
	return info
}

// Metadata identifies this node instance and its fork.
func (n *Node) Metadata() *Metadata {
	b := n.current()
	head := b.repo.Head()

	md := &Metadata{
		ClientVersion:     n.ClientVersion(),
		ChainID:           hexutil.Uint64(b.chainID.Uint64()),
		InstanceID:        n.instanceID,
		LatestBlockNumber: hexutil.Uint64(head.Number()),
		LatestBlockHash:   head.Hash(),
		Snapshots:         b.snaps.Len(),
	}
	if b.fork != nil {
		md.ForkedNetwork = &ForkedNetwork{
			ChainID:         hexutil.Uint64(b.fork.ChainID()),
			ForkBlockNumber: hexutil.Uint64(b.fork.BlockNumber()),
			ForkBlockHash:   b.repo.Genesis().Hash(),
		}
	}
	return md
}
