// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/tx"
)

// BlockNumber returns the number of the head block.
func (n *Node) BlockNumber() uint64 {
	return n.current().repo.Head().Number()
}

// Head returns the head block.
func (n *Node) Head() *block.Block {
	return n.current().repo.Head()
}

// BlockByNumber returns the block of a number or tag, nil if there is none.
func (n *Node) BlockByNumber(number gethrpc.BlockNumber) (*block.Block, error) {
	repo := n.current().repo
	switch {
	case number < 0 && number == gethrpc.EarliestBlockNumber:
		return repo.Genesis(), nil
	case number < 0:
		return repo.Head(), nil
	}
	b, err := repo.GetByNumber(uint64(number))
	if chain.IsNotFound(err) {
		return nil, nil
	}
	return b, err
}

// BlockByHash returns the block of a hash, nil if there is none.
func (n *Node) BlockByHash(hash common.Hash) (*block.Block, error) {
	b, err := n.current().repo.GetByHash(hash)
	if chain.IsNotFound(err) {
		return nil, nil
	}
	return b, err
}

// Transaction returns a mined or pending transaction. The location is nil for pending ones.
func (n *Node) Transaction(hash common.Hash) (*tx.Transaction, *chain.TxLocation, error) {
	b := n.current()
	t, loc, err := b.repo.GetTransaction(hash)
	if err == nil {
		return t, loc, nil
	}
	if !chain.IsNotFound(err) {
		return nil, nil, err
	}
	return b.pool.Get(hash), nil, nil
}

// Receipt returns the receipt of a mined transaction, nil if not mined.
func (n *Node) Receipt(hash common.Hash) (*types.Receipt, error) {
	r, err := n.current().repo.GetReceipt(hash)
	if chain.IsNotFound(err) {
		return nil, nil
	}
	return r, err
}

// Mine mines n blocks, spaced by interval seconds when not zero. This is a mutation.
func (n *Node) Mine(ctx context.Context, count uint64, interval uint64) ([]*block.Block, error) {
	return n.current().miner.Mine(ctx, count, interval)
}

// SetBlockGasLimit sets the gas limit of the next blocks. This is a mutation.
func (n *Node) SetBlockGasLimit(limit uint64) {
	n.current().miner.SetGasLimit(limit)
}

// SetCoinbase sets the fee recipient of the next blocks. This is a mutation.
func (n *Node) SetCoinbase(addr common.Address) {
	n.current().miner.SetCoinbase(addr)
}

// SetNextBaseFee sets the base fee of the next blocks. This is a mutation.
func (n *Node) SetNextBaseFee(fee *big.Int) {
	n.current().miner.SetBaseFee(fee)
}

// SetNextTimestamp fixes the timestamp of the next block. This is a mutation.
func (n *Node) SetNextTimestamp(ts uint64) error {
	return n.current().miner.SetNextTimestamp(ts)
}

// IncreaseTime moves block time forward, returns the total offset. This is a mutation.
func (n *Node) IncreaseTime(seconds int64) int64 {
	return n.current().miner.IncreaseTime(seconds)
}

// SetAutomine toggles automine. This is a mutation.
func (n *Node) SetAutomine(enabled bool) {
	n.current().miner.SetAutomine(enabled)
}

func (n *Node) Automine() bool {
	return n.current().miner.Automine()
}

// SetIntervalMining mines a block every interval, zero disables it. This is a mutation.
func (n *Node) SetIntervalMining(interval time.Duration) {
	n.current().miner.SetInterval(interval)
}

// GasPrice returns the suggested legacy gas price.
func (n *Node) GasPrice() *big.Int {
	price := new(big.Int).Set(n.gasPrice.Load())
	if baseFee := n.current().miner.Environment().BaseFee; baseFee != nil && baseFee.Cmp(price) > 0 {
		price.Set(baseFee)
	}
	return price
}

// SetMinGasPrice sets the minimum suggested gas price. This is a mutation.
func (n *Node) SetMinGasPrice(price *big.Int) {
	n.gasPrice.Store(new(big.Int).Set(price))
}

// MaxPriorityFeePerGas returns the suggested tip.
func (n *Node) MaxPriorityFeePerGas() *big.Int {
	return big.NewInt(defaultTip)
}

// Snapshot captures the node state. This is a mutation.
func (n *Node) Snapshot() *big.Int {
	return n.current().snaps.Create()
}

// Revert restores the state captured by a snapshot. This is a mutation.
func (n *Node) Revert(id *big.Int) error {
	return n.current().snaps.Revert(id)
}

// DropTransaction removes a pending transaction. This is a mutation.
func (n *Node) DropTransaction(hash common.Hash) bool {
	return n.current().pool.Drop(hash)
}

// DropAllTransactions empties the pool. This is a mutation.
func (n *Node) DropAllTransactions() {
	n.current().pool.Clear()
}

// PoolContent returns executable and queued transactions per sender.
func (n *Node) PoolContent(ctx context.Context) (pending, queued map[common.Address]tx.Transactions, err error) {
	b := n.current()
	return b.pool.Content(ctx, b.store.Latest())
}
