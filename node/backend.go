// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/fork"
	"github.com/vechain/devnode/miner"
	"github.com/vechain/devnode/snapshot"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/txpool"
)

// backend is one chain: replaced as a whole by Reset.
type backend struct {
	config  Config
	chainID *big.Int
	fork    *fork.Backend // nil when not forking
	store   *state.Store
	pool    *txpool.TxPool
	repo    *chain.Repository
	miner   *miner.Miner
	snaps   *snapshot.Manager
}

func (n *Node) newBackend(ctx context.Context, config Config) (*backend, error) {
	order, err := txpool.ParseOrder(config.Order)
	if err != nil {
		return nil, err
	}

	b := &backend{
		config:  config,
		chainID: new(big.Int).SetUint64(config.ChainID),
	}
	var (
		genesis *block.Builder
		base    uint64
		baseFee = new(big.Int).SetUint64(config.BaseFee)
	)
	if config.forking() {
		if n.remote != nil {
			b.fork, err = fork.New(ctx, n.remote, *config.Fork)
		} else {
			b.fork, err = fork.Dial(ctx, *config.Fork)
		}
		if err != nil {
			return nil, err
		}
		b.chainID.SetUint64(b.fork.ChainID())
		base = b.fork.BlockNumber()
		if h := b.fork.ForkHeader(); h.BaseFee != nil {
			baseFee = h.BaseFee
		}
		b.store = state.New(b.fork, base)
	} else {
		ts := config.Timestamp
		if ts == 0 {
			ts = uint64(n.clock().Unix())
		}
		genesis = new(block.Builder).Timestamp(ts).GasLimit(config.GasLimit).BaseFee(baseFee)
		b.store = state.New(nil, 0)
	}

	balance := new(uint256.Int).Mul(uint256.NewInt(config.Balance), uint256.NewInt(1e18))
	for _, addr := range n.signer.Accounts() {
		b.store.SetBalance(addr, balance)
	}
	if _, err := b.store.Commit(nil, base); err != nil {
		b.closeFork()
		return nil, err
	}

	// a forked chain continues from the remote fork block
	var genesisBlock *block.Block
	if genesis == nil {
		genesisBlock = block.New(b.fork.ForkHeader(), nil, nil)
	} else {
		view, err := b.store.At(0)
		if err != nil {
			return nil, err
		}
		root, err := view.Root(ctx)
		if err != nil {
			return nil, err
		}
		genesisBlock = genesis.StateRoot(root).Build()
	}
	if b.repo, err = chain.NewRepository(genesisBlock); err != nil {
		b.closeFork()
		return nil, errors.WithMessage(err, "genesis")
	}

	b.pool = txpool.New(txpool.Options{Order: order})
	b.miner = miner.New(b.store, b.pool, b.repo, n.exec, &n.lock, miner.Options{
		ChainID: b.chainID,
		Env: miner.Environment{
			Coinbase: config.Coinbase,
			GasLimit: config.GasLimit,
			BaseFee:  baseFee,
		},
		Automine: config.BlockTime <= 0 && !config.NoMining,
		Interval: config.BlockTime,
		Clock:    n.clock,
	})
	b.snaps = snapshot.New(b.store, b.pool, b.repo, b.miner)
	return b, nil
}

func (b *backend) closeFork() {
	if b.fork != nil {
		b.fork.Close()
	}
}

// close stops the backend. It must not be called with the mutation lock held.
func (b *backend) close() {
	b.miner.Close()
	b.snaps.Reset()
	b.pool.Close()
	b.repo.Close()
	b.closeFork()
}
