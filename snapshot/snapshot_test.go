// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/miner"
	. "github.com/vechain/devnode/snapshot"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
	"github.com/vechain/devnode/txpool"
)

var (
	alice = common.HexToAddress("0xa11ce")
	sink  = common.HexToAddress("0x5111c")
)

type fixture struct {
	store *state.Store
	pool  *txpool.TxPool
	repo  *chain.Repository
	miner *miner.Miner
	snaps *Manager
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{store: state.New(nil, 0)}
	f.store.SetBalance(alice, uint256.NewInt(1e18))
	_, err := f.store.Commit(nil, 0)
	require.NoError(t, err)

	f.repo, err = chain.NewRepository(new(block.Builder).GasLimit(30_000_000).Build())
	require.NoError(t, err)
	f.pool = txpool.New(txpool.Options{})
	f.miner = miner.New(f.store, f.pool, f.repo, executor.Transfer{}, &sync.Mutex{}, miner.Options{
		ChainID: big.NewInt(1337),
		Env:     miner.Environment{GasLimit: 30_000_000, BaseFee: big.NewInt(1e9)},
	})
	t.Cleanup(f.miner.Close)
	f.snaps = New(f.store, f.pool, f.repo, f.miner)
	return f
}

func (f *fixture) send(t *testing.T, nonce uint64) *tx.Transaction {
	trx := tx.NewImpersonated(types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1337),
		Nonce:     nonce,
		To:        &sink,
		Gas:       21000,
		GasFeeCap: big.NewInt(2e9),
		Value:     big.NewInt(1),
	}), alice)
	require.NoError(t, f.pool.Add(context.Background(), trx, f.store.Latest()))
	return trx
}

func balance(t *testing.T, f *fixture, addr common.Address) uint64 {
	bal, err := f.store.Latest().Balance(context.Background(), addr)
	require.NoError(t, err)
	return bal.Uint64()
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.miner.MineOne(ctx)
	require.NoError(t, err)
	pending := f.send(t, 0)

	head := f.repo.Head()
	before := balance(t, f, alice)
	env := f.miner.Environment()

	s0 := f.snaps.Create()
	assert.Equal(t, big.NewInt(1), s0)

	// mutate everything
	f.store.SetBalance(sink, uint256.NewInt(5))
	f.miner.SetGasLimit(1_000_000)
	_, err = f.miner.Mine(ctx, 2, 0)
	require.NoError(t, err)
	s1 := f.snaps.Create()
	f.send(t, 1)
	assert.Equal(t, uint64(3), f.repo.Head().Number())
	assert.Equal(t, 1, f.pool.Len())

	require.NoError(t, f.snaps.Revert(s0))

	assert.Equal(t, head.Hash(), f.repo.Head().Hash())
	assert.Equal(t, uint64(1), f.store.Head())
	assert.Equal(t, before, balance(t, f, alice))
	assert.Equal(t, uint64(0), balance(t, f, sink))
	assert.Equal(t, tx.Transactions{pending}, f.pool.Dump())
	assert.Equal(t, env, f.miner.Environment())

	// later snapshots and the reverted one are gone
	assert.ErrorIs(t, f.snaps.Revert(s1), ErrNotFound)
	assert.ErrorIs(t, f.snaps.Revert(s0), ErrNotFound)
	assert.Equal(t, 0, f.snaps.Len())

	// the chain continues from the restored head
	b, err := f.miner.MineOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, head.Number()+1, b.Number())
	assert.Equal(t, head.Hash(), b.ParentHash())
}

func TestNestedSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s1 := f.snaps.Create()
	_, err := f.miner.MineOne(ctx)
	require.NoError(t, err)
	s2 := f.snaps.Create()
	_, err = f.miner.MineOne(ctx)
	require.NoError(t, err)
	s3 := f.snaps.Create()
	assert.Equal(t, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}, []*big.Int{s1, s2, s3})

	require.NoError(t, f.snaps.Revert(s2))
	assert.Equal(t, uint64(1), f.repo.Head().Number())
	assert.ErrorIs(t, f.snaps.Revert(s3), ErrNotFound)

	// ids keep increasing after a revert
	s4 := f.snaps.Create()
	assert.Equal(t, big.NewInt(4), s4)

	require.NoError(t, f.snaps.Revert(s1))
	assert.Equal(t, uint64(0), f.repo.Head().Number())
	assert.ErrorIs(t, f.snaps.Revert(s4), ErrNotFound)
}

func TestRevertAboveHead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.miner.MineOne(ctx)
	require.NoError(t, err)
	s := f.snaps.Create()
	f.store.SetBalance(sink, uint256.NewInt(3))

	// chain rewound below the snapshot behind the manager's back
	require.NoError(t, f.repo.Truncate(0))

	assert.Error(t, f.snaps.Revert(s))
	assert.Equal(t, uint64(3), balance(t, f, sink))
	assert.Equal(t, 1, f.snaps.Len())
}

func TestRevertUnknown(t *testing.T) {
	f := newFixture(t)
	f.snaps.Create()
	f.store.SetBalance(sink, uint256.NewInt(9))

	assert.ErrorIs(t, f.snaps.Revert(big.NewInt(7)), ErrNotFound)
	assert.ErrorIs(t, f.snaps.Revert(nil), ErrNotFound)
	assert.Equal(t, uint64(9), balance(t, f, sink))
	assert.Equal(t, 1, f.snaps.Len())

	f.snaps.Reset()
	assert.Equal(t, 0, f.snaps.Len())
}
