// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/devnode/block"
	. "github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/tx"
)

func newTx(t *testing.T, nonce uint64) *tx.Transaction {
	key, _ := crypto.GenerateKey()
	to := common.HexToAddress("0x01")
	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(1337)), &types.DynamicFeeTx{
		ChainID:   big.NewInt(1337),
		Nonce:     nonce,
		To:        &to,
		Gas:       21000,
		GasFeeCap: big.NewInt(1e9),
	})
	require.NoError(t, err)
	trx, err := tx.NewSigned(signed, big.NewInt(1337))
	require.NoError(t, err)
	return trx
}

func newBlock(parent *block.Block, txs ...*tx.Transaction) *block.Block {
	builder := new(block.Builder).
		ParentHash(parent.Hash()).
		Number(parent.Number() + 1).
		Timestamp(parent.Time() + 1)
	var cumulative uint64
	for _, t := range txs {
		cumulative += 21000
		builder.Transaction(t, &types.Receipt{Type: t.Type(), Status: types.ReceiptStatusSuccessful, CumulativeGasUsed: cumulative, GasUsed: 21000})
	}
	return builder.Build()
}

func newTestRepo(t *testing.T, base uint64) *Repository {
	repo, err := NewRepository(new(block.Builder).Number(base).GasLimit(30_000_000).Build())
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	repo := newTestRepo(t, 0)
	g := repo.Genesis()
	assert.Equal(t, g, repo.Head())

	trx := newTx(t, 0)
	b1 := newBlock(g, trx)
	require.NoError(t, repo.Append(b1))
	assert.Equal(t, b1, repo.Head())

	got, err := repo.GetByNumber(1)
	assert.NoError(t, err)
	assert.Equal(t, b1.Hash(), got.Hash())

	got, err = repo.GetByHash(b1.Hash())
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), got.Number())

	_, err = repo.GetByNumber(2)
	assert.True(t, IsNotFound(err))

	mined, loc, err := repo.GetTransaction(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, trx.Hash(), mined.Hash())
	assert.Equal(t, TxLocation{BlockHash: b1.Hash(), BlockNumber: 1, Index: 0}, *loc)

	receipt, err := repo.GetReceipt(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, b1.Hash(), receipt.BlockHash)
	assert.Equal(t, trx.Hash(), receipt.TxHash)
}

func TestAppendRejectsGaps(t *testing.T) {
	repo := newTestRepo(t, 0)
	b1 := newBlock(repo.Genesis())
	b2 := newBlock(b1)

	assert.Error(t, repo.Append(b2))

	orphan := new(block.Builder).Number(1).ParentHash(common.HexToHash("0xdead")).Build()
	assert.Error(t, repo.Append(orphan))
}

func TestTruncate(t *testing.T) {
	repo := newTestRepo(t, 100)
	assert.Equal(t, uint64(100), repo.Genesis().Number())

	trx := newTx(t, 0)
	b101 := newBlock(repo.Genesis())
	b102 := newBlock(b101, trx)
	require.NoError(t, repo.Append(b101))
	require.NoError(t, repo.Append(b102))

	_, err := repo.GetByNumber(99)
	assert.True(t, IsNotFound(err))

	require.NoError(t, repo.Truncate(101))
	assert.Equal(t, b101.Hash(), repo.Head().Hash())

	_, err = repo.GetByHash(b102.Hash())
	assert.True(t, IsNotFound(err))
	_, _, err = repo.GetTransaction(trx.Hash())
	assert.True(t, IsNotFound(err))

	assert.Error(t, repo.Truncate(99))
	assert.NoError(t, repo.Truncate(200))

	// the chain can grow again from the truncated head
	assert.NoError(t, repo.Append(newBlock(b101)))
}

func TestSubscribeNewHead(t *testing.T) {
	repo := newTestRepo(t, 0)
	ch := make(chan *block.Block, 1)
	sub := repo.SubscribeNewHead(ch)
	defer sub.Unsubscribe()

	b1 := newBlock(repo.Genesis())
	require.NoError(t, repo.Append(b1))

	select {
	case got := <-ch:
		assert.Equal(t, b1.Hash(), got.Hash())
	case <-time.After(time.Second):
		t.Fatal("no head received")
	}

	repo.Close()
	select {
	case <-sub.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}
