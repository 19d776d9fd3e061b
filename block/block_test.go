// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vechain/devnode/block"
	"github.com/vechain/devnode/tx"
)

func TestEmptyBlock(t *testing.T) {
	b := new(Builder).
		Number(3).
		Timestamp(1000).
		GasLimit(30_000_000).
		BaseFee(big.NewInt(1e9)).
		Build()

	h := b.Header()
	assert.Equal(t, types.EmptyTxsHash, h.TxHash)
	assert.Equal(t, types.EmptyReceiptsHash, h.ReceiptHash)
	assert.Equal(t, types.EmptyUncleHash, h.UncleHash)
	assert.Equal(t, uint64(3), b.Number())
	assert.Equal(t, uint64(0), b.GasUsed())
	assert.Equal(t, big.NewInt(1e9), b.BaseFee())
	assert.Equal(t, h.Hash(), b.Hash())
	assert.NotZero(t, b.Size())
}

func TestBuildWithTransactions(t *testing.T) {
	key, _ := crypto.GenerateKey()
	to := common.HexToAddress("0x02")
	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(1)), &types.LegacyTx{
		Nonce:    0,
		To:       &to,
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
	require.NoError(t, err)
	trx, err := tx.NewSigned(signed, big.NewInt(1))
	require.NoError(t, err)

	topic := common.HexToHash("0xabcd")
	logs := []*types.Log{{Address: to, Topics: []common.Hash{topic}}}
	receipt := &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21000,
		GasUsed:           21000,
		Logs:              logs,
		Bloom:             LogsBloom(logs),
	}

	parent := common.HexToHash("0x01")
	b := new(Builder).ParentHash(parent).Number(1).Transaction(trx, receipt).Build()

	assert.Equal(t, parent, b.ParentHash())
	assert.Equal(t, uint64(21000), b.GasUsed())
	assert.Equal(t, types.DeriveSha(types.Transactions{signed}, trie.NewStackTrie(nil)), b.Header().TxHash)
	assert.True(t, b.Bloom().Test(to.Bytes()))
	assert.True(t, b.Bloom().Test(topic[:]))

	assert.Equal(t, b.Hash(), receipt.BlockHash)
	assert.Equal(t, trx.Hash(), receipt.TxHash)
	assert.Equal(t, b.Hash(), logs[0].BlockHash)
	assert.Equal(t, uint64(1), logs[0].BlockNumber)
	assert.Equal(t, uint(0), logs[0].Index)

	// returned slices are copies
	txs := b.Transactions()
	txs[0] = nil
	assert.NotNil(t, b.Transactions()[0])
}
