// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/vechain/devnode/tx"
)

// Builder to make it easy to build a block object.
type Builder struct {
	header   types.Header
	txs      tx.Transactions
	receipts types.Receipts
}

// ParentHash set parent hash.
func (b *Builder) ParentHash(hash common.Hash) *Builder {
	b.header.ParentHash = hash
	return b
}

// Number set block number.
func (b *Builder) Number(n uint64) *Builder {
	b.header.Number = new(big.Int).SetUint64(n)
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.header.Time = ts
	return b
}

// GasLimit set gas limit.
func (b *Builder) GasLimit(limit uint64) *Builder {
	b.header.GasLimit = limit
	return b
}

// Coinbase set the fee recipient.
func (b *Builder) Coinbase(addr common.Address) *Builder {
	b.header.Coinbase = addr
	return b
}

// BaseFee set base fee.
func (b *Builder) BaseFee(fee *big.Int) *Builder {
	if fee != nil {
		b.header.BaseFee = new(big.Int).Set(fee)
	}
	return b
}

// StateRoot set state root.
func (b *Builder) StateRoot(root common.Hash) *Builder {
	b.header.Root = root
	return b
}

// Transaction appends an executed transaction and its receipt.
func (b *Builder) Transaction(t *tx.Transaction, receipt *types.Receipt) *Builder {
	b.txs = append(b.txs, t)
	b.receipts = append(b.receipts, receipt)
	return b
}

// Build computes the derived header fields and fills block context into receipts and logs.
func (b *Builder) Build() *Block {
	header := b.header
	header.UncleHash = types.EmptyUncleHash
	header.Difficulty = new(big.Int)
	header.Extra = []byte{}
	if header.Number == nil {
		header.Number = new(big.Int)
	}

	header.TxHash = types.EmptyTxsHash
	header.ReceiptHash = types.EmptyReceiptsHash
	if len(b.txs) > 0 {
		header.TxHash = types.DeriveSha(b.txs.Inner(), trie.NewStackTrie(nil))
		header.ReceiptHash = types.DeriveSha(b.receipts, trie.NewStackTrie(nil))
		header.GasUsed = b.receipts[len(b.receipts)-1].CumulativeGasUsed
	}
	for _, r := range b.receipts {
		for i := range header.Bloom {
			header.Bloom[i] |= r.Bloom[i]
		}
	}

	hash := header.Hash()
	var logIndex uint
	for i, r := range b.receipts {
		r.BlockHash = hash
		r.BlockNumber = new(big.Int).Set(header.Number)
		r.TransactionIndex = uint(i)
		r.TxHash = b.txs[i].Hash()
		for _, l := range r.Logs {
			l.BlockHash = hash
			l.BlockNumber = header.Number.Uint64()
			l.TxHash = r.TxHash
			l.TxIndex = uint(i)
			l.Index = logIndex
			logIndex++
		}
	}
	return New(&header, b.txs, b.receipts)
}

// LogsBloom computes the bloom filter of logs.
func LogsBloom(logs []*types.Log) types.Bloom {
	var bloom types.Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic[:])
		}
	}
	return bloom
}
