// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/devnode/tx"
)

// Block is an immutable block type.
type Block struct {
	header   *types.Header
	txs      tx.Transactions
	receipts types.Receipts
	hash     common.Hash
}

// New create a block instance.
// Note: roots in header are not verified against txs and receipts, use a Builder to build up a block.
func New(header *types.Header, txs tx.Transactions, receipts types.Receipts) *Block {
	return &Block{
		header:   types.CopyHeader(header),
		txs:      append(tx.Transactions(nil), txs...),
		receipts: append(types.Receipts(nil), receipts...),
		hash:     header.Hash(),
	}
}

// Header returns a copy of block header.
func (b *Block) Header() *types.Header {
	return types.CopyHeader(b.header)
}

func (b *Block) Hash() common.Hash        { return b.hash }
func (b *Block) Number() uint64           { return b.header.Number.Uint64() }
func (b *Block) ParentHash() common.Hash  { return b.header.ParentHash }
func (b *Block) Time() uint64             { return b.header.Time }
func (b *Block) GasLimit() uint64         { return b.header.GasLimit }
func (b *Block) GasUsed() uint64          { return b.header.GasUsed }
func (b *Block) Coinbase() common.Address { return b.header.Coinbase }
func (b *Block) Root() common.Hash        { return b.header.Root }
func (b *Block) Bloom() types.Bloom       { return b.header.Bloom }
func (b *Block) Difficulty() *big.Int     { return new(big.Int).Set(b.header.Difficulty) }
func (b *Block) Extra() []byte            { return common.CopyBytes(b.header.Extra) }

// BaseFee returns the base fee, nil for blocks before London.
func (b *Block) BaseFee() *big.Int {
	if b.header.BaseFee == nil {
		return nil
	}
	return new(big.Int).Set(b.header.BaseFee)
}

// Transactions returns a copy of transactions.
func (b *Block) Transactions() tx.Transactions {
	return append(tx.Transactions(nil), b.txs...)
}

// Receipts returns receipts in transaction order.
func (b *Block) Receipts() types.Receipts {
	return append(types.Receipts(nil), b.receipts...)
}

// Size returns the encoded size of header and transactions.
func (b *Block) Size() uint64 {
	data, _ := rlp.EncodeToBytes([]any{b.header, b.txs.Inner(), []*types.Header{}})
	return uint64(len(data))
}
