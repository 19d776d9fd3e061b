// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/tx"
)

// rpcTransaction is a transaction as returned by eth_getTransactionByHash.
type rpcTransaction struct {
	BlockHash        *common.Hash      `json:"blockHash"`
	BlockNumber      *hexutil.Big      `json:"blockNumber"`
	From             common.Address    `json:"from"`
	Gas              hexutil.Uint64    `json:"gas"`
	GasPrice         *hexutil.Big      `json:"gasPrice"`
	GasFeeCap        *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	GasTipCap        *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Hash             common.Hash       `json:"hash"`
	Input            hexutil.Bytes     `json:"input"`
	Nonce            hexutil.Uint64    `json:"nonce"`
	To               *common.Address   `json:"to"`
	TransactionIndex *hexutil.Uint64   `json:"transactionIndex"`
	Value            *hexutil.Big      `json:"value"`
	Type             hexutil.Uint64    `json:"type"`
	Accesses         *types.AccessList `json:"accessList,omitempty"`
	ChainID          *hexutil.Big      `json:"chainId,omitempty"`
	V                *hexutil.Big      `json:"v"`
	R                *hexutil.Big      `json:"r"`
	S                *hexutil.Big      `json:"s"`
}

// newRPCTransaction renders t, loc and baseFee are nil for pending transactions.
func newRPCTransaction(t *tx.Transaction, loc *chain.TxLocation, baseFee *big.Int) *rpcTransaction {
	v, r, s := t.RawSignature()
	result := &rpcTransaction{
		From:     t.From(),
		Gas:      hexutil.Uint64(t.Gas()),
		GasPrice: (*hexutil.Big)(t.GasFeeCap()),
		Hash:     t.Hash(),
		Input:    t.Data(),
		Nonce:    hexutil.Uint64(t.Nonce()),
		To:       t.To(),
		Value:    (*hexutil.Big)(t.Value().ToBig()),
		Type:     hexutil.Uint64(t.Type()),
		V:        (*hexutil.Big)(v),
		R:        (*hexutil.Big)(r),
		S:        (*hexutil.Big)(s),
	}
	if loc != nil {
		hash := loc.BlockHash
		index := hexutil.Uint64(loc.Index)
		result.BlockHash = &hash
		result.BlockNumber = (*hexutil.Big)(new(big.Int).SetUint64(loc.BlockNumber))
		result.TransactionIndex = &index
	}
	if t.Type() != types.LegacyTxType {
		al := t.Inner().AccessList()
		result.Accesses = &al
		result.ChainID = (*hexutil.Big)(t.ChainID())
	}
	if t.Type() == types.DynamicFeeTxType {
		result.GasFeeCap = (*hexutil.Big)(t.GasFeeCap())
		result.GasTipCap = (*hexutil.Big)(t.GasTipCap())
		if loc != nil {
			result.GasPrice = (*hexutil.Big)(t.EffectiveGasPrice(baseFee))
		}
	}
	return result
}

// encodeBlock encodes b the way eth_getBlockByNumber returns it.
func encodeBlock(b *block.Block, fullTx bool) (json.RawMessage, error) {
	h := b.Header()
	fields := map[string]any{
		"number":           (*hexutil.Big)(h.Number),
		"hash":             b.Hash(),
		"parentHash":       h.ParentHash,
		"nonce":            h.Nonce,
		"mixHash":          h.MixDigest,
		"sha3Uncles":       h.UncleHash,
		"logsBloom":        h.Bloom,
		"stateRoot":        h.Root,
		"miner":            h.Coinbase,
		"difficulty":       (*hexutil.Big)(h.Difficulty),
		"totalDifficulty":  (*hexutil.Big)(new(big.Int)),
		"extraData":        hexutil.Bytes(h.Extra),
		"size":             hexutil.Uint64(b.Size()),
		"gasLimit":         hexutil.Uint64(h.GasLimit),
		"gasUsed":          hexutil.Uint64(h.GasUsed),
		"timestamp":        hexutil.Uint64(h.Time),
		"transactionsRoot": h.TxHash,
		"receiptsRoot":     h.ReceiptHash,
		"uncles":           []common.Hash{},
	}
	if h.BaseFee != nil {
		fields["baseFeePerGas"] = (*hexutil.Big)(h.BaseFee)
	}

	txs := b.Transactions()
	if fullTx {
		list := make([]*rpcTransaction, len(txs))
		for i, t := range txs {
			loc := &chain.TxLocation{BlockHash: b.Hash(), BlockNumber: b.Number(), Index: uint64(i)}
			list[i] = newRPCTransaction(t, loc, h.BaseFee)
		}
		fields["transactions"] = list
	} else {
		list := make([]common.Hash, len(txs))
		for i, t := range txs {
			list[i] = t.Hash()
		}
		fields["transactions"] = list
	}
	return json.Marshal(fields)
}

// renderReceipt encodes the receipt of t the way eth_getTransactionReceipt returns it.
func renderReceipt(r *types.Receipt, t *tx.Transaction) map[string]any {
	fields := map[string]any{
		"blockHash":         r.BlockHash,
		"blockNumber":       (*hexutil.Big)(r.BlockNumber),
		"transactionHash":   r.TxHash,
		"transactionIndex":  hexutil.Uint64(r.TransactionIndex),
		"from":              t.From(),
		"to":                t.To(),
		"gasUsed":           hexutil.Uint64(r.GasUsed),
		"cumulativeGasUsed": hexutil.Uint64(r.CumulativeGasUsed),
		"effectiveGasPrice": (*hexutil.Big)(r.EffectiveGasPrice),
		"contractAddress":   nil,
		"logs":              r.Logs,
		"logsBloom":         r.Bloom,
		"type":              hexutil.Uint(r.Type),
		"status":            hexutil.Uint(r.Status),
	}
	if r.Logs == nil {
		fields["logs"] = []*types.Log{}
	}
	if r.ContractAddress != (common.Address{}) {
		fields["contractAddress"] = r.ContractAddress
	}
	return fields
}
