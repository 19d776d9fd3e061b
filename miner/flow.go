// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
)

// Flow the flow of mining a new block.
type Flow struct {
	parent   *block.Block
	env      executor.Env
	exec     executor.Executor
	overlay  *state.Overlay
	gasUsed  uint64
	txs      tx.Transactions
	receipts types.Receipts
}

func newFlow(parent *block.Block, env executor.Env, exec executor.Executor, base state.Reader) *Flow {
	return &Flow{
		parent:  parent,
		env:     env,
		exec:    exec,
		overlay: state.NewOverlay(base),
	}
}

// Adopt try to execute the given transaction.
// If the tx is valid and can be executed on current state (regardless of execution error),
// it will be adopted by the new block.
func (f *Flow) Adopt(ctx context.Context, t *tx.Transaction) error {
	if f.gasUsed+t.Gas() > f.env.GasLimit {
		return errGasLimitReached
	}

	res, err := f.exec.Execute(ctx, &f.env, t, f.overlay)
	if err != nil {
		return err
	}
	f.overlay.Apply(res.Changes)
	f.gasUsed += res.GasUsed

	receipt := &types.Receipt{
		Type:              t.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: f.gasUsed,
		GasUsed:           res.GasUsed,
		Logs:              res.Logs,
		Bloom:             block.LogsBloom(res.Logs),
		EffectiveGasPrice: t.EffectiveGasPrice(f.env.BaseFee),
	}
	if res.Failed() {
		receipt.Status = types.ReceiptStatusFailed
		receipt.Logs = []*types.Log{}
		receipt.Bloom = types.Bloom{}
	}
	if t.To() == nil && res.ContractAddress != (common.Address{}) {
		receipt.ContractAddress = res.ContractAddress
	}
	f.txs = append(f.txs, t)
	f.receipts = append(f.receipts, receipt)
	return nil
}

// Changes returns the state changes of all adopted transactions.
func (f *Flow) Changes() *state.Changes {
	return f.overlay.Changes()
}

// Pack builds the new block on top of the parent.
func (f *Flow) Pack(stateRoot common.Hash) *block.Block {
	builder := new(block.Builder).
		ParentHash(f.parent.Hash()).
		Number(f.env.Number).
		Timestamp(f.env.Time).
		GasLimit(f.env.GasLimit).
		Coinbase(f.env.Coinbase).
		BaseFee(f.env.BaseFee).
		StateRoot(stateRoot)
	for i, t := range f.txs {
		builder.Transaction(t, f.receipts[i])
	}
	return builder.Build()
}
