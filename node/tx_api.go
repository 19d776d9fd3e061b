// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/accounts"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/tx"
)

const defaultTip = 1_000_000_000

// TxArgs are the arguments of eth_sendTransaction, eth_call and eth_estimateGas.
type TxArgs struct {
	From                 *common.Address   `json:"from"`
	To                   *common.Address   `json:"to"`
	Gas                  *hexutil.Uint64   `json:"gas"`
	GasPrice             *hexutil.Big      `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big      `json:"value"`
	Nonce                *hexutil.Uint64   `json:"nonce"`
	Data                 *hexutil.Bytes    `json:"data"`
	Input                *hexutil.Bytes    `json:"input"`
	AccessList           *types.AccessList `json:"accessList"`
	ChainID              *hexutil.Big      `json:"chainId"`
	Type                 *hexutil.Uint64   `json:"type"`
}

// txType resolves the envelope type to build, rejecting fee fields the type cannot carry.
func (a *TxArgs) txType() (uint8, error) {
	dynamic := a.MaxFeePerGas != nil || a.MaxPriorityFeePerGas != nil
	if a.GasPrice != nil && dynamic {
		return 0, errors.WithMessage(ErrInvalidArgs, "both gasPrice and (maxFeePerGas or maxPriorityFeePerGas) specified")
	}
	if a.Type == nil {
		if a.GasPrice != nil {
			return types.LegacyTxType, nil
		}
		return types.DynamicFeeTxType, nil
	}
	switch typ := uint64(*a.Type); typ {
	case types.LegacyTxType, types.AccessListTxType:
		if dynamic {
			return 0, errors.WithMessagef(ErrInvalidArgs, "transaction type %d does not take maxFeePerGas or maxPriorityFeePerGas", typ)
		}
		return uint8(typ), nil
	case types.DynamicFeeTxType:
		if a.GasPrice != nil {
			return 0, errors.WithMessagef(ErrInvalidArgs, "transaction type %d does not take gasPrice", typ)
		}
		return types.DynamicFeeTxType, nil
	default:
		return 0, errors.WithMessagef(ErrInvalidArgs, "unsupported transaction type %d", typ)
	}
}

func (a *TxArgs) data() ([]byte, error) {
	if a.Input != nil && a.Data != nil && !bytes.Equal(*a.Input, *a.Data) {
		return nil, errors.WithMessage(ErrInvalidArgs, `both "data" and "input" are set and not equal`)
	}
	if a.Input != nil {
		return *a.Input, nil
	}
	if a.Data != nil {
		return *a.Data, nil
	}
	return nil, nil
}

func (a *TxArgs) value() (*uint256.Int, error) {
	if a.Value == nil {
		return new(uint256.Int), nil
	}
	v, overflow := uint256.FromBig(a.Value.ToInt())
	if overflow {
		return nil, errors.WithMessage(ErrInvalidArgs, "value exceeds 256 bits")
	}
	return v, nil
}

func (a *TxArgs) accessList() types.AccessList {
	if a.AccessList == nil {
		return nil
	}
	return *a.AccessList
}

func (a *TxArgs) message() (*executor.Message, error) {
	data, err := a.data()
	if err != nil {
		return nil, err
	}
	value, err := a.value()
	if err != nil {
		return nil, err
	}
	msg := &executor.Message{
		To:         a.To,
		Value:      value,
		Data:       data,
		AccessList: a.accessList(),
	}
	if a.From != nil {
		msg.From = *a.From
	}
	if a.Gas != nil {
		msg.Gas = uint64(*a.Gas)
	}
	switch {
	case a.GasPrice != nil:
		msg.GasPrice = a.GasPrice.ToInt()
	case a.MaxFeePerGas != nil:
		msg.GasPrice = a.MaxFeePerGas.ToInt()
	}
	return msg, nil
}

// Accounts returns the signable accounts followed by explicitly impersonated ones.
func (n *Node) Accounts() []common.Address {
	addrs := n.signer.Accounts()
	for _, addr := range n.registry.List() {
		if !n.signer.Has(addr) {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// Impersonate allows addr to send unsigned transactions. This is a mutation.
func (n *Node) Impersonate(addr common.Address) {
	n.registry.Add(addr)
}

// StopImpersonating revokes Impersonate. This is a mutation.
func (n *Node) StopImpersonating(addr common.Address) {
	n.registry.Remove(addr)
}

// SetAutoImpersonate lets any address send unsigned transactions. This is a mutation.
func (n *Node) SetAutoImpersonate(enabled bool) {
	n.registry.SetAuto(enabled)
}

// nextEnv returns the block context of the next block.
func (n *Node) nextEnv(b *backend) *executor.Env {
	head := b.repo.Head()
	env := b.miner.Environment()
	ts := uint64(n.clock().Unix() + env.TimeOffset)
	if ts <= head.Time() {
		ts = head.Time() + 1
	}
	return &executor.Env{
		Number:   head.Number() + 1,
		Time:     ts,
		Coinbase: env.Coinbase,
		GasLimit: env.GasLimit,
		BaseFee:  env.BaseFee,
		ChainID:  b.chainID,
	}
}

// SendTransaction fills, signs or impersonates, and submits a transaction. This is a mutation.
func (n *Node) SendTransaction(ctx context.Context, args TxArgs) (common.Hash, error) {
	b := n.current()
	if args.From == nil {
		return common.Hash{}, errors.WithMessage(ErrInvalidArgs, "missing from")
	}
	from := *args.From
	signable := n.signer.Has(from)
	if !signable && !n.registry.CanSend(from) {
		return common.Hash{}, errors.WithMessagef(accounts.ErrNotImpersonated, "%v", from)
	}
	if args.ChainID != nil && args.ChainID.ToInt().Cmp(b.chainID) != 0 {
		return common.Hash{}, errors.WithMessagef(ErrInvalidArgs, "chain id %v, want %v", args.ChainID, b.chainID)
	}

	typ, err := args.txType()
	if err != nil {
		return common.Hash{}, err
	}
	msg, err := args.message()
	if err != nil {
		return common.Hash{}, err
	}
	msg.From = from
	env := n.nextEnv(b)
	st := b.store.Latest()

	nonce := uint64(0)
	if args.Nonce != nil {
		nonce = uint64(*args.Nonce)
	} else {
		stateNonce, err := st.Nonce(ctx, from)
		if err != nil {
			return common.Hash{}, err
		}
		nonce = b.pool.NextNonce(from, stateNonce)
	}

	gas := msg.Gas
	if args.Gas == nil {
		estimate := *msg
		estimate.GasPrice = nil
		res, err := n.exec.Call(ctx, env, &estimate, st)
		if err != nil {
			return common.Hash{}, err
		}
		if res.Err != nil {
			return common.Hash{}, res.Err
		}
		gas = res.GasUsed
	}
	if gas > env.GasLimit {
		return common.Hash{}, errors.WithMessagef(ErrGasLimitExceeded, "gas %d, block gas limit %d", gas, env.GasLimit)
	}

	var inner types.TxData
	if typ != types.DynamicFeeTxType {
		gasPrice := new(big.Int).Add(env.BaseFee, big.NewInt(defaultTip))
		if args.GasPrice != nil {
			gasPrice = args.GasPrice.ToInt()
		}
		if typ == types.AccessListTxType {
			inner = &types.AccessListTx{
				ChainID:    b.chainID,
				Nonce:      nonce,
				GasPrice:   gasPrice,
				Gas:        gas,
				To:         args.To,
				Value:      msg.Value.ToBig(),
				Data:       msg.Data,
				AccessList: msg.AccessList,
			}
		} else {
			inner = &types.LegacyTx{
				Nonce:    nonce,
				GasPrice: gasPrice,
				Gas:      gas,
				To:       args.To,
				Value:    msg.Value.ToBig(),
				Data:     msg.Data,
			}
		}
	} else {
		tip := big.NewInt(defaultTip)
		if args.MaxPriorityFeePerGas != nil {
			tip = args.MaxPriorityFeePerGas.ToInt()
		}
		var feeCap *big.Int
		if args.MaxFeePerGas != nil {
			feeCap = args.MaxFeePerGas.ToInt()
			if tip.Cmp(feeCap) > 0 {
				tip = feeCap
			}
		} else {
			feeCap = new(big.Int).Add(tip, new(big.Int).Mul(env.BaseFee, big.NewInt(2)))
		}
		inner = &types.DynamicFeeTx{
			ChainID:    b.chainID,
			Nonce:      nonce,
			GasTipCap:  tip,
			GasFeeCap:  feeCap,
			Gas:        gas,
			To:         args.To,
			Value:      msg.Value.ToBig(),
			Data:       msg.Data,
			AccessList: msg.AccessList,
		}
	}

	var t *tx.Transaction
	if signable {
		signed, err := n.signer.SignTx(from, types.NewTx(inner), b.chainID)
		if err != nil {
			return common.Hash{}, err
		}
		if t, err = tx.NewSigned(signed, b.chainID); err != nil {
			return common.Hash{}, err
		}
	} else {
		t = tx.NewImpersonated(types.NewTx(inner), from)
	}
	return n.submit(ctx, b, t)
}

// SendRawTransaction submits a signed transaction. This is a mutation.
func (n *Node) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	b := n.current()
	t, err := tx.Decode(raw, b.chainID)
	if err != nil {
		return common.Hash{}, errors.WithMessage(ErrInvalidArgs, err.Error())
	}
	return n.submit(ctx, b, t)
}

func (n *Node) submit(ctx context.Context, b *backend, t *tx.Transaction) (common.Hash, error) {
	if limit := b.miner.Environment().GasLimit; t.Gas() > limit {
		return common.Hash{}, errors.WithMessagef(ErrGasLimitExceeded, "gas %d, block gas limit %d", t.Gas(), limit)
	}
	if err := b.pool.Add(ctx, t, b.store.Latest()); err != nil {
		return common.Hash{}, err
	}
	logger.Debug("tx submitted", "hash", t.Hash(), "from", t.From(), "impersonated", t.Impersonated())

	if b.miner.Automine() {
		if _, err := b.miner.MineOne(ctx); err != nil {
			return t.Hash(), err
		}
	}
	return t.Hash(), nil
}

// Call executes a message against the state at ref without changing anything.
func (n *Node) Call(ctx context.Context, args TxArgs, ref gethrpc.BlockNumberOrHash) (*executor.Result, error) {
	b := n.current()
	st, err := b.stateAt(ref)
	if err != nil {
		return nil, err
	}
	msg, err := args.message()
	if err != nil {
		return nil, err
	}
	return n.exec.Call(ctx, n.nextEnv(b), msg, st)
}

// EstimateGas returns the gas a message uses against the state at ref.
func (n *Node) EstimateGas(ctx context.Context, args TxArgs, ref gethrpc.BlockNumberOrHash) (uint64, error) {
	res, err := n.Call(ctx, args, ref)
	if err != nil {
		return 0, err
	}
	if res.Err != nil {
		return 0, res.Err
	}
	return res.GasUsed, nil
}
