// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/tx"
)

func (s *Server) registerMethods() {
	n := s.node

	// standard namespace
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.ClientVersion(), nil
	}, "web3_clientVersion")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.ChainID().String(), nil
	}, "net_version")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return true, nil
	}, "net_listening")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return (*hexutil.Big)(n.ChainID()), nil
	}, "eth_chainId")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return hexutil.Uint64(n.BlockNumber()), nil
	}, "eth_blockNumber")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.Accounts(), nil
	}, "eth_accounts")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return (*hexutil.Big)(n.GasPrice()), nil
	}, "eth_gasPrice")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return (*hexutil.Big)(n.MaxPriorityFeePerGas()), nil
	}, "eth_maxPriorityFeePerGas")

	s.register(Read, []param{req(tAddress), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		bal, err := n.Balance(ctx, a.address(0), a.blockRef(1))
		if err != nil {
			return nil, err
		}
		return (*hexutil.Big)(bal.ToBig()), nil
	}, "eth_getBalance")
	s.register(Read, []param{req(tAddress), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		nonce, err := n.Nonce(ctx, a.address(0), a.blockRef(1))
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(nonce), nil
	}, "eth_getTransactionCount")
	s.register(Read, []param{req(tAddress), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		code, err := n.Code(ctx, a.address(0), a.blockRef(1))
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(code), nil
	}, "eth_getCode")
	s.register(Read, []param{req(tAddress), req(tSlot), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		val, err := n.Storage(ctx, a.address(0), a.hash(1), a.blockRef(2))
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(val[:]), nil
	}, "eth_getStorageAt")

	s.register(Read, []param{req(tBlockNumber), opt(tBool)}, func(_ context.Context, a args) (any, error) {
		b, err := n.BlockByNumber(a.blockNumber(0))
		if err != nil {
			return nil, err
		}
		return s.renderBlock(b, a.present(1) && a.flag(1))
	}, "eth_getBlockByNumber")
	s.register(Read, []param{req(tHash), opt(tBool)}, func(_ context.Context, a args) (any, error) {
		b, err := n.BlockByHash(a.hash(0))
		if err != nil {
			return nil, err
		}
		return s.renderBlock(b, a.present(1) && a.flag(1))
	}, "eth_getBlockByHash")
	s.register(Read, []param{req(tHash)}, s.getTransaction, "eth_getTransactionByHash")
	s.register(Read, []param{req(tHash)}, s.getReceipt, "eth_getTransactionReceipt")

	s.register(Mutate, []param{req(tTxArgs)}, func(ctx context.Context, a args) (any, error) {
		return n.SendTransaction(ctx, a.txArgs(0))
	}, "eth_sendTransaction")
	s.register(Mutate, []param{req(tBytes)}, func(ctx context.Context, a args) (any, error) {
		return n.SendRawTransaction(ctx, a.data(0))
	}, "eth_sendRawTransaction")
	s.register(Read, []param{req(tTxArgs), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		res, err := n.Call(ctx, a.txArgs(0), a.blockRef(1))
		if err != nil {
			return nil, err
		}
		if res.Err != nil {
			if errors.Is(res.Err, executor.ErrExecutionReverted) {
				return nil, revertError(res.Err, res.ReturnData)
			}
			return nil, &Error{Code: CodeServer, Message: res.Err.Error()}
		}
		return hexutil.Bytes(res.ReturnData), nil
	}, "eth_call")
	s.register(Read, []param{req(tTxArgs), opt(tBlockRef)}, func(ctx context.Context, a args) (any, error) {
		gas, err := n.EstimateGas(ctx, a.txArgs(0), a.blockRef(1))
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(gas), nil
	}, "eth_estimateGas")

	s.register(Read, []param{req(tString)}, func(ctx context.Context, a args) (any, error) {
		c := connFrom(ctx)
		if c == nil {
			return nil, &Error{Code: CodeMethodNotFound, Message: "notifications not supported"}
		}
		return c.subscribe(a.str(0))
	}, "eth_subscribe")
	s.register(Read, []param{req(tString)}, func(ctx context.Context, a args) (any, error) {
		c := connFrom(ctx)
		if c == nil {
			return nil, &Error{Code: CodeMethodNotFound, Message: "notifications not supported"}
		}
		return c.unsubscribe(a.str(0)), nil
	}, "eth_unsubscribe")

	// state overrides
	s.register(Mutate, []param{req(tAddress), req(tBig)}, func(_ context.Context, a args) (any, error) {
		n.SetBalance(a.address(0), a.u256(1))
		return nil, nil
	}, "anvil_setBalance", "hardhat_setBalance")
	s.register(Mutate, []param{req(tAddress), req(tUint64)}, func(_ context.Context, a args) (any, error) {
		n.SetNonce(a.address(0), a.quantity(1, 0))
		return nil, nil
	}, "anvil_setNonce", "hardhat_setNonce")
	s.register(Mutate, []param{req(tAddress), req(tBytes)}, func(_ context.Context, a args) (any, error) {
		n.SetCode(a.address(0), a.data(1))
		return nil, nil
	}, "anvil_setCode", "hardhat_setCode")
	s.register(Mutate, []param{req(tAddress), req(tSlot), req(tSlot)}, func(_ context.Context, a args) (any, error) {
		n.SetStorage(a.address(0), a.hash(1), a.hash(2))
		return true, nil
	}, "anvil_setStorageAt", "hardhat_setStorageAt")

	// impersonation
	s.register(Mutate, []param{req(tAddress)}, func(_ context.Context, a args) (any, error) {
		n.Impersonate(a.address(0))
		return nil, nil
	}, "anvil_impersonateAccount", "hardhat_impersonateAccount")
	s.register(Mutate, []param{req(tAddress)}, func(_ context.Context, a args) (any, error) {
		n.StopImpersonating(a.address(0))
		return nil, nil
	}, "anvil_stopImpersonatingAccount", "hardhat_stopImpersonatingAccount")
	s.register(Mutate, []param{req(tBool)}, func(_ context.Context, a args) (any, error) {
		n.SetAutoImpersonate(a.flag(0))
		return nil, nil
	}, "anvil_autoImpersonateAccount")

	// mining
	s.register(Mutate, []param{req(tUint64)}, func(_ context.Context, a args) (any, error) {
		n.SetBlockGasLimit(a.quantity(0, 0))
		return true, nil
	}, "evm_setBlockGasLimit")
	s.register(Mutate, []param{opt(tUint64)}, func(ctx context.Context, a args) (any, error) {
		if a.present(0) {
			if err := n.SetNextTimestamp(a.quantity(0, 0)); err != nil {
				return nil, err
			}
		}
		if _, err := n.Mine(ctx, 1, 0); err != nil {
			return nil, err
		}
		return "0x0", nil
	}, "evm_mine")
	s.register(Mutate, []param{opt(tUint64), opt(tUint64)}, func(ctx context.Context, a args) (any, error) {
		_, err := n.Mine(ctx, a.quantity(0, 1), a.quantity(1, 0))
		return nil, err
	}, "anvil_mine", "hardhat_mine")
	s.register(Mutate, []param{req(tBool)}, func(_ context.Context, a args) (any, error) {
		n.SetAutomine(a.flag(0))
		return nil, nil
	}, "anvil_setAutomine", "evm_setAutomine")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.Automine(), nil
	}, "anvil_getAutomine", "hardhat_getAutomine")
	s.register(Mutate, []param{req(tUint64)}, func(_ context.Context, a args) (any, error) {
		n.SetIntervalMining(time.Duration(a.quantity(0, 0)) * time.Second)
		return nil, nil
	}, "anvil_setIntervalMining", "evm_setIntervalMining")
	s.register(Mutate, []param{req(tInt)}, func(_ context.Context, a args) (any, error) {
		return (*hexutil.Big)(big.NewInt(n.IncreaseTime(a.signed(0)))), nil
	}, "evm_increaseTime")
	s.register(Mutate, []param{req(tUint64)}, func(_ context.Context, a args) (any, error) {
		return nil, n.SetNextTimestamp(a.quantity(0, 0))
	}, "evm_setNextBlockTimestamp", "anvil_setNextBlockTimestamp")
	s.register(Mutate, []param{req(tBig)}, func(_ context.Context, a args) (any, error) {
		n.SetMinGasPrice(a.big(0))
		return nil, nil
	}, "anvil_setMinGasPrice")
	s.register(Mutate, []param{req(tBig)}, func(_ context.Context, a args) (any, error) {
		n.SetNextBaseFee(a.big(0))
		return nil, nil
	}, "anvil_setNextBlockBaseFeePerGas")
	s.register(Mutate, []param{req(tAddress)}, func(_ context.Context, a args) (any, error) {
		n.SetCoinbase(a.address(0))
		return nil, nil
	}, "anvil_setCoinbase")

	// snapshots
	s.register(Mutate, nil, func(context.Context, args) (any, error) {
		return (*hexutil.Big)(n.Snapshot()), nil
	}, "evm_snapshot", "anvil_snapshot")
	s.register(Mutate, []param{req(tBig)}, func(_ context.Context, a args) (any, error) {
		if err := n.Revert(a.big(0)); err != nil {
			return nil, err
		}
		return true, nil
	}, "evm_revert", "anvil_revert")

	// pool
	s.register(Mutate, []param{req(tHash)}, func(_ context.Context, a args) (any, error) {
		if n.DropTransaction(a.hash(0)) {
			return a.hash(0), nil
		}
		return nil, nil
	}, "anvil_dropTransaction")
	s.register(Mutate, nil, func(context.Context, args) (any, error) {
		n.DropAllTransactions()
		return nil, nil
	}, "anvil_dropAllTransactions")
	s.register(Read, nil, s.poolStatus, "txpool_status")
	s.register(Read, nil, s.poolContent, "txpool_content")

	// node
	s.register(Mutate, []param{opt(tResetArgs)}, func(ctx context.Context, a args) (any, error) {
		return nil, n.Reset(ctx, a.reset(0))
	}, "anvil_reset")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.NodeInfo(), nil
	}, "anvil_nodeInfo")
	s.register(Read, nil, func(context.Context, args) (any, error) {
		return n.Metadata(), nil
	}, "anvil_metadata")
}

// renderBlock encodes b through the block cache, a nil block renders as null.
func (s *Server) renderBlock(b *block.Block, fullTx bool) (any, error) {
	if b == nil {
		return nil, nil
	}
	key := b.Hash().Hex() + strconv.FormatBool(fullTx)
	if cached, ok := s.blocks.Get(key); ok {
		metricBlockCache().AddWithLabel(1, map[string]string{"result": "hit"})
		return cached, nil
	}
	metricBlockCache().AddWithLabel(1, map[string]string{"result": "miss"})

	data, err := encodeBlock(b, fullTx)
	if err != nil {
		return nil, err
	}
	s.blocks.Add(key, data)
	return data, nil
}

func (s *Server) getTransaction(_ context.Context, a args) (any, error) {
	t, loc, err := s.node.Transaction(a.hash(0))
	if err != nil || t == nil {
		return nil, err
	}
	var baseFee *big.Int
	if loc != nil {
		b, err := s.node.BlockByHash(loc.BlockHash)
		if err != nil {
			return nil, err
		}
		if b != nil {
			baseFee = b.BaseFee()
		}
	}
	return newRPCTransaction(t, loc, baseFee), nil
}

func (s *Server) getReceipt(_ context.Context, a args) (any, error) {
	r, err := s.node.Receipt(a.hash(0))
	if err != nil || r == nil {
		return nil, err
	}
	t, _, err := s.node.Transaction(a.hash(0))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.Errorf("receipt without transaction %v", a.hash(0))
	}
	return renderReceipt(r, t), nil
}

func (s *Server) poolStatus(ctx context.Context, _ args) (any, error) {
	pending, queued, err := s.node.PoolContent(ctx)
	if err != nil {
		return nil, err
	}
	count := func(m map[common.Address]tx.Transactions) hexutil.Uint {
		total := 0
		for _, txs := range m {
			total += len(txs)
		}
		return hexutil.Uint(total)
	}
	return map[string]hexutil.Uint{
		"pending": count(pending),
		"queued":  count(queued),
	}, nil
}

func (s *Server) poolContent(ctx context.Context, _ args) (any, error) {
	pending, queued, err := s.node.PoolContent(ctx)
	if err != nil {
		return nil, err
	}
	render := func(m map[common.Address]tx.Transactions) map[common.Address]map[string]*rpcTransaction {
		out := make(map[common.Address]map[string]*rpcTransaction, len(m))
		for addr, txs := range m {
			byNonce := make(map[string]*rpcTransaction, len(txs))
			for _, t := range txs {
				byNonce[strconv.FormatUint(t.Nonce(), 10)] = newRPCTransaction(t, nil, nil)
			}
			out[addr] = byNonce
		}
		return out
	}
	return map[string]map[common.Address]map[string]*rpcTransaction{
		"pending": render(pending),
		"queued":  render(queued),
	}, nil
}
