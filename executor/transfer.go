// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
)

// Transfer executes value transfers and contract creation without running bytecode.
// Creation stores the init code as the runtime code of the new contract.
type Transfer struct{}

var _ Executor = Transfer{}

// IntrinsicGas computes the gas charged before execution.
func IntrinsicGas(data []byte, accessList types.AccessList, isCreate bool) (uint64, error) {
	gas := params.TxGas
	if isCreate {
		gas = params.TxGasContractCreation
	}
	var nz uint64
	for _, b := range data {
		if b != 0 {
			nz++
		}
	}
	z := uint64(len(data)) - nz
	if (math.MaxUint64-gas)/params.TxDataNonZeroGasEIP2028 < nz {
		return 0, ErrOutOfGas
	}
	gas += nz * params.TxDataNonZeroGasEIP2028
	if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
		return 0, ErrOutOfGas
	}
	gas += z * params.TxDataZeroGas

	gas += uint64(len(accessList)) * params.TxAccessListAddressGas
	gas += uint64(accessList.StorageKeys()) * params.TxAccessListStorageKeyGas
	return gas, nil
}

func (Transfer) Execute(ctx context.Context, env *Env, t *tx.Transaction, st state.Reader) (*Result, error) {
	from := t.From()
	isCreate := t.To() == nil

	intrinsic, err := IntrinsicGas(t.Data(), t.Inner().AccessList(), isCreate)
	if err != nil {
		return nil, err
	}
	if t.Gas() < intrinsic {
		return nil, errors.WithMessagef(ErrIntrinsicGas, "have %d, want %d", t.Gas(), intrinsic)
	}

	nonce, err := st.Nonce(ctx, from)
	if err != nil {
		return nil, err
	}
	switch {
	case t.Nonce() < nonce:
		return nil, errors.WithMessagef(ErrNonceTooLow, "address %v, tx: %d state: %d", from, t.Nonce(), nonce)
	case t.Nonce() > nonce:
		return nil, errors.WithMessagef(ErrNonceTooHigh, "address %v, tx: %d state: %d", from, t.Nonce(), nonce)
	}

	if env.BaseFee != nil {
		if t.GasFeeCap().Cmp(env.BaseFee) < 0 {
			return nil, errors.WithMessagef(ErrFeeCapTooLow, "maxFeePerGas: %v baseFee: %v", t.GasFeeCap(), env.BaseFee)
		}
	}
	if t.GasTipCap().Cmp(t.GasFeeCap()) > 0 {
		return nil, ErrTipAboveFeeCap
	}

	balance, err := st.Balance(ctx, from)
	if err != nil {
		return nil, err
	}
	if balance.Lt(t.Cost()) {
		return nil, errors.WithMessagef(ErrInsufficientFunds, "address %v have %v want %v", from, balance, t.Cost())
	}

	price := uint256.MustFromBig(t.EffectiveGasPrice(env.BaseFee))
	outer := state.NewOverlay(st)
	if err := outer.SubBalance(ctx, from, new(uint256.Int).Mul(price, uint256.NewInt(t.Gas()))); err != nil {
		return nil, errors.WithMessage(ErrInsufficientFunds, err.Error())
	}
	outer.SetNonce(from, nonce+1)

	inner := state.NewOverlay(outer)
	res := &Result{GasUsed: intrinsic}
	if isCreate {
		res.ContractAddress = crypto.CreateAddress(from, nonce)
		res.Err = create(ctx, inner, from, res.ContractAddress, t.Value(), t.Data(), t.Gas(), &res.GasUsed)
	} else {
		res.Err = transfer(ctx, inner, from, *t.To(), t.Value())
	}
	if res.Err == nil {
		outer.Apply(inner.Changes())
	} else if errors.Is(res.Err, ErrOutOfGas) || errors.Is(res.Err, ErrContractAddressCollision) {
		res.GasUsed = t.Gas()
	}

	// refund unused gas, burn the base fee and pay the tip to the coinbase
	refund := new(uint256.Int).Mul(price, uint256.NewInt(t.Gas()-res.GasUsed))
	if err := outer.AddBalance(ctx, from, refund); err != nil {
		return nil, err
	}
	tip := uint256.MustFromBig(t.EffectiveTip(env.BaseFee))
	if err := outer.AddBalance(ctx, env.Coinbase, new(uint256.Int).Mul(tip, uint256.NewInt(res.GasUsed))); err != nil {
		return nil, err
	}

	res.Changes = outer.Changes()
	res.Logs = []*types.Log{}
	return res, nil
}

func (Transfer) Call(ctx context.Context, env *Env, msg *Message, st state.Reader) (*Result, error) {
	gas := msg.Gas
	if gas == 0 {
		gas = env.GasLimit
	}
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	isCreate := msg.To == nil

	intrinsic, err := IntrinsicGas(msg.Data, msg.AccessList, isCreate)
	if err != nil {
		return nil, err
	}
	if gas < intrinsic {
		return nil, errors.WithMessagef(ErrIntrinsicGas, "have %d, want %d", gas, intrinsic)
	}

	overlay := state.NewOverlay(st)
	if msg.GasPrice != nil && msg.GasPrice.Sign() > 0 {
		fee, overflow := uint256.FromBig(new(big.Int).Mul(msg.GasPrice, new(big.Int).SetUint64(gas)))
		if overflow {
			return nil, ErrInsufficientFunds
		}
		if err := overlay.SubBalance(ctx, msg.From, fee); err != nil {
			if errors.Is(err, state.ErrInsufficientBalance) {
				return nil, errors.WithMessagef(ErrInsufficientFunds, "address %v", msg.From)
			}
			return nil, err
		}
	}

	res := &Result{GasUsed: intrinsic, Logs: []*types.Log{}}
	if isCreate {
		nonce, err := st.Nonce(ctx, msg.From)
		if err != nil {
			return nil, err
		}
		res.ContractAddress = crypto.CreateAddress(msg.From, nonce)
		res.Err = create(ctx, overlay, msg.From, res.ContractAddress, value, msg.Data, gas, &res.GasUsed)
		if res.Err == nil {
			res.ReturnData = common.CopyBytes(msg.Data)
		}
	} else {
		res.Err = transfer(ctx, overlay, msg.From, *msg.To, value)
	}
	if res.Err != nil && errors.Is(res.Err, ErrInsufficientFunds) {
		return nil, res.Err
	}
	res.Changes = overlay.Changes()
	return res, nil
}

func transfer(ctx context.Context, o *state.Overlay, from, to common.Address, value *uint256.Int) error {
	if value.IsZero() {
		return nil
	}
	if err := o.SubBalance(ctx, from, value); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return errors.WithMessagef(ErrInsufficientFunds, "address %v", from)
		}
		return err
	}
	return o.AddBalance(ctx, to, value)
}

func create(ctx context.Context, o *state.Overlay, from, addr common.Address, value *uint256.Int, code []byte, gas uint64, gasUsed *uint64) error {
	nonce, err := o.Nonce(ctx, addr)
	if err != nil {
		return err
	}
	existing, err := o.Code(ctx, addr)
	if err != nil {
		return err
	}
	if nonce != 0 || len(existing) != 0 {
		return ErrContractAddressCollision
	}

	deposit := uint64(len(code)) * params.CreateDataGas
	if gas-*gasUsed < deposit {
		return ErrOutOfGas
	}
	if uint64(len(code)) > params.MaxCodeSize {
		return errors.WithMessage(ErrExecutionReverted, "max code size exceeded")
	}
	*gasUsed += deposit

	if err := transfer(ctx, o, from, addr, value); err != nil {
		return err
	}
	o.SetNonce(addr, 1)
	o.SetCode(addr, common.CopyBytes(code))
	return nil
}
