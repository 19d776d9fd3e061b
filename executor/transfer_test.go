// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
)

var (
	chainID  = big.NewInt(1337)
	coinbase = common.HexToAddress("0xc0ffee")
	env      = &Env{Number: 1, Time: 100, Coinbase: coinbase, GasLimit: 30_000_000, BaseFee: big.NewInt(1e9), ChainID: chainID}
)

func newImpersonated(from common.Address, nonce uint64, to *common.Address, gas uint64, value int64, data []byte) *tx.Transaction {
	return tx.NewImpersonated(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		To:        to,
		Gas:       gas,
		GasFeeCap: big.NewInt(3e9),
		GasTipCap: big.NewInt(1e9),
		Value:     big.NewInt(value),
		Data:      data,
	}), from)
}

func funded(addr common.Address, wei uint64) *state.Store {
	s := state.New(nil, 0)
	s.SetBalance(addr, uint256.NewInt(wei))
	return s
}

func TestIntrinsicGas(t *testing.T) {
	for _, tt := range []struct {
		data     []byte
		create   bool
		expected uint64
	}{
		{nil, false, 21000},
		{nil, true, 53000},
		{[]byte{0, 1}, false, 21000 + 4 + 16},
		{[]byte{1, 1, 0}, true, 53000 + 16 + 16 + 4},
	} {
		gas, err := IntrinsicGas(tt.data, nil, tt.create)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, gas)
	}

	gas, err := IntrinsicGas(nil, types.AccessList{{Address: coinbase, StorageKeys: []common.Hash{{}, {}}}}, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000+2400+2*1900), gas)
}

func TestExecuteTransfer(t *testing.T) {
	ctx := context.Background()
	from := common.HexToAddress("0xaa")
	to := common.HexToAddress("0xbb")
	s := funded(from, 1e18)

	res, err := Transfer{}.Execute(ctx, env, newImpersonated(from, 0, &to, 21000, 1000, nil), s.Latest())
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, uint64(21000), res.GasUsed)

	s.Apply(res.Changes)
	view := s.Latest()

	// price is base fee + tip = 2 gwei
	bal, _ := view.Balance(ctx, from)
	assert.Equal(t, uint64(1e18-1000-21000*2e9), bal.Uint64())
	bal, _ = view.Balance(ctx, to)
	assert.Equal(t, uint64(1000), bal.Uint64())
	bal, _ = view.Balance(ctx, coinbase)
	assert.Equal(t, uint64(21000*1e9), bal.Uint64())
	nonce, _ := view.Nonce(ctx, from)
	assert.Equal(t, uint64(1), nonce)
}

func TestExecuteValidation(t *testing.T) {
	ctx := context.Background()
	from := common.HexToAddress("0xaa")
	to := common.HexToAddress("0xbb")
	s := funded(from, 1e18)
	s.SetNonce(from, 2)

	for _, tt := range []struct {
		name string
		tx   *tx.Transaction
		err  error
	}{
		{"intrinsic", newImpersonated(from, 2, &to, 20000, 0, nil), ErrIntrinsicGas},
		{"nonce low", newImpersonated(from, 1, &to, 21000, 0, nil), ErrNonceTooLow},
		{"nonce high", newImpersonated(from, 3, &to, 21000, 0, nil), ErrNonceTooHigh},
		{"funds", newImpersonated(from, 2, &to, 21000, 1e18, nil), ErrInsufficientFunds},
	} {
		_, err := Transfer{}.Execute(ctx, env, tt.tx, s.Latest())
		assert.ErrorIs(t, err, tt.err, tt.name)
		assert.True(t, IsValidationError(err), tt.name)
	}

	low := tx.NewImpersonated(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     2,
		To:        &to,
		Gas:       21000,
		GasFeeCap: big.NewInt(1),
	}), from)
	_, err := Transfer{}.Execute(ctx, env, low, s.Latest())
	assert.ErrorIs(t, err, ErrFeeCapTooLow)
}

func TestExecuteCreate(t *testing.T) {
	ctx := context.Background()
	from := common.HexToAddress("0xaa")
	s := funded(from, 1e18)
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}

	res, err := Transfer{}.Execute(ctx, env, newImpersonated(from, 0, nil, 100_000, 5, code), s.Latest())
	require.NoError(t, err)
	require.False(t, res.Failed())
	assert.Equal(t, crypto.CreateAddress(from, 0), res.ContractAddress)

	intrinsic, _ := IntrinsicGas(code, nil, true)
	assert.Equal(t, intrinsic+200*uint64(len(code)), res.GasUsed)

	s.Apply(res.Changes)
	got, _ := s.Latest().Code(ctx, res.ContractAddress)
	assert.Equal(t, code, got)
	bal, _ := s.Latest().Balance(ctx, res.ContractAddress)
	assert.Equal(t, uint64(5), bal.Uint64())
}

func TestExecuteCreateFailure(t *testing.T) {
	ctx := context.Background()
	from := common.HexToAddress("0xaa")
	s := funded(from, 1e18)
	s.SetCode(crypto.CreateAddress(from, 0), []byte{1})

	trx := newImpersonated(from, 0, nil, 60_000, 5, []byte{1})
	res, err := Transfer{}.Execute(ctx, env, trx, s.Latest())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrContractAddressCollision)
	assert.Equal(t, trx.Gas(), res.GasUsed)

	// fees and nonce are still charged, value is not moved
	s.Apply(res.Changes)
	nonce, _ := s.Latest().Nonce(ctx, from)
	assert.Equal(t, uint64(1), nonce)
	bal, _ := s.Latest().Balance(ctx, from)
	assert.Equal(t, uint64(1e18-60_000*2e9), bal.Uint64())

	// not enough gas for the code deposit
	res, err = Transfer{}.Execute(ctx, env, newImpersonated(from, 1, nil, 53_016+10, 0, []byte{1}), s.Latest())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrOutOfGas)
}

func TestCall(t *testing.T) {
	ctx := context.Background()
	from := common.HexToAddress("0xaa")
	to := common.HexToAddress("0xbb")
	s := funded(from, 100)

	res, err := Transfer{}.Call(ctx, env, &Message{From: from, To: &to, Value: uint256.NewInt(50), Data: []byte{1}}, s.Latest())
	require.NoError(t, err)
	assert.Equal(t, uint64(21016), res.GasUsed)

	// the store is never written
	bal, _ := s.Latest().Balance(ctx, to)
	assert.True(t, bal.IsZero())

	_, err = Transfer{}.Call(ctx, env, &Message{From: from, To: &to, Value: uint256.NewInt(500)}, s.Latest())
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = Transfer{}.Call(ctx, env, &Message{From: from, To: &to, Gas: 100}, s.Latest())
	assert.ErrorIs(t, err, ErrIntrinsicGas)

	_, err = Transfer{}.Call(ctx, env, &Message{From: from, To: &to, GasPrice: big.NewInt(1)}, s.Latest())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
