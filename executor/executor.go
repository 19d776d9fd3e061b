// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package executor runs transactions against a state view and reports the resulting changes.
package executor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
)

// Validation errors. A transaction failing with one of them is not includable.
var (
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrFeeCapTooLow      = errors.New("max fee per gas less than block base fee")
	ErrTipAboveFeeCap    = errors.New("max priority fee per gas higher than max fee per gas")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
)

// Execution errors. The transaction is included with a failed receipt.
var (
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrOutOfGas                 = errors.New("out of gas")
	ErrContractAddressCollision = errors.New("contract address collision")
)

// IsValidationError returns whether err makes a transaction not includable.
func IsValidationError(err error) bool {
	for _, e := range []error{ErrIntrinsicGas, ErrNonceTooLow, ErrNonceTooHigh, ErrFeeCapTooLow, ErrTipAboveFeeCap, ErrInsufficientFunds} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Env is the block context of an execution.
type Env struct {
	Number   uint64
	Time     uint64
	Coinbase common.Address
	GasLimit uint64
	BaseFee  *big.Int
	ChainID  *big.Int
}

// Message is an unsigned call, as used by eth_call and eth_estimateGas.
type Message struct {
	From       common.Address
	To         *common.Address
	Gas        uint64 // zero means the block gas limit
	GasPrice   *big.Int
	Value      *uint256.Int
	Data       []byte
	AccessList types.AccessList
}

// Result is the outcome of an execution.
type Result struct {
	Changes         *state.Changes
	GasUsed         uint64
	Logs            []*types.Log
	ContractAddress common.Address
	ReturnData      []byte
	Err             error // execution error, nil on success
}

// Failed returns whether the execution failed after passing validation.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Executor executes transactions. It never writes to st, the returned changes
// are applied by the caller.
type Executor interface {
	// Execute validates and runs a transaction. A non-nil error is a validation error.
	Execute(ctx context.Context, env *Env, t *tx.Transaction, st state.Reader) (*Result, error)
	// Call runs a message without nonce and fee validation.
	Call(ctx context.Context, env *Env, msg *Message, st state.Reader) (*Result, error)
}
