// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/fork"
	"github.com/vechain/devnode/node"
	"github.com/vechain/devnode/snapshot"
	"github.com/vechain/devnode/txpool"
)

// JSON-RPC error codes.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternal         = -32603
	CodeServer           = -32000
	CodeSnapshotNotFound = -32001
	CodeUnavailable      = -32002
	CodeTxRejected       = -32003
	CodeReverted         = 3
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func invalidParams(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// revertError reports a reverted execution along with its return data.
func revertError(err error, data []byte) *Error {
	e := &Error{Code: CodeReverted, Message: err.Error()}
	if len(data) > 0 {
		e.Data = hexutil.Encode(data)
	}
	return e
}

// toError classifies err into a JSON-RPC error.
func toError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	code := CodeServer
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, fork.ErrBackendUnavailable):
		code = CodeUnavailable
	case errors.Is(err, snapshot.ErrNotFound):
		code = CodeSnapshotNotFound
	case errors.Is(err, txpool.ErrInsufficientFunds),
		errors.Is(err, txpool.ErrNonceTooLow),
		errors.Is(err, executor.ErrInsufficientFunds),
		errors.Is(err, executor.ErrNonceTooLow),
		errors.Is(err, executor.ErrNonceTooHigh):
		code = CodeTxRejected
	case errors.Is(err, executor.ErrExecutionReverted):
		code = CodeReverted
	case errors.Is(err, node.ErrInvalidArgs):
		code = CodeInvalidParams
	}
	return &Error{Code: code, Message: err.Error()}
}
