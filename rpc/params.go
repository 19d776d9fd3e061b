// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/fork"
	"github.com/vechain/devnode/node"
)

// paramType is the wire type of a positional parameter.
type paramType int

const (
	tAddress paramType = iota
	tHash
	tSlot // quantity or 32-byte data
	tUint64
	tBig // 256-bit unsigned quantity
	tInt // signed quantity
	tBytes
	tBool
	tString
	tBlockRef // number, tag, hash or EIP-1898 object
	tBlockNumber
	tTxArgs
	tResetArgs
)

var paramTypeNames = [...]string{
	tAddress:     "address",
	tHash:        "hash",
	tSlot:        "storage slot",
	tUint64:      "quantity",
	tBig:         "quantity",
	tInt:         "quantity",
	tBytes:       "data",
	tBool:        "bool",
	tString:      "string",
	tBlockRef:    "block reference",
	tBlockNumber: "block number",
	tTxArgs:      "transaction object",
	tResetArgs:   "reset options",
}

func (t paramType) String() string { return paramTypeNames[t] }

type param struct {
	typ      paramType
	optional bool
}

func req(t paramType) param { return param{typ: t} }
func opt(t paramType) param { return param{typ: t, optional: true} }

// resetArgs are the options of anvil_reset.
type resetArgs struct {
	Forking *struct {
		JSONRPCURL  string          `json:"jsonRpcUrl"`
		BlockNumber *hexutil.Uint64 `json:"blockNumber"`
	} `json:"forking"`
}

// decodeParams validates raw against the schema. Omitted or null optional
// parameters decode to nil.
func decodeParams(schema []param, raw json.RawMessage) (args, *Error) {
	var list []json.RawMessage
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, invalidParams("non-array args")
		}
	}
	required := 0
	for i, p := range schema {
		if !p.optional {
			required = i + 1
		}
	}
	if len(list) < required {
		return nil, invalidParams("missing value for required argument %d", len(list))
	}
	if len(list) > len(schema) {
		return nil, invalidParams("too many arguments, want at most %d", len(schema))
	}

	out := make(args, len(schema))
	for i, p := range schema {
		if i >= len(list) || bytes.Equal(bytes.TrimSpace(list[i]), []byte("null")) {
			if !p.optional {
				return nil, invalidParams("missing value for required argument %d", i)
			}
			continue
		}
		v, err := decodeParam(p.typ, list[i])
		if err != nil {
			return nil, invalidParams("invalid argument %d: %v: %v", i, p.typ, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeParam(t paramType, raw json.RawMessage) (any, error) {
	switch t {
	case tAddress:
		return unmarshal[common.Address](raw, json.Unmarshal)
	case tHash:
		return unmarshal[common.Hash](raw, json.Unmarshal)
	case tSlot:
		return decodeSlot(raw)
	case tUint64:
		v, err := decodeQuantity(raw)
		if err != nil {
			return nil, err
		}
		if !v.IsUint64() {
			return nil, errors.New("not a 64-bit unsigned integer")
		}
		return v.Uint64(), nil
	case tBig:
		v, err := decodeQuantity(raw)
		if err != nil {
			return nil, err
		}
		if v.Sign() < 0 || v.BitLen() > 256 {
			return nil, errors.New("not a 256-bit unsigned integer")
		}
		return v, nil
	case tInt:
		v, err := decodeQuantity(raw)
		if err != nil {
			return nil, err
		}
		if !v.IsInt64() {
			return nil, errors.New("exceeds 64 bits")
		}
		return v.Int64(), nil
	case tBytes:
		v, err := unmarshal[hexutil.Bytes](raw, json.Unmarshal)
		return []byte(v), err
	case tBool:
		return unmarshal[bool](raw, json.Unmarshal)
	case tString:
		return unmarshal[string](raw, json.Unmarshal)
	case tBlockRef:
		return unmarshal[gethrpc.BlockNumberOrHash](raw, json.Unmarshal)
	case tBlockNumber:
		return unmarshal[gethrpc.BlockNumber](raw, json.Unmarshal)
	case tTxArgs:
		return unmarshal[node.TxArgs](raw, json.Unmarshal)
	case tResetArgs:
		return unmarshal[resetArgs](raw, strictUnmarshal)
	}
	return nil, errors.Errorf("unknown parameter type %d", t)
}

func unmarshal[T any](raw json.RawMessage, decode func([]byte, any) error) (T, error) {
	var v T
	err := decode(raw, &v)
	return v, err
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeQuantity accepts hex strings as well as plain JSON numbers.
func decodeQuantity(raw json.RawMessage) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.HasPrefix(s, "-") {
			v, err := hexutil.DecodeBig(s[1:])
			if err != nil {
				return nil, err
			}
			return v.Neg(v), nil
		}
		return hexutil.DecodeBig(s)
	}
	v, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, errors.New("not a number")
	}
	return v, nil
}

func decodeSlot(raw json.RawMessage) (common.Hash, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return common.Hash{}, err
	}
	if b, err := hexutil.Decode(s); err == nil && len(b) == common.HashLength {
		return common.BytesToHash(b), nil
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return common.Hash{}, err
	}
	if v.BitLen() > 256 {
		return common.Hash{}, errors.New("exceeds 256 bits")
	}
	return common.BigToHash(v), nil
}

// args holds decoded parameters in schema order.
type args []any

func (a args) present(i int) bool { return i < len(a) && a[i] != nil }

func (a args) address(i int) common.Address { return a[i].(common.Address) }
func (a args) hash(i int) common.Hash       { return a[i].(common.Hash) }
func (a args) data(i int) []byte            { return a[i].([]byte) }
func (a args) flag(i int) bool              { return a[i].(bool) }
func (a args) str(i int) string             { return a[i].(string) }
func (a args) big(i int) *big.Int           { return a[i].(*big.Int) }
func (a args) signed(i int) int64           { return a[i].(int64) }
func (a args) txArgs(i int) node.TxArgs     { return a[i].(node.TxArgs) }

func (a args) blockNumber(i int) gethrpc.BlockNumber {
	return a[i].(gethrpc.BlockNumber)
}

// quantity returns the uint64 at i, def when omitted.
func (a args) quantity(i int, def uint64) uint64 {
	if !a.present(i) {
		return def
	}
	return a[i].(uint64)
}

func (a args) u256(i int) *uint256.Int {
	v, _ := uint256.FromBig(a.big(i))
	return v
}

// blockRef returns the block reference at i, latest when omitted.
func (a args) blockRef(i int) gethrpc.BlockNumberOrHash {
	if !a.present(i) {
		return gethrpc.BlockNumberOrHashWithNumber(gethrpc.LatestBlockNumber)
	}
	return a[i].(gethrpc.BlockNumberOrHash)
}

// reset converts anvil_reset options, nil keeps the current settings.
func (a args) reset(i int) *node.ResetArgs {
	if !a.present(i) {
		return nil
	}
	r := a[i].(resetArgs)
	out := &node.ResetArgs{}
	if r.Forking != nil {
		out.Forking = &fork.Config{URL: r.Forking.JSONRPCURL}
		if r.Forking.BlockNumber != nil {
			n := uint64(*r.Forking.BlockNumber)
			out.Forking.BlockNumber = &n
		}
	}
	return out
}
