// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams(t *testing.T) {
	schema := []param{req(tAddress), req(tSlot), opt(tBlockRef)}

	a, err := decodeParams(schema, json.RawMessage(`["0x0000000000000000000000000000000000000001", "0x2"]`))
	require.Nil(t, err)
	assert.Equal(t, common.HexToAddress("0x1"), a.address(0))
	assert.Equal(t, common.HexToHash("0x2"), a.hash(1))
	assert.False(t, a.present(2))
	ref := a.blockRef(2)
	n, ok := ref.Number()
	assert.True(t, ok)
	assert.Equal(t, gethrpc.LatestBlockNumber, n)

	a, err = decodeParams(schema, json.RawMessage(`["0x0000000000000000000000000000000000000001", "0x2", null]`))
	require.Nil(t, err)
	assert.False(t, a.present(2))

	for _, raw := range []string{
		``,
		`{}`,
		`["0x01"]`,
		`["0x0000000000000000000000000000000000000001", "0x2", "latest", 1]`,
		`["0x0000000000000000000000000000000000000001", "0x1` + strings.Repeat("0", 64) + `"]`,
		`[null, "0x2"]`,
	} {
		_, err := decodeParams(schema, json.RawMessage(raw))
		require.NotNil(t, err, raw)
		assert.Equal(t, CodeInvalidParams, err.Code, raw)
	}
}

func TestDecodeQuantity(t *testing.T) {
	for raw, want := range map[string]string{
		`"0x10"`: "16",
		`16`:     "16",
		`"-0x2"`: "-2",
	} {
		v, err := decodeQuantity(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, v.String(), raw)
	}

	_, err := decodeQuantity(json.RawMessage(`"16"`))
	assert.Error(t, err)
	_, err = decodeParam(tUint64, json.RawMessage(`"0x10000000000000000"`))
	assert.Error(t, err)
	_, err = decodeParam(tBig, json.RawMessage(`"-0x1"`))
	assert.Error(t, err)

	v, err := decodeParam(tInt, json.RawMessage(`"-0x3c"`))
	require.NoError(t, err)
	assert.Equal(t, int64(-60), v)
}
