// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fakeremote serves a scripted Ethereum chain over JSON-RPC for fork tests.
package fakeremote

import (
	"context"
	"encoding/binary"
	"math/big"
	"net/http/httptest"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Chain is a remote chain whose state is the same at every height.
type Chain struct {
	mu       sync.Mutex
	chainID  uint64
	head     uint64
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash

	calls    map[string]int
	heights  []uint64
	failures int
	gate     chan struct{}
}

// New creates a remote chain with the given id and head.
func New(chainID, head uint64) *Chain {
	return &Chain{
		chainID:  chainID,
		head:     head,
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		calls:    make(map[string]int),
	}
}

func (c *Chain) SetBalance(addr common.Address, bal *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(bal)
}

func (c *Chain) SetNonce(addr common.Address, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces[addr] = nonce
}

func (c *Chain) SetCode(addr common.Address, code []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[addr] = code
}

func (c *Chain) SetStorage(addr common.Address, slot, val common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.storage[addr] == nil {
		c.storage[addr] = make(map[common.Hash]common.Hash)
	}
	c.storage[addr][slot] = val
}

// FailNext makes the next n requests fail.
func (c *Chain) FailNext(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = n
}

// Hold blocks state requests until the returned func is called.
func (c *Chain) Hold() (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.gate = nil
			c.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times method was served.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Heights returns the block heights state was requested at.
func (c *Chain) Heights() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.heights...)
}

// Header builds the deterministic header at number.
func (c *Chain) Header(number uint64) *types.Header {
	var parent common.Hash
	if number > 0 {
		parent = crypto.Keccak256Hash(binary.BigEndian.AppendUint64([]byte("block"), number-1))
	}
	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Root:        crypto.Keccak256Hash(binary.BigEndian.AppendUint64([]byte("root"), number)),
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  new(big.Int),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    30_000_000,
		Time:        1_700_000_000 + number*12,
		Extra:       []byte{},
		BaseFee:     big.NewInt(1_000_000_000),
	}
}

// enter records a call and applies failure injection and holds.
func (c *Chain) enter(ctx context.Context, method string, height *uint64) error {
	c.mu.Lock()
	c.calls[method]++
	if height != nil {
		c.heights = append(c.heights, *height)
	}
	gate := c.gate
	fail := c.failures > 0
	if fail {
		c.failures--
	}
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("injected failure")
	}
	return nil
}

func (c *Chain) height(ref rpc.BlockNumberOrHash) uint64 {
	if n, ok := ref.Number(); ok && n >= 0 {
		return uint64(n)
	}
	return c.head
}

// Server returns a JSON-RPC server exposing the eth namespace.
func (c *Chain) Server() *rpc.Server {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{c}); err != nil {
		panic(err)
	}
	return srv
}

// Client returns an in-process client.
func (c *Chain) Client() *ethclient.Client {
	return ethclient.NewClient(rpc.DialInProc(c.Server()))
}

// HTTPServer starts an http server, closed by the caller.
func (c *Chain) HTTPServer() *httptest.Server {
	return httptest.NewServer(c.Server())
}

type ethAPI struct {
	c *Chain
}

func (api *ethAPI) ChainId(ctx context.Context) (*hexutil.Big, error) {
	if err := api.c.enter(ctx, "eth_chainId", nil); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(new(big.Int).SetUint64(api.c.chainID)), nil
}

func (api *ethAPI) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	if err := api.c.enter(ctx, "eth_blockNumber", nil); err != nil {
		return 0, err
	}
	return hexutil.Uint64(api.c.head), nil
}

func (api *ethAPI) GetBlockByNumber(ctx context.Context, number rpc.BlockNumber, _ bool) (*types.Header, error) {
	if err := api.c.enter(ctx, "eth_getBlockByNumber", nil); err != nil {
		return nil, err
	}
	n := api.c.head
	if number >= 0 {
		n = uint64(number)
	}
	if n > api.c.head {
		return nil, nil
	}
	return api.c.Header(n), nil
}

func (api *ethAPI) GetBalance(ctx context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (*hexutil.Big, error) {
	h := api.c.height(ref)
	if err := api.c.enter(ctx, "eth_getBalance", &h); err != nil {
		return nil, err
	}
	api.c.mu.Lock()
	defer api.c.mu.Unlock()
	bal := new(big.Int)
	if b, ok := api.c.balances[addr]; ok {
		bal.Set(b)
	}
	return (*hexutil.Big)(bal), nil
}

func (api *ethAPI) GetTransactionCount(ctx context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	h := api.c.height(ref)
	if err := api.c.enter(ctx, "eth_getTransactionCount", &h); err != nil {
		return 0, err
	}
	api.c.mu.Lock()
	defer api.c.mu.Unlock()
	return hexutil.Uint64(api.c.nonces[addr]), nil
}

func (api *ethAPI) GetCode(ctx context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	h := api.c.height(ref)
	if err := api.c.enter(ctx, "eth_getCode", &h); err != nil {
		return nil, err
	}
	api.c.mu.Lock()
	defer api.c.mu.Unlock()
	return append(hexutil.Bytes{}, api.c.codes[addr]...), nil
}

func (api *ethAPI) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, ref rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	h := api.c.height(ref)
	if err := api.c.enter(ctx, "eth_getStorageAt", &h); err != nil {
		return nil, err
	}
	api.c.mu.Lock()
	defer api.c.mu.Unlock()
	val := api.c.storage[addr][slot]
	return val[:], nil
}
