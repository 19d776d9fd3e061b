// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	slot1 = common.HexToHash("0x01")
)

type fakeSource struct {
	calls   atomic.Int32
	numbers chan uint64
	block   chan struct{}
}

func (f *fakeSource) wait(number uint64) {
	f.calls.Add(1)
	if f.numbers != nil {
		f.numbers <- number
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeSource) Balance(_ context.Context, _ common.Address, n uint64) (*uint256.Int, error) {
	f.wait(n)
	return uint256.NewInt(777), nil
}

func (f *fakeSource) Nonce(_ context.Context, _ common.Address, n uint64) (uint64, error) {
	f.wait(n)
	return 9, nil
}

func (f *fakeSource) Code(_ context.Context, _ common.Address, n uint64) ([]byte, error) {
	f.wait(n)
	return []byte{0x60}, nil
}

func (f *fakeSource) Storage(_ context.Context, _ common.Address, _ common.Hash, n uint64) (common.Hash, error) {
	f.wait(n)
	return common.HexToHash("0xff"), nil
}

func TestZeroAccount(t *testing.T) {
	ctx := context.Background()
	s := New(nil, 0)

	acc, err := s.Latest().Account(ctx, addr1)
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())
	assert.Equal(t, types.EmptyCodeHash, acc.CodeHash())

	val, err := s.Latest().Storage(ctx, addr1, slot1)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, val)
}

func TestSetAndRead(t *testing.T) {
	ctx := context.Background()
	s := New(nil, 0)

	s.SetBalance(addr1, uint256.NewInt(100))
	s.SetNonce(addr1, 3)
	s.SetCode(addr1, []byte{1, 2, 3})
	s.SetStorage(addr1, slot1, common.HexToHash("0x2a"))

	acc, err := s.Latest().Account(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), acc.Balance.Uint64())
	assert.Equal(t, uint64(3), acc.Nonce)
	assert.Equal(t, []byte{1, 2, 3}, acc.Code)

	val, err := s.Latest().Storage(ctx, addr1, slot1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x2a"), val)
}

func TestHistoricalViews(t *testing.T) {
	ctx := context.Background()
	s := New(nil, 0)

	s.SetBalance(addr1, uint256.NewInt(1))
	_, err := s.Commit(nil, 0)
	require.NoError(t, err)

	_, err = s.Commit(NewChanges().SetBalance(addr1, uint256.NewInt(2)), 1)
	require.NoError(t, err)

	// pending write, not part of any block yet
	s.SetBalance(addr1, uint256.NewInt(3))

	for number, want := range []uint64{1, 2} {
		v, err := s.At(uint64(number))
		require.NoError(t, err)
		bal, err := v.Balance(ctx, addr1)
		require.NoError(t, err)
		assert.Equal(t, want, bal.Uint64(), "block %d", number)
	}
	bal, err := s.Latest().Balance(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), bal.Uint64())

	_, err = s.At(2)
	assert.ErrorIs(t, err, ErrUnknownBlock)

	_, err = s.Commit(nil, 5)
	assert.Error(t, err)
	assert.Equal(t, uint64(1), s.Head())
}

func TestCheckpointRevert(t *testing.T) {
	ctx := context.Background()
	s := New(nil, 0)
	_, err := s.Commit(NewChanges().SetBalance(addr1, uint256.NewInt(10)), 0)
	require.NoError(t, err)

	s.SetNonce(addr1, 1)
	cp := s.Checkpoint()

	s.SetBalance(addr1, uint256.NewInt(20))
	s.SetStorage(addr2, slot1, common.HexToHash("0x01"))
	_, err = s.Commit(NewChanges().SetNonce(addr1, 5), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Head())

	require.NoError(t, s.RevertTo(cp))
	assert.Equal(t, uint64(0), s.Head())

	acc, err := s.Latest().Account(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), acc.Balance.Uint64())
	assert.Equal(t, uint64(1), acc.Nonce)

	val, err := s.Latest().Storage(ctx, addr2, slot1)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, val)

	// the sealed block state survives further writes after revert
	s.SetBalance(addr1, uint256.NewInt(99))
	v, err := s.At(0)
	require.NoError(t, err)
	bal, err := v.Balance(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), bal.Uint64())

	assert.Error(t, s.RevertTo(0))
	assert.Error(t, s.RevertTo(1000))
}

func TestSourceFallthrough(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{numbers: make(chan uint64, 16)}
	s := New(src, 100)
	_, err := s.Commit(nil, 100)
	require.NoError(t, err)

	bal, err := s.Latest().Balance(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), bal.Uint64())
	assert.Equal(t, uint64(100), <-src.numbers)

	// before the base, reads go to the source at the requested height
	v, err := s.At(42)
	require.NoError(t, err)
	_, err = v.Nonce(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), <-src.numbers)

	// after the base, unseen data is read at the base
	_, err = s.Commit(nil, 101)
	require.NoError(t, err)
	v, err = s.At(101)
	require.NoError(t, err)
	_, err = v.Code(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), <-src.numbers)

	// local writes shadow the source
	s.SetBalance(addr1, uint256.NewInt(1))
	calls := src.calls.Load()
	bal, err = s.Latest().Balance(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal.Uint64())
	assert.Equal(t, calls, src.calls.Load())
}

func TestSlowSourceDoesNotBlockWriters(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{block: make(chan struct{})}
	s := New(src, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Latest().Balance(ctx, addr1)
	}()

	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	s.SetBalance(addr2, uint256.NewInt(5))
	bal, err := s.Latest().Balance(ctx, addr2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal.Uint64())

	close(src.block)
	<-done
}

func TestRoot(t *testing.T) {
	ctx := context.Background()

	empty := New(nil, 0)
	root, err := empty.Latest().Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.EmptyRootHash, root)

	build := func(order []common.Address) common.Hash {
		s := New(nil, 0)
		for _, a := range order {
			s.SetBalance(a, uint256.NewInt(uint64(a[19])))
		}
		r, err := s.Latest().Root(ctx)
		require.NoError(t, err)
		return r
	}
	r1 := build([]common.Address{addr1, addr2})
	r2 := build([]common.Address{addr2, addr1})
	assert.Equal(t, r1, r2)
	assert.NotEqual(t, types.EmptyRootHash, r1)

	s := New(nil, 0)
	s.SetBalance(addr1, uint256.NewInt(1))
	s.SetBalance(addr2, uint256.NewInt(2))
	before, err := s.Latest().Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, r1, before)

	s.SetStorage(addr1, slot1, common.HexToHash("0x05"))
	after, err := s.Latest().Root(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	// an account written back to zero does not contribute
	s.SetStorage(addr1, slot1, common.Hash{})
	s.SetBalance(addr2, new(uint256.Int))
	zeroed, err := s.Latest().Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, build([]common.Address{addr1}), zeroed)
}
