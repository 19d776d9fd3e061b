// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"context"
	"encoding/binary"
	"math/big"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/state"
)

var (
	logger = log.WithContext("pkg", "fork")

	// ErrBackendUnavailable is returned when the remote source keeps failing after all retries.
	ErrBackendUnavailable = errors.New("fork backend unavailable")

	errBeyondFork = errors.New("block is after the fork point")
)

var (
	_ state.Source        = (*Backend)(nil)
	_ state.AccountSource = (*Backend)(nil)
)

// Backend serves state of a remote chain pinned at the fork block.
//
// Every value fetched is kept for the process lifetime, there is no eviction.
// Concurrent misses on the same key share one remote request.
// A remote request is never cancelled by its callers: a caller giving up
// gets its context error while the request completes and fills the cache.
//
// It's thread-safe.
type Backend struct {
	remote Remote
	closer func()
	cfg    Config

	chainID uint64
	number  uint64
	header  *types.Header

	group     singleflight.Group
	cache     *cache
	closeOnce sync.Once
}

// New creates a backend reading through remote and pins the fork block.
func New(ctx context.Context, remote Remote, cfg Config) (*Backend, error) {
	b := &Backend{
		remote: remote,
		cfg:    cfg.withDefaults(),
		cache:  newCache(nil),
	}

	id, err := b.retry("chainId", func(ctx context.Context) ([]byte, error) {
		id, err := remote.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		return id.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	b.chainID = new(big.Int).SetBytes(id).Uint64()

	if b.cfg.CacheDir != "" {
		if b.cache, err = openCache(filepath.Join(b.cfg.CacheDir, strconv.FormatUint(b.chainID, 10))); err != nil {
			return nil, err
		}
	}

	if b.cfg.BlockNumber != nil {
		b.number = *b.cfg.BlockNumber
	} else {
		head, err := b.retry("blockNumber", func(ctx context.Context) ([]byte, error) {
			n, err := remote.BlockNumber(ctx)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint64(nil, n), nil
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.number = binary.BigEndian.Uint64(head)
	}

	if b.header, err = b.Header(ctx, b.number); err != nil {
		b.Close()
		return nil, errors.WithMessagef(err, "fork block %d", b.number)
	}
	logger.Info("forked remote chain", "url", b.cfg.URL, "chainId", b.chainID, "number", b.number, "hash", b.header.Hash())
	return b, nil
}

// Close releases the remote connection and the persistent cache.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		if b.closer != nil {
			b.closer()
		}
		b.cache.close()
	})
}

// Config returns the resolved fork configuration.
func (b *Backend) Config() Config {
	cfg := b.cfg
	n := b.number
	cfg.BlockNumber = &n
	return cfg
}

// ChainID returns the remote chain id.
func (b *Backend) ChainID() uint64 { return b.chainID }

// BlockNumber returns the fork block number.
func (b *Backend) BlockNumber() uint64 { return b.number }

// CachedEntries returns the number of remote values held by the cache.
func (b *Backend) CachedEntries() int { return b.cache.len() }

// ForkHeader returns the header of the fork block.
func (b *Backend) ForkHeader() *types.Header { return types.CopyHeader(b.header) }

// Header returns the remote header at number, which must not be after the fork block.
func (b *Backend) Header(ctx context.Context, number uint64) (*types.Header, error) {
	if b.header != nil && number > b.number {
		return nil, errBeyondFork
	}
	enc, err := b.fetch(ctx, kindHeader, nil, number, func(ctx context.Context) ([]byte, error) {
		h, err := b.remote.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes(h)
	})
	if err != nil {
		return nil, err
	}
	var h types.Header
	if err := rlp.DecodeBytes(enc, &h); err != nil {
		return nil, errors.Wrap(err, "decode cached header")
	}
	return &h, nil
}

func (b *Backend) Balance(ctx context.Context, addr common.Address, number uint64) (*uint256.Int, error) {
	if number > b.number {
		return nil, errBeyondFork
	}
	v, err := b.fetch(ctx, kindBalance, addr[:], number, func(ctx context.Context) ([]byte, error) {
		bal, err := b.remote.BalanceAt(ctx, addr, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, err
		}
		return bal.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(v), nil
}

func (b *Backend) Nonce(ctx context.Context, addr common.Address, number uint64) (uint64, error) {
	if number > b.number {
		return 0, errBeyondFork
	}
	v, err := b.fetch(ctx, kindNonce, addr[:], number, func(ctx context.Context) ([]byte, error) {
		n, err := b.remote.NonceAt(ctx, addr, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint64(nil, n), nil
	})
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

func (b *Backend) Code(ctx context.Context, addr common.Address, number uint64) ([]byte, error) {
	if number > b.number {
		return nil, errBeyondFork
	}
	return b.fetch(ctx, kindCode, addr[:], number, func(ctx context.Context) ([]byte, error) {
		return b.remote.CodeAt(ctx, addr, new(big.Int).SetUint64(number))
	})
}

func (b *Backend) Storage(ctx context.Context, addr common.Address, slot common.Hash, number uint64) (common.Hash, error) {
	if number > b.number {
		return common.Hash{}, errBeyondFork
	}
	v, err := b.fetch(ctx, kindStorage, append(addr[:], slot[:]...), number, func(ctx context.Context) ([]byte, error) {
		val, err := b.remote.StorageAt(ctx, addr, slot, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, err
		}
		return common.BytesToHash(val).Bytes(), nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(v), nil
}

// Account fetches balance, nonce and code concurrently.
func (b *Backend) Account(ctx context.Context, addr common.Address, number uint64) (*state.Account, error) {
	var (
		acc = &state.Account{}
		g   errgroup.Group
	)
	g.Go(func() (err error) {
		acc.Balance, err = b.Balance(ctx, addr, number)
		return
	})
	g.Go(func() (err error) {
		acc.Nonce, err = b.Nonce(ctx, addr, number)
		return
	})
	g.Go(func() (err error) {
		acc.Code, err = b.Code(ctx, addr, number)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return acc, nil
}

// fetch returns the cached value of (kind, key, number), fetching it once if absent.
func (b *Backend) fetch(ctx context.Context, kind kind, key []byte, number uint64, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	ck := cacheKey(kind, key, number)
	if v, ok := b.cache.get(ck); ok {
		metricCacheLookups().AddWithLabel(1, map[string]string{"kind": kind.String(), "result": "hit"})
		return v, nil
	}
	metricCacheLookups().AddWithLabel(1, map[string]string{"kind": kind.String(), "result": "miss"})

	ch := b.group.DoChan(string(ck), func() (any, error) {
		// filled by a request that completed after our lookup
		if v, ok := b.cache.get(ck); ok {
			return v, nil
		}
		v, err := b.retry(kind.String(), fn)
		if err != nil {
			return nil, err
		}
		b.cache.put(ck, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metricCoalesced().AddWithLabel(1, map[string]string{"kind": kind.String()})
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "fetch %v", kind)
	}
}

// retry runs fn with bounded exponential backoff, each attempt on its own timeout.
func (b *Backend) retry(what string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.cfg.RetryBackoff
	policy.MaxElapsedTime = 0

	attempt := 0
	v, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
		defer cancel()

		v, err := fn(ctx)
		if err == nil {
			metricRemoteCalls().AddWithLabel(1, map[string]string{"kind": what, "result": "ok"})
			return v, nil
		}
		metricRemoteCalls().AddWithLabel(1, map[string]string{"kind": what, "result": "error"})
		if errors.Is(err, ethereum.NotFound) {
			return nil, backoff.Permanent(err)
		}
		logger.Debug("remote request failed", "what", what, "attempt", attempt, "err", err)
		return nil, err
	}, backoff.WithMaxRetries(policy, uint64(b.cfg.Retries)))

	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		logger.Warn("remote request gave up", "what", what, "attempts", attempt, "err", err)
		return nil, errors.WithMessagef(ErrBackendUnavailable, "%s: %v", what, err)
	}
	return v, nil
}
