// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/co"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/txpool"
)

var logger = log.WithContext("pkg", "miner")

// Options for the miner.
type Options struct {
	ChainID  *big.Int
	Env      Environment
	Automine bool
	Interval time.Duration
	Clock    func() time.Time // defaults to time.Now
}

// Miner assembles pending transactions into blocks.
//
// Mining methods must be called with the node mutation lock held.
// The interval loop takes the lock itself.
type Miner struct {
	store   *state.Store
	pool    *txpool.TxPool
	repo    *chain.Repository
	exec    executor.Executor
	locker  sync.Locker
	chainID *big.Int
	clock   func() time.Time

	mu       sync.Mutex
	env      Environment
	automine bool
	interval time.Duration
	cancel   context.CancelFunc
	goes     co.Goes
}

// New creates a miner. locker is the lock the interval loop mines under.
func New(store *state.Store, pool *txpool.TxPool, repo *chain.Repository, exec executor.Executor, locker sync.Locker, opts Options) *Miner {
	m := &Miner{
		store:    store,
		pool:     pool,
		repo:     repo,
		exec:     exec,
		locker:   locker,
		chainID:  opts.ChainID,
		clock:    opts.Clock,
		env:      opts.Env.copy(),
		automine: opts.Automine,
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	m.SetInterval(opts.Interval)
	return m
}

// Environment returns a copy of the mining environment.
func (m *Miner) Environment() Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env.copy()
}

// SetEnvironment replaces the mining environment.
func (m *Miner) SetEnvironment(env Environment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env = env.copy()
}

func (m *Miner) update(f func(*Environment)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.env)
}

func (m *Miner) SetCoinbase(addr common.Address) { m.update(func(e *Environment) { e.Coinbase = addr }) }
func (m *Miner) SetGasLimit(limit uint64)        { m.update(func(e *Environment) { e.GasLimit = limit }) }

// SetBaseFee sets the base fee of the next blocks.
func (m *Miner) SetBaseFee(fee *big.Int) {
	m.update(func(e *Environment) { e.BaseFee = new(big.Int).Set(fee) })
}

// SetNextTimestamp fixes the timestamp of the next block.
func (m *Miner) SetNextTimestamp(ts uint64) error {
	if ts <= m.repo.Head().Time() {
		return errors.WithMessagef(ErrTimestampTooLow, "have %d, latest %d", ts, m.repo.Head().Time())
	}
	m.update(func(e *Environment) { e.NextTimestamp = &ts })
	return nil
}

// IncreaseTime moves the clock forward and returns the total offset in seconds.
func (m *Miner) IncreaseTime(seconds int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env.TimeOffset += seconds
	return m.env.TimeOffset
}

// SetAutomine toggles mining a block on every accepted transaction.
func (m *Miner) SetAutomine(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.automine = enabled
}

func (m *Miner) Automine() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.automine
}

func (m *Miner) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetInterval starts mining a block every d, zero stops interval mining.
// It does not wait for a running loop to exit, so it's safe to call under the mutation lock.
func (m *Miner) SetInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.interval = d
	if d <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.goes.Go(func() { m.loop(ctx, d) })
}

func (m *Miner) loop(ctx context.Context, d time.Duration) {
	logger.Info("interval mining started", "interval", d)
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping interval mining......")
			return
		case <-ticker.C:
			m.locker.Lock()
			if ctx.Err() == nil {
				if _, err := m.MineOne(ctx); err != nil {
					logger.Error("failed to mine block", "err", err)
				}
			}
			m.locker.Unlock()
		}
	}
}

// Close stops interval mining and waits for the loop to exit.
// It must not be called with the mutation lock held.
func (m *Miner) Close() {
	m.SetInterval(0)
	m.goes.Wait()
}

// Mine mines n blocks. A non-zero interval spaces their timestamps by interval seconds.
func (m *Miner) Mine(ctx context.Context, n uint64, interval uint64) ([]*block.Block, error) {
	blocks := make([]*block.Block, 0, n)
	for i := uint64(0); i < n; i++ {
		if i > 0 && interval > 0 {
			ts := m.repo.Head().Time() + interval
			m.update(func(e *Environment) { e.NextTimestamp = &ts })
		}
		b, err := m.MineOne(ctx)
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// MineOne mines a block with the executable transactions of the pool.
// Nothing is changed when it fails.
func (m *Miner) MineOne(ctx context.Context) (*block.Block, error) {
	startTime := time.Now()
	parent := m.repo.Head()
	env := m.Environment()

	blockEnv := executor.Env{
		Number:   parent.Number() + 1,
		Time:     m.timestamp(parent, env),
		Coinbase: env.Coinbase,
		GasLimit: env.GasLimit,
		BaseFee:  env.BaseFee,
		ChainID:  m.chainID,
	}

	base := m.store.Latest()
	it, err := m.pool.Pending(ctx, base, env.BaseFee)
	if err != nil {
		return nil, err
	}

	flow := newFlow(parent, blockEnv, m.exec, base)
	skipped := 0
	for t := it.Peek(); t != nil; t = it.Peek() {
		err := flow.Adopt(ctx, t)
		switch {
		case err == nil:
			it.Shift()
		case errors.Is(err, errGasLimitReached), executor.IsValidationError(err):
			logger.Debug("tx skipped", "hash", t.Hash(), "err", err)
			skipped++
			it.Pop()
		default:
			return nil, err
		}
	}

	cp := m.store.Checkpoint()
	newBlock, err := m.commit(ctx, flow, blockEnv.Number)
	if err != nil {
		if rerr := m.store.RevertTo(cp); rerr != nil {
			logger.Error("failed to revert state", "err", rerr)
		}
		return nil, err
	}

	hashes := make([]common.Hash, 0, len(flow.txs))
	for _, t := range flow.txs {
		hashes = append(hashes, t.Hash())
	}
	m.pool.Remove(hashes...)
	if skipped > 0 {
		if _, err := m.pool.Revalidate(ctx, m.store.Latest()); err != nil {
			logger.Warn("failed to revalidate pool", "err", err)
		}
	}
	m.update(func(e *Environment) { e.NextTimestamp = nil })

	metricBlocksMined().Add(1)
	for _, r := range newBlock.Receipts() {
		status := "success"
		if r.Status == 0 {
			status = "failed"
		}
		metricTxsMined().AddWithLabel(1, map[string]string{"status": status})
	}
	metricTxsSkipped().Add(int64(skipped))
	metricMineDuration().Observe(time.Since(startTime).Milliseconds())

	logger.Info("📦 new block mined",
		"number", newBlock.Number(),
		"txs", len(flow.txs),
		"gasUsed", newBlock.GasUsed(),
		"hash", newBlock.Hash(),
	)
	return newBlock, nil
}

func (m *Miner) commit(ctx context.Context, flow *Flow, number uint64) (*block.Block, error) {
	if _, err := m.store.Commit(flow.Changes(), number); err != nil {
		return nil, err
	}
	view, err := m.store.At(number)
	if err != nil {
		return nil, err
	}
	root, err := view.Root(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "state root")
	}
	newBlock := flow.Pack(root)
	if err := m.repo.Append(newBlock); err != nil {
		return nil, err
	}
	return newBlock, nil
}

// timestamp returns the timestamp of the block after parent, always above the parent's.
func (m *Miner) timestamp(parent *block.Block, env Environment) uint64 {
	if env.NextTimestamp != nil && *env.NextTimestamp > parent.Time() {
		return *env.NextTimestamp
	}
	now := m.clock().Unix() + env.TimeOffset
	if now <= int64(parent.Time()) {
		return parent.Time() + 1
	}
	return uint64(now)
}
