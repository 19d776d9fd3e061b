// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node composes the components of a development node behind one mutation lock.
package node

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/accounts"
	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/co"
	"github.com/vechain/devnode/executor"
	"github.com/vechain/devnode/fork"
	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/tx"
	"github.com/vechain/devnode/txpool"
)

var logger = log.WithContext("pkg", "node")

// Option customizes a node.
type Option func(*Node)

// WithExecutor replaces the built-in transfer executor.
func WithExecutor(exec executor.Executor) Option {
	return func(n *Node) { n.exec = exec }
}

// WithSigner replaces the development key signer.
func WithSigner(signer accounts.Signer) Option {
	return func(n *Node) { n.signer = signer }
}

// WithRemote forks through remote instead of dialing the fork url.
func WithRemote(remote fork.Remote) Option {
	return func(n *Node) { n.remote = remote }
}

// WithClock sets the wall clock used for block timestamps.
func WithClock(clock func() time.Time) Option {
	return func(n *Node) { n.clock = clock }
}

// Node is the state and execution backend of a development node.
//
// Read methods may be called concurrently. Methods documented as mutations
// must run inside Exclusive, which serializes them with each other and with
// interval mining.
type Node struct {
	instanceID string
	exec       executor.Executor
	signer     accounts.Signer
	registry   *accounts.Registry
	remote     fork.Remote
	clock      func() time.Time

	lock     sync.Mutex
	backend  atomic.Pointer[backend]
	gasPrice atomic.Pointer[big.Int]

	headFeed event.Feed
	txFeed   event.Feed
	scope    event.SubscriptionScope
	goes     co.Goes
}

// New creates a node, forking the configured remote chain if any.
func New(ctx context.Context, config Config, opts ...Option) (*Node, error) {
	n := &Node{
		instanceID: uuid.New(),
		exec:       executor.Transfer{},
		registry:   accounts.NewRegistry(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.signer == nil {
		signer, err := accounts.NewDevSigner(config.Mnemonic, config.Accounts)
		if err != nil {
			return nil, errors.WithMessage(err, "dev accounts")
		}
		n.signer = signer
	}
	n.gasPrice.Store(new(big.Int).SetUint64(config.GasPrice))

	b, err := n.newBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	n.install(b)
	return n, nil
}

// Exclusive runs f under the mutation lock.
func (n *Node) Exclusive(f func() error) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	return f()
}

// Close stops mining and releases the fork backend.
func (n *Node) Close() {
	n.lock.Lock()
	b := n.backend.Swap(nil)
	n.lock.Unlock()
	if b != nil {
		b.close()
	}
	n.goes.Wait()
	n.scope.Close()
}

func (n *Node) current() *backend {
	return n.backend.Load()
}

// install makes b the current backend and relays its events to node subscribers.
func (n *Node) install(b *backend) *backend {
	heads := make(chan *block.Block, 16)
	txs := make(chan *txpool.TxEvent, 16)
	headSub := b.repo.SubscribeNewHead(heads)
	txSub := b.pool.SubscribeTxEvent(txs)
	n.goes.Go(func() {
		defer headSub.Unsubscribe()
		defer txSub.Unsubscribe()
		for {
			select {
			case h := <-heads:
				n.headFeed.Send(h)
			case ev := <-txs:
				n.txFeed.Send(ev.Tx)
			case <-headSub.Err():
				return
			case <-txSub.Err():
				return
			}
		}
	})
	return n.backend.Swap(b)
}

// ResetArgs selects the chain built by Reset.
type ResetArgs struct {
	// Forking forks a remote chain. An empty URL reuses the current fork URL
	// and a nil block number pins the remote head. A nil Forking resets to a
	// fresh local chain.
	Forking *fork.Config
}

// resetConfig derives the config of the chain built by Reset.
func resetConfig(config Config, args *ResetArgs) (Config, error) {
	if args == nil {
		return config, nil
	}
	if args.Forking == nil {
		config.Fork = nil
		return config, nil
	}
	var merged fork.Config
	if config.Fork != nil {
		merged = *config.Fork
	}
	if args.Forking.URL != "" {
		merged.URL = args.Forking.URL
	}
	if merged.URL == "" {
		return Config{}, errors.WithMessage(ErrInvalidArgs, "no fork url")
	}
	merged.BlockNumber = args.Forking.BlockNumber
	config.Fork = &merged
	return config, nil
}

// Reset replaces the whole chain with a fresh one described by args.
// A nil args keeps the current settings. Nothing changes if the new chain
// cannot be created. This is a mutation.
func (n *Node) Reset(ctx context.Context, args *ResetArgs) error {
	config, err := resetConfig(n.current().config, args)
	if err != nil {
		return err
	}

	b, err := n.newBackend(ctx, config)
	if err != nil {
		return err
	}
	old := n.install(b)
	if old != nil {
		// the old interval loop may be waiting for the mutation lock
		old.miner.SetInterval(0)
		n.goes.Go(old.close)
	}
	logger.Info("node reset", "forking", config.forking(), "head", b.repo.Head().Number())
	return nil
}

// ClientVersion returns the client version string.
func (n *Node) ClientVersion() string {
	return fmt.Sprintf("devnode/v%s", n.current().config.Version)
}

// ChainID returns the chain id.
func (n *Node) ChainID() *big.Int {
	return new(big.Int).Set(n.current().chainID)
}

// SubscribeNewHeads receives every mined block.
func (n *Node) SubscribeNewHeads(ch chan<- *block.Block) event.Subscription {
	return n.scope.Track(n.headFeed.Subscribe(ch))
}

// SubscribeNewTxs receives every transaction added to the pool.
func (n *Node) SubscribeNewTxs(ch chan<- *tx.Transaction) event.Subscription {
	return n.scope.Track(n.txFeed.Subscribe(ch))
}
