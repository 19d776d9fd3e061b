// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rpc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/co"
	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/tx"
)

const (
	writeTimeout   = 10 * time.Second
	subChannelSize = 64
)

type connKey struct{}

// wsConn is a WebSocket client. Requests on one connection are handled
// concurrently, replies may arrive out of order.
type wsConn struct {
	server *Server
	conn   *websocket.Conn
	log    log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]event.Subscription
	goes co.Goes
}

func connFrom(ctx context.Context) *wsConn {
	c, _ := ctx.Value(connKey{}).(*wsConn)
	return c
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConn{
		server: s,
		conn:   conn,
		log:    logger.New("conn", uuid.New()),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]event.Subscription),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		conn.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
	metricWSConns().Add(1)

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		metricWSConns().Add(-1)
		s.wg.Done()
	}()

	c.log.Debug("websocket connected", "remote", r.RemoteAddr)
	c.serve()
	c.log.Debug("websocket disconnected")
}

func (c *wsConn) serve() {
	defer c.close()

	c.conn.SetReadLimit(maxRequestSize)
	ctx := context.WithValue(c.ctx, connKey{}, c)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read failed", "err", err)
			}
			return
		}
		c.goes.Go(func() {
			if reply := c.server.handleMessage(ctx, msg); reply != nil {
				c.write(reply)
			}
		})
	}
}

func (c *wsConn) close() {
	c.cancel()
	c.mu.Lock()
	for id, sub := range c.subs {
		sub.Unsubscribe()
		delete(c.subs, id)
	}
	c.mu.Unlock()
	c.conn.Close()
	c.goes.Wait()
}

func (c *wsConn) write(msg []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.log.Debug("websocket write failed", "err", err)
		c.conn.Close()
	}
}

type notification struct {
	Version string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  notificationParams `json:"params"`
}

type notificationParams struct {
	Subscription string `json:"subscription"`
	Result       any    `json:"result"`
}

func (c *wsConn) notify(id string, result any) {
	c.write(mustMarshal(&notification{
		Version: "2.0",
		Method:  "eth_subscription",
		Params:  notificationParams{Subscription: id, Result: result},
	}))
}

// subscribe starts a subscription and returns its id.
func (c *wsConn) subscribe(kind string) (string, error) {
	id := hexutil.Encode(uuid.NewRandom())
	n := c.server.node

	switch kind {
	case "newHeads":
		ch := make(chan *block.Block, subChannelSize)
		sub := n.SubscribeNewHeads(ch)
		c.track(id, sub)
		c.goes.Go(func() {
			forward(c, id, sub, ch, func(b *block.Block) any { return b.Header() })
		})
	case "newPendingTransactions":
		ch := make(chan *tx.Transaction, subChannelSize)
		sub := n.SubscribeNewTxs(ch)
		c.track(id, sub)
		c.goes.Go(func() {
			forward(c, id, sub, ch, func(t *tx.Transaction) any { return t.Hash() })
		})
	default:
		return "", invalidParams("unsupported subscription type %q", kind)
	}
	c.log.Debug("subscribed", "kind", kind, "id", id)
	return id, nil
}

func (c *wsConn) track(id string, sub event.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[id] = sub
}

// unsubscribe stops a subscription, it returns false for unknown ids.
func (c *wsConn) unsubscribe(id string) bool {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		sub.Unsubscribe()
	}
	return ok
}

func forward[T any](c *wsConn, id string, sub event.Subscription, ch <-chan T, render func(T) any) {
	for {
		select {
		case v := <-ch:
			c.notify(id, render(v))
		case <-sub.Err():
			return
		case <-c.ctx.Done():
			return
		}
	}
}
