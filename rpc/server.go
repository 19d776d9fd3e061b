// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rpc serves the node over Ethereum JSON-RPC on HTTP and WebSocket.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/node"
)

const (
	maxRequestSize        = 5 * 1024 * 1024
	defaultBlockCacheSize = 256
)

var logger = log.WithContext("pkg", "rpc")

// Kind tells how a method is scheduled.
type Kind int

const (
	// Read methods run concurrently with each other.
	Read Kind = iota
	// Mutate methods run under the node mutation lock.
	Mutate
)

type handlerFunc func(ctx context.Context, a args) (any, error)

type method struct {
	name   string
	kind   Kind
	params []param
	handle handlerFunc
}

// Options for the server.
type Options struct {
	// AllowedOrigins is a comma separated list of origins, "*" allows all.
	AllowedOrigins  string
	EnableReqLogger bool
	// Timeout bounds a single call, zero means no bound.
	Timeout        time.Duration
	BlockCacheSize int
}

// Server dispatches JSON-RPC requests to a node.
type Server struct {
	node     *node.Node
	opts     Options
	origins  []string
	methods  map[string]*method
	blocks   *lru.Cache
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*wsConn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates a server for n.
func New(n *node.Node, opts Options) *Server {
	if opts.AllowedOrigins == "" {
		opts.AllowedOrigins = "*"
	}
	if opts.BlockCacheSize <= 0 {
		opts.BlockCacheSize = defaultBlockCacheSize
	}
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	blocks, err := lru.New(opts.BlockCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size
		panic(err)
	}

	s := &Server{
		node:    n,
		opts:    opts,
		origins: origins,
		methods: make(map[string]*method),
		blocks:  blocks,
		conns:   make(map[*wsConn]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.registerMethods()
	return s
}

func (s *Server) register(kind Kind, params []param, handle handlerFunc, names ...string) {
	for _, name := range names {
		s.methods[name] = &method{name: name, kind: kind, params: params, handle: handle}
	}
}

// Handler returns the http handler serving POST requests and WebSocket upgrades on "/".
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Path("/").
		Methods(http.MethodGet).
		HeadersRegexp("Upgrade", "(?i)^websocket$").
		HandlerFunc(s.serveWS)
	router.Path("/").
		Methods(http.MethodPost).
		Handler(handlers.CompressHandler(http.HandlerFunc(s.serveHTTP)))

	var handler http.Handler = handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(router)

	if s.opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler
}

// Close disconnects all WebSocket clients and waits for them.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		c.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.ToLower(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	if len(body) > maxRequestSize {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if reply := s.handleMessage(r.Context(), body); reply != nil {
		if _, err := w.Write(reply); err != nil {
			logger.Debug("failed to write response", "err", err)
		}
	}
}

type request struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

var nullID = json.RawMessage("null")

func errorResponse(id json.RawMessage, err *Error) *response {
	if len(id) == 0 {
		id = nullID
	}
	return &response{Version: "2.0", ID: id, Error: err}
}

// handleMessage handles a single request or a batch, nil means nothing to reply.
func (s *Server) handleMessage(ctx context.Context, raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return mustMarshal(errorResponse(nil, &Error{Code: CodeParseError, Message: "parse error"}))
	}

	if len(raw) > 0 && raw[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(raw, &batch); err != nil {
			return mustMarshal(errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "invalid batch"}))
		}
		if len(batch) == 0 {
			return mustMarshal(errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "empty batch"}))
		}
		replies := make([]*response, 0, len(batch))
		for _, msg := range batch {
			if resp := s.handleOne(ctx, msg); resp != nil {
				replies = append(replies, resp)
			}
		}
		if len(replies) == 0 {
			return nil
		}
		return mustMarshal(replies)
	}

	if resp := s.handleOne(ctx, raw); resp != nil {
		return mustMarshal(resp)
	}
	return nil
}

func (s *Server) handleOne(ctx context.Context, raw json.RawMessage) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "invalid request"})
	}
	if req.Version != "2.0" || req.Method == "" {
		return errorResponse(req.ID, &Error{Code: CodeInvalidRequest, Message: "invalid request"})
	}

	resp := s.call(ctx, &req)
	if len(req.ID) == 0 {
		// notification
		return nil
	}
	return resp
}

func (s *Server) call(ctx context.Context, req *request) *response {
	start := time.Now()
	resp := &response{Version: "2.0", ID: req.ID}
	if len(resp.ID) == 0 {
		resp.ID = nullID
	}

	m, ok := s.methods[req.Method]
	if !ok {
		resp.Error = &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("the method %s does not exist/is not available", req.Method)}
		metricCalls().AddWithLabel(1, map[string]string{"method": "unknown", "code": strconv.Itoa(CodeMethodNotFound)})
		return resp
	}

	a, perr := decodeParams(m.params, req.Params)
	if perr != nil {
		resp.Error = perr
	} else if result, err := s.invoke(ctx, m, a); err != nil {
		resp.Error = toError(err)
	} else if resp.Result, err = json.Marshal(result); err != nil {
		resp.Error = &Error{Code: CodeInternal, Message: "failed to encode result: " + err.Error()}
	}

	code := 0
	if resp.Error != nil {
		code = resp.Error.Code
		resp.Result = nil
		logger.Debug("call failed", "method", m.name, "code", code, "err", resp.Error.Message)
	}
	metricCalls().AddWithLabel(1, map[string]string{"method": m.name, "code": strconv.Itoa(code)})
	metricCallDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"method": m.name})
	return resp
}

// invoke runs a handler, under the mutation lock for Mutate methods.
// A panic is reported as an internal error.
func (s *Server) invoke(ctx context.Context, m *method, a args) (result any, err error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "method", m.name, "panic", r, "stack", string(debug.Stack()))
			result, err = nil, &Error{Code: CodeInternal, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	if m.kind == Mutate {
		err = s.node.Exclusive(func() (err error) {
			result, err = m.handle(ctx, a)
			return
		})
		return result, err
	}
	return m.handle(ctx, a)
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
