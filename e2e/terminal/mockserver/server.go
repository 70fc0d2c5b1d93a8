// Package mockserver provides a mock terminal bridge for testing.
// It speaks the bridge's JSON request/response protocol over a websocket.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// RetcodeDone is the retcode of an executed deal.
const RetcodeDone = 10009

// Tick is the last bid/ask of a symbol.
type Tick struct {
	Bid float64
	Ask float64
}

// SymbolInfo holds the metadata the bridge reports for a symbol.
type SymbolInfo struct {
	Point  float64
	Digits int
}

// OrderSend is an order_send request as received by the bridge.
type OrderSend struct {
	Action      string          `json:"action"`
	Symbol      string          `json:"symbol"`
	Volume      decimal.Decimal `json:"volume"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	SL          decimal.Decimal `json:"sl"`
	TP          decimal.Decimal `json:"tp"`
	Deviation   int             `json:"deviation"`
	Magic       int64           `json:"magic"`
	Comment     string          `json:"comment"`
	TypeFilling string          `json:"type_filling"`
	TypeTime    string          `json:"type_time"`
	ClientID    string          `json:"client_id"`
}

type request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type response struct {
	ID     string    `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type credentials struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

// ServerConfig holds configuration for the mock bridge.
type ServerConfig struct {
	// Version is reported during the initialize handshake.
	Version string
	// Login, when non-zero, must match the credentials sent by the client.
	Login    int64
	Password string
	Ticks    map[string]Tick
	Symbols  map[string]SymbolInfo
}

// MockTerminalServer provides a mock terminal bridge for testing.
type MockTerminalServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	version  string
	login    int64
	password string
	ticks    map[string]Tick
	symbols  map[string]SymbolInfo

	retcode     int
	comment     string
	orderSeq    int64
	orders      []OrderSend
	calls       map[string]int
	connections map[*websocket.Conn]bool
}

// NewMockTerminalServer creates a new mock terminal bridge.
func NewMockTerminalServer(config ServerConfig) *MockTerminalServer {
	server := &MockTerminalServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		version:     config.Version,
		login:       config.Login,
		password:    config.Password,
		ticks:       make(map[string]Tick),
		symbols:     make(map[string]SymbolInfo),
		retcode:     RetcodeDone,
		comment:     "Request executed",
		orderSeq:    100000,
		calls:       make(map[string]int),
		connections: make(map[*websocket.Conn]bool),
	}

	if server.version == "" {
		server.version = "1.2.0"
	}

	for symbol, tick := range config.Ticks {
		server.ticks[symbol] = tick
	}

	for symbol, info := range config.Symbols {
		server.symbols[symbol] = info
	}

	return server
}

// Start starts the mock server on the given address (":0" for a random port).
func (s *MockTerminalServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/terminal", s.handleWebSocket)
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop closes all bridge connections and shuts the server down.
func (s *MockTerminalServer) Stop() error {
	s.mu.Lock()
	for conn := range s.connections {
		conn.Close()
	}
	s.connections = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockTerminalServer) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// WebSocketURL returns the bridge endpoint.
func (s *MockTerminalServer) WebSocketURL() string {
	return "ws://" + s.Address() + "/terminal"
}

// SetTick sets the last bid/ask for a symbol.
func (s *MockTerminalServer) SetTick(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[symbol] = Tick{Bid: bid, Ask: ask}
}

// SetRetcode makes order_send answer with the given retcode and comment.
func (s *MockTerminalServer) SetRetcode(retcode int, comment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retcode = retcode
	s.comment = comment
}

// Orders returns all order_send requests received so far.
func (s *MockTerminalServer) Orders() []OrderSend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]OrderSend, len(s.orders))
	copy(result, s.orders)
	return result
}

// Calls returns how many times a bridge method was invoked.
func (s *MockTerminalServer) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

// OpenConnections returns the number of connected clients.
func (s *MockTerminalServer) OpenConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *MockTerminalServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.connections[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.connections, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		if err := conn.WriteJSON(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *MockTerminalServer) dispatch(req request) response {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[req.Method]++

	switch req.Method {
	case "initialize":
		var creds credentials
		_ = json.Unmarshal(req.Params, &creds)

		if s.login != 0 && (creds.Login != s.login || creds.Password != s.password) {
			return response{ID: req.ID, Result: map[string]any{
				"ok":      false,
				"message": "Authorization failed",
			}}
		}

		return response{ID: req.ID, Result: map[string]any{
			"ok":       true,
			"version":  s.version,
			"terminal": "MockTerminal 5",
		}}

	case "symbol_info_tick":
		var params symbolParams
		_ = json.Unmarshal(req.Params, &params)

		tick, ok := s.ticks[params.Symbol]
		if !ok {
			return response{ID: req.ID, Result: map[string]any{"tick": nil}}
		}

		return response{ID: req.ID, Result: map[string]any{"tick": map[string]any{
			"bid":  tick.Bid,
			"ask":  tick.Ask,
			"time": time.Now().Unix(),
		}}}

	case "symbol_info":
		var params symbolParams
		_ = json.Unmarshal(req.Params, &params)

		info, ok := s.symbols[params.Symbol]
		if !ok {
			return response{ID: req.ID, Result: map[string]any{"info": nil}}
		}

		return response{ID: req.ID, Result: map[string]any{"info": map[string]any{
			"name":   params.Symbol,
			"point":  info.Point,
			"digits": info.Digits,
		}}}

	case "order_send":
		var order OrderSend
		if err := json.Unmarshal(req.Params, &order); err != nil {
			return response{ID: req.ID, Error: &rpcError{Code: -32602, Message: "invalid params"}}
		}

		s.orders = append(s.orders, order)

		if s.retcode != RetcodeDone {
			return response{ID: req.ID, Result: map[string]any{
				"retcode": s.retcode,
				"comment": s.comment,
			}}
		}

		s.orderSeq++
		price := s.ticks[order.Symbol].Ask
		if order.Type == "sell" {
			price = s.ticks[order.Symbol].Bid
		}

		return response{ID: req.ID, Result: map[string]any{
			"retcode": s.retcode,
			"comment": s.comment,
			"order":   s.orderSeq,
			"price":   price,
		}}

	default:
		return response{ID: req.ID, Error: &rpcError{Code: -32601, Message: "method not found: " + req.Method}}
	}
}
