// Package mockserver provides a mock Binance REST server for testing.
// It implements the spot endpoints used to quote and bracket a single order.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusNew     OrderStatus = "NEW"
	OrderStatusFilled  OrderStatus = "FILLED"
	OrderStatusExpired OrderStatus = "EXPIRED"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// BookTicker is the best bid/ask of a symbol.
type BookTicker struct {
	Bid float64
	Ask float64
}

// Order is an entry order as received by the server.
type Order struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          string
	TimeInForce   string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Status        OrderStatus
	ExecutedQty   decimal.Decimal
	CummulateQty  decimal.Decimal
	CreatedAt     time.Time
}

// OCOOrder is an exit bracket as received by the server.
type OCOOrder struct {
	OrderListID       int64
	ListClientOrderID string
	Symbol            string
	Side              OrderSide
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	StopPrice         decimal.Decimal
	StopLimitPrice    decimal.Decimal
}

// APIError is the error body Binance returns with a 4xx status.
type APIError struct {
	Code    int64  `json:"code"`
	Message string `json:"msg"`
}

// ServerConfig holds the initial market state.
type ServerConfig struct {
	Tickers   map[string]BookTicker
	TickSizes map[string]string
}

// MockBinanceServer provides a mock Binance server for testing.
type MockBinanceServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	tickers     map[string]BookTicker
	tickSizes   map[string]string
	orders      []*Order
	ocoOrders   []*OCOOrder
	orderIDSeq  int64
	orderListID int64

	orderError *APIError
	ocoError   *APIError
}

// NewMockBinanceServer creates a server with the given market state.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	s := &MockBinanceServer{
		tickers:    make(map[string]BookTicker),
		tickSizes:  make(map[string]string),
		orderIDSeq: 1000,
	}

	for symbol, ticker := range config.Tickers {
		s.tickers[symbol] = ticker
	}

	for symbol, tick := range config.TickSizes {
		s.tickSizes[symbol] = tick
	}

	return s
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()

	router.HandleFunc("/api/v3/ping", s.handlePing).Methods("GET")
	router.HandleFunc("/api/v3/ticker/bookTicker", s.handleBookTicker).Methods("GET")
	router.HandleFunc("/api/v3/exchangeInfo", s.handleExchangeInfo).Methods("GET")
	router.HandleFunc("/api/v3/order", s.handleCreateOrder).Methods("POST")
	router.HandleFunc("/api/v3/order/oco", s.handleCreateOCO).Methods("POST")
	router.HandleFunc("/api/v3/orderList/oco", s.handleCreateOCO).Methods("POST")

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

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockBinanceServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	return "http://" + s.Address()
}

// SetTicker sets the best bid/ask for a symbol.
func (s *MockBinanceServer) SetTicker(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers[symbol] = BookTicker{Bid: bid, Ask: ask}
}

// RejectOrders makes every entry order fail with the given API error. A zero code clears it.
func (s *MockBinanceServer) RejectOrders(code int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderError = apiError(code, message)
}

// RejectOCO makes every exit bracket fail with the given API error. A zero code clears it.
func (s *MockBinanceServer) RejectOCO(code int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ocoError = apiError(code, message)
}

// Orders returns the entry orders received so far.
func (s *MockBinanceServer) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, *order)
	}

	return orders
}

// OCOOrders returns the exit brackets received so far.
func (s *MockBinanceServer) OCOOrders() []OCOOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]OCOOrder, 0, len(s.ocoOrders))
	for _, order := range s.ocoOrders {
		orders = append(orders, *order)
	}

	return orders
}

func apiError(code int64, message string) *APIError {
	if code == 0 {
		return nil
	}

	return &APIError{Code: code, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handlePing handles GET /api/v3/ping
func (s *MockBinanceServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{})
}

// handleBookTicker handles GET /api/v3/ticker/bookTicker
func (s *MockBinanceServer) handleBookTicker(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbol := r.URL.Query().Get("symbol")

	ticker, ok := s.tickers[symbol]
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1121, Message: "Invalid symbol."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"bidPrice": decimal.NewFromFloat(ticker.Bid).StringFixed(8),
		"bidQty":   "10.00000000",
		"askPrice": decimal.NewFromFloat(ticker.Ask).StringFixed(8),
		"askQty":   "10.00000000",
	})
}

// handleExchangeInfo handles GET /api/v3/exchangeInfo
func (s *MockBinanceServer) handleExchangeInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbol := r.URL.Query().Get("symbol")

	tickSize, ok := s.tickSizes[symbol]
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1121, Message: "Invalid symbol."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timezone":   "UTC",
		"serverTime": time.Now().UnixMilli(),
		"symbols": []map[string]any{
			{
				"symbol":     symbol,
				"status":     "TRADING",
				"baseAsset":  symbol[:len(symbol)/2],
				"quoteAsset": symbol[len(symbol)/2:],
				"filters": []map[string]any{
					{
						"filterType": "PRICE_FILTER",
						"minPrice":   tickSize,
						"maxPrice":   "1000000.00000000",
						"tickSize":   tickSize,
					},
				},
			},
		},
	})
}

// handleCreateOrder handles POST /api/v3/order
// LIMIT IOC orders fill at the touch when the limit crosses it and expire otherwise.
func (s *MockBinanceServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1102, Message: "Failed to parse form"})
		return
	}

	symbol := r.FormValue("symbol")
	side := OrderSide(r.FormValue("side"))

	quantity, err := decimal.NewFromString(r.FormValue("quantity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1100, Message: "Illegal characters found in parameter 'quantity'"})
		return
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1100, Message: "Illegal characters found in parameter 'price'"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orderError != nil {
		writeJSON(w, http.StatusBadRequest, s.orderError)
		return
	}

	ticker, ok := s.tickers[symbol]
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1121, Message: "Invalid symbol."})
		return
	}

	s.orderIDSeq++
	order := &Order{
		OrderID:       s.orderIDSeq,
		ClientOrderID: r.FormValue("newClientOrderId"),
		Symbol:        symbol,
		Side:          side,
		Type:          r.FormValue("type"),
		TimeInForce:   r.FormValue("timeInForce"),
		Quantity:      quantity,
		Price:         price,
		Status:        OrderStatusExpired,
		ExecutedQty:   decimal.Zero,
		CummulateQty:  decimal.Zero,
		CreatedAt:     time.Now(),
	}

	if order.ClientOrderID == "" {
		order.ClientOrderID = uuid.New().String()
	}

	touch := decimal.NewFromFloat(ticker.Ask)
	crosses := price.GreaterThanOrEqual(touch)

	if side == OrderSideSell {
		touch = decimal.NewFromFloat(ticker.Bid)
		crosses = price.LessThanOrEqual(touch)
	}

	if crosses {
		order.Status = OrderStatusFilled
		order.ExecutedQty = quantity
		order.CummulateQty = quantity.Mul(touch)
	}

	s.orders = append(s.orders, order)

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":              symbol,
		"orderId":             order.OrderID,
		"orderListId":         -1,
		"clientOrderId":       order.ClientOrderID,
		"transactTime":        order.CreatedAt.UnixMilli(),
		"price":               price.StringFixed(8),
		"origQty":             quantity.StringFixed(8),
		"executedQty":         order.ExecutedQty.StringFixed(8),
		"cummulativeQuoteQty": order.CummulateQty.StringFixed(8),
		"status":              string(order.Status),
		"timeInForce":         order.TimeInForce,
		"type":                order.Type,
		"side":                string(side),
	})
}

// handleCreateOCO handles POST /api/v3/order/oco
func (s *MockBinanceServer) handleCreateOCO(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: -1102, Message: "Failed to parse form"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ocoError != nil {
		writeJSON(w, http.StatusBadRequest, s.ocoError)
		return
	}

	s.orderListID++
	order := &OCOOrder{
		OrderListID:       s.orderListID,
		ListClientOrderID: r.FormValue("listClientOrderId"),
		Symbol:            r.FormValue("symbol"),
		Side:              OrderSide(r.FormValue("side")),
		Quantity:          formDecimal(r, "quantity"),
		Price:             formDecimal(r, "price"),
		StopPrice:         formDecimal(r, "stopPrice"),
		StopLimitPrice:    formDecimal(r, "stopLimitPrice"),
	}
	s.ocoOrders = append(s.ocoOrders, order)

	writeJSON(w, http.StatusOK, map[string]any{
		"orderListId":       order.OrderListID,
		"contingencyType":   "OCO",
		"listStatusType":    "EXEC_STARTED",
		"listOrderStatus":   "EXECUTING",
		"listClientOrderId": order.ListClientOrderID,
		"transactionTime":   time.Now().UnixMilli(),
		"symbol":            order.Symbol,
		"orders":            []map[string]any{},
		"orderReports":      []map[string]any{},
	})
}

func formDecimal(r *http.Request, key string) decimal.Decimal {
	value, err := decimal.NewFromString(r.FormValue(key))
	if err != nil {
		return decimal.Zero
	}

	return value
}
