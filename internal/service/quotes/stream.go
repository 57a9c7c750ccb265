package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Boardroom/internal/domain/repository"
	xlogger "Boardroom/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream keeps a realtime last-price view of the watchlist over a Finnhub
// style trade WebSocket. It is optional: when no API key is configured the
// orchestrator runs on polled snapshots alone.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	metrics repository.Metrics
	logger  *xlogger.Logger

	conn      *websocket.Conn
	connected bool

	mu     sync.RWMutex
	prices map[string]float64
}

func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, metrics repository.Metrics, logger *xlogger.Logger) *Stream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		metrics:        metrics,
		logger:         logger.With("quotes"),
		prices:         make(map[string]float64),
	}
}

// LastPrice returns the most recent streamed price for symbol, if any.
func (s *Stream) LastPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("quotes connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.logger.Info("quote stream connected")
	return nil
}

func (s *Stream) subscribe() error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("quote stream not connected")
	}
	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.logger.Info("subscribed", xlogger.Int("symbols", len(s.symbols)))
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Run drives the connect/subscribe/read cycle until ctx is cancelled,
// reconnecting after the configured delay on any read failure.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			s.logger.Warn("connect failed", xlogger.Error(err))
			s.metrics.RecordError("quote_stream")
		} else if err := s.subscribe(); err != nil {
			s.logger.Warn("subscribe failed", xlogger.Error(err))
			s.metrics.RecordError("quote_stream")
			_ = s.Close()
		} else {
			s.readLoop(ctx)
			_ = s.Close()
		}

		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) {
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pingLoop(pingCtx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("read failed", xlogger.Error(err))
				s.metrics.RecordError("quote_stream")
			}
			return
		}
		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue
		}
		s.mu.Lock()
		for _, d := range m.Data {
			s.prices[d.S] = d.P
			s.metrics.RecordLastPrice(d.S, d.P)
		}
		s.mu.Unlock()
	}
}

func (s *Stream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.conn != nil {
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Close tears down the connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
