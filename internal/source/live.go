package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"item-price-lab/internal/domain"
)

// LiveFeedConfig configures WebSocket feed behavior.
type LiveFeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds each message read.
	ReadTimeout time.Duration
	// WriteTimeout bounds each write.
	WriteTimeout time.Duration
}

// DefaultLiveFeedConfig returns the default feed configuration.
func DefaultLiveFeedConfig() LiveFeedConfig {
	return LiveFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// TradeHandler receives each live trade as it arrives. Handlers run on the
// feed's read goroutine and must not block.
type TradeHandler func(itemKey string, raw domain.RawTrade)

// subscribeRequest is sent once per connection.
type subscribeRequest struct {
	Op     string   `json:"op"`
	Region string   `json:"region"`
	Items  []string `json:"items"`
}

// tradeMessage is one pushed trade event.
type tradeMessage struct {
	Item  string          `json:"item"`
	Trade domain.RawTrade `json:"trade"`
}

// LiveFeed streams trades for a set of items over WebSocket, reconnecting
// with capped backoff and resubscribing after each reconnect.
type LiveFeed struct {
	endpoint string
	region   string
	items    []string
	config   LiveFeedConfig
	handler  TradeHandler
	logger   *zap.Logger
}

// NewLiveFeed creates a live feed. A nil config uses defaults.
func NewLiveFeed(endpoint, region string, items []string, handler TradeHandler, config *LiveFeedConfig, logger *zap.Logger) *LiveFeed {
	cfg := DefaultLiveFeedConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveFeed{
		endpoint: endpoint,
		region:   region,
		items:    items,
		config:   cfg,
		handler:  handler,
		logger:   logger,
	}
}

// Run connects and consumes trade events until ctx is cancelled. Connection
// drops trigger reconnects with exponential backoff; only context
// cancellation ends the loop.
func (f *LiveFeed) Run(ctx context.Context) error {
	delay := f.config.ReconnectDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := f.runConn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("live feed disconnected",
			zap.Error(err), zap.Duration("retry_in", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// runConn handles a single connection: dial, subscribe, read until failure.
func (f *LiveFeed) runConn(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.config.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.endpoint, err)
	}
	defer conn.Close()

	// Close the connection when ctx is cancelled to unblock ReadMessage.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	sub := subscribeRequest{Op: "subscribe", Region: f.region, Items: f.items}
	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.logger.Info("live feed subscribed",
		zap.String("endpoint", f.endpoint), zap.Int("items", len(f.items)))

	go f.pingLoop(connCtx, conn)

	for {
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var msg tradeMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Item == "" {
			// Unknown frames (heartbeats, acks) are skipped, not fatal.
			continue
		}
		f.handler(msg.Item, msg.Trade)
	}
}

func (f *LiveFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(f.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
