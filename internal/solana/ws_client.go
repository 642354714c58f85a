package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrClientClosed is returned by a closed websocket client.
var ErrClientClosed = errors.New("websocket client closed")

// notificationBuffer is the per-subscription buffer. Notifications beyond it
// are dropped; consumers only need to know that activity happened.
const notificationBuffer = 16

// WSConfig configures WSClient behavior.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval between ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds a single read.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// Commitment is the commitment level requested for notifications.
	Commitment string
}

// DefaultWSConfig returns the default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
		Commitment:        "confirmed",
	}
}

// WSEndpoint derives the websocket URL from an HTTP JSON-RPC URL
// (https to wss, http to ws), keeping path and query.
func WSEndpoint(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", fmt.Errorf("parse rpc url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// WSClient implements LogsSubscriber over a single gorilla/websocket
// connection. It reconnects with exponential backoff and resubscribes every
// live subscription.
type WSClient struct {
	endpoint string
	config   WSConfig
	logger   zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	closed       atomic.Bool
	reconnecting atomic.Bool
	requestID    atomic.Uint64

	mu      sync.Mutex
	subs    map[int64]*logSubscription
	pending map[uint64]chan subscribeResult

	done chan struct{}
	wg   sync.WaitGroup
}

type logSubscription struct {
	address string
	ch      chan LogNotification
}

type subscribeResult struct {
	id  int64
	err error
}

// NewWSClient connects to endpoint. A nil config uses DefaultWSConfig.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig, logger zerolog.Logger) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With().Str("component", "solana_ws").Logger(),
		subs:     make(map[int64]*logSubscription),
		pending:  make(map[uint64]chan subscribeResult),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	return nil
}

// SubscribeLogs subscribes to transactions mentioning address.
func (c *WSClient) SubscribeLogs(ctx context.Context, address string) (<-chan LogNotification, error) {
	id, err := c.subscribe(ctx, address)
	if err != nil {
		return nil, err
	}

	sub := &logSubscription{address: address, ch: make(chan LogNotification, notificationBuffer)}
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.subs[id] = sub
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			c.unsubscribe(sub)
		case <-c.done:
		}
	}()

	return sub.ch, nil
}

// subscribe sends logsSubscribe and waits for the subscription id.
func (c *WSClient) subscribe(ctx context.Context, address string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}

	reqID := c.requestID.Add(1)
	confirm := make(chan subscribeResult, 1)
	c.mu.Lock()
	c.pending[reqID] = confirm
	c.mu.Unlock()

	abandon := func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string][]string{"mentions": {address}},
			map[string]string{"commitment": c.config.Commitment},
		},
	}
	if err := c.write(req); err != nil {
		abandon()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case res, ok := <-confirm:
		if !ok {
			return 0, ErrClientClosed
		}
		return res.id, res.err
	case <-timer.C:
		abandon()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		abandon()
		return 0, ctx.Err()
	}
}

// unsubscribe drops sub, closes its channel and tells the server.
func (c *WSClient) unsubscribe(sub *logSubscription) {
	c.mu.Lock()
	var (
		id    int64
		found bool
	)
	for sid, s := range c.subs {
		if s == sub {
			id, found = sid, true
			delete(c.subs, sid)
			close(s.ch)
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "logsUnsubscribe",
		Params:  []interface{}{id},
	}
	if err := c.write(req); err != nil {
		c.logger.Debug().Err(err).Int64("subscription", id).Msg("unsubscribe failed")
	}
}

func (c *WSClient) write(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return errors.New("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// Close closes the connection and every subscription channel.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.mu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and triggers a reconnect whenever the connection
// is broken or missing.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay
	var failed *websocket.Conn
	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil || conn == failed {
			if conn == nil && !c.reconnecting.Swap(true) {
				go c.reconnect(nil, delay)
				delay = c.nextDelay(delay)
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			failed = conn
			if !c.reconnecting.Swap(true) {
				c.logger.Warn().Err(err).Dur("delay", delay).Msg("websocket read failed, reconnecting")
				go c.reconnect(conn, delay)
				delay = c.nextDelay(delay)
			}
			continue
		}

		delay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

func (c *WSClient) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > c.config.MaxReconnectDelay {
		d = c.config.MaxReconnectDelay
	}
	return d
}

// reconnect replaces the broken connection and resubscribes.
func (c *WSClient) reconnect(broken *websocket.Conn, delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if broken != nil && c.conn == broken {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("websocket reconnect failed")
		return
	}
	c.resubscribeAll()
}

// resubscribeAll renews every live subscription on the new connection.
func (c *WSClient) resubscribeAll() {
	c.mu.Lock()
	subs := make(map[int64]*logSubscription, len(c.subs))
	for id, sub := range c.subs {
		subs[id] = sub
	}
	c.mu.Unlock()

	for oldID, sub := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		newID, err := c.subscribe(ctx, sub.address)
		cancel()
		if err != nil {
			c.logger.Warn().Err(err).Str("address", sub.address).Msg("resubscribe failed")
			continue
		}

		c.mu.Lock()
		if c.subs[oldID] == sub {
			delete(c.subs, oldID)
			c.subs[newID] = sub
		}
		c.mu.Unlock()
	}
}

// handleMessage routes subscription confirmations, errors and notifications.
func (c *WSClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug().Err(err).Msg("undecodable websocket message")
		return
	}

	if msg.Method == "logsNotification" {
		if msg.Params != nil {
			c.dispatch(msg.Params)
		}
		return
	}
	if msg.ID == nil {
		return
	}

	c.mu.Lock()
	confirm, ok := c.pending[*msg.ID]
	if ok {
		delete(c.pending, *msg.ID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	var res subscribeResult
	if msg.Error != nil {
		res.err = msg.Error
	} else if err := json.Unmarshal(msg.Result, &res.id); err != nil {
		res.err = fmt.Errorf("decode subscription id: %w", err)
	}
	confirm <- res
}

// dispatch delivers a notification without blocking the read loop.
func (c *WSClient) dispatch(p *wsNotificationParams) {
	n := LogNotification{
		Signature: p.Result.Value.Signature,
		Failed:    p.Result.Value.Err != nil,
	}
	if p.Result.Context != nil {
		n.Slot = p.Result.Context.Slot
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[p.Subscription]
	if !ok {
		return
	}
	select {
	case sub.ch <- n:
	default:
	}
}

// pingLoop keeps the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				// a dead connection surfaces as a read error
				c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			}
			c.connMu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id"`
	Method  string                `json:"method"`
	Result  json.RawMessage       `json:"result"`
	Error   *rpcError             `json:"error"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context *struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

var _ LogsSubscriber = (*WSClient)(nil)
