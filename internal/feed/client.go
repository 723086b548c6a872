// Package feed maintains the live price stream connection: one duplex
// socket, at most one active symbol subscription, automatic reconnect
// after unclean closes.
package feed

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tradevision/internal/model"
)

// Connection states. The cycle is
// DISCONNECTED -> CONNECTING -> OPEN -> DISCONNECTED; socket errors are
// surfaced to the caller without changing state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	default:
		return "DISCONNECTED"
	}
}

// DefaultReconnectDelay is the wait before the reconnect attempt that
// follows an unclean close.
const DefaultReconnectDelay = 3 * time.Second

// Quote is the latest observation for the active symbol.
type Quote struct {
	Price     float64
	Change24h float64
	HasChange bool
	Timestamp int64 // epoch ms
}

// Status is the full client view exposed to the pipeline.
type Status struct {
	Quote       Quote
	HasQuote    bool
	IsConnected bool
	Error       string
}

// message mirrors the price stream wire format, both directions.
type message struct {
	Type    string           `json:"type"`
	Symbol  string           `json:"symbol,omitempty"`
	Message string           `json:"message,omitempty"`
	Data    *model.PriceTick `json:"data,omitempty"`
}

// Client is the live price feed client. Zero buffering: the newest inbound
// message always wins. All exported methods are safe for concurrent use.
type Client struct {
	url    string
	dialer *websocket.Dialer
	log    *slog.Logger

	// ReconnectDelay overrides DefaultReconnectDelay (tests shorten it).
	ReconnectDelay time.Duration

	// Hooks (optional). OnQuote fires on every price update for the
	// active symbol; OnReconnect fires when a reconnect is attempted.
	OnQuote     func(symbol string, q Quote)
	OnReconnect func()

	handlers map[string]func(*message)

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	gen       uint64 // connection generation, invalidates stale read loops
	symbol    string // active or pending subscription symbol
	quote     Quote
	hasQuote  bool
	lastErr   string
	reconnect *time.Timer
	closed    bool
}

// NewClient creates a price feed client for the given socket endpoint.
// Call Connect to establish the connection.
func NewClient(url string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		url:            url,
		dialer:         websocket.DefaultDialer,
		log:            log,
		ReconnectDelay: DefaultReconnectDelay,
	}
	c.handlers = map[string]func(*message){
		"price_update": c.onPriceUpdate,
		"subscribed":   c.onSubscribed,
		"unsubscribed": c.onUnsubscribed,
		"error":        c.onError,
	}
	return c
}

// Connect dials the endpoint and starts the read loop. A no-op when the
// connection is already open or connecting, or after Close. On dial
// failure a single reconnect attempt is scheduled, mirroring the
// unclean-close path.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.log.Debug("connecting to price feed", "url", c.url)
	conn, _, err := c.dialer.Dial(c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.lastErr = "websocket connection error"
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	c.lastErr = ""
	c.gen++
	gen := c.gen
	symbol := c.symbol
	c.mu.Unlock()

	c.log.Info("price feed connected", "url", c.url)
	if symbol != "" {
		c.writeSubscribe("subscribe_price", symbol)
	}

	go c.readLoop(conn, gen)
	return nil
}

// SetSymbol switches the active subscription. While open, the old symbol
// is unsubscribed before the new one is subscribed, and the cached quote
// is cleared so a stale price is never shown for the new symbol. While
// not open, only the pending subscription changes.
func (c *Client) SetSymbol(symbol string) {
	c.mu.Lock()
	prev := c.symbol
	c.symbol = symbol
	open := c.state == StateOpen && c.conn != nil
	if open || prev != symbol {
		c.quote = Quote{}
		c.hasQuote = false
	}
	c.mu.Unlock()

	if !open {
		return
	}
	if prev != "" && prev != symbol {
		c.writeSubscribe("unsubscribe_price", prev)
	}
	c.writeSubscribe("subscribe_price", symbol)
}

// Close tears the connection down for good: the pending reconnect timer is
// cancelled and the close counts as clean, so no reconnect follows.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

// Quote returns the latest quote for the active symbol and whether one
// has arrived since the last symbol switch.
func (c *Client) Quote() (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote, c.hasQuote
}

// Status returns the full client view.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Quote:       c.quote,
		HasQuote:    c.hasQuote,
		IsConnected: c.state == StateOpen,
		Error:       c.lastErr,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the connection is open.
func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// Err returns the last surfaced socket error, "" if none.
func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("failed to parse feed message", "err", err)
			continue
		}
		if handler, ok := c.handlers[msg.Type]; ok {
			handler(&msg)
		} else {
			c.log.Debug("unknown feed message type", "type", msg.Type)
		}
	}

	c.mu.Lock()
	if gen != c.gen || c.closed {
		// A newer connection took over, or the caller tore us down.
		c.mu.Unlock()
		return
	}
	clean := websocket.IsCloseError(readErr,
		websocket.CloseNormalClosure, websocket.CloseGoingAway)
	c.conn = nil
	c.state = StateDisconnected
	if !clean {
		c.scheduleReconnectLocked()
	}
	c.mu.Unlock()

	conn.Close()
	c.log.Info("price feed disconnected", "clean", clean, "err", readErr)
}

// scheduleReconnectLocked arms the single delayed reconnect attempt.
// Caller holds c.mu. The timer firing after Close is a no-op because
// Connect checks the closed flag.
func (c *Client) scheduleReconnectLocked() {
	if c.closed || c.reconnect != nil {
		return
	}
	c.reconnect = time.AfterFunc(c.ReconnectDelay, func() {
		c.mu.Lock()
		c.reconnect = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		c.log.Info("reconnecting price feed")
		if err := c.Connect(); err != nil {
			c.log.Warn("reconnect failed", "err", err)
		}
	})
}

func (c *Client) writeSubscribe(msgType, symbol string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	msg := message{Type: msgType, Symbol: strings.ToLower(symbol)}
	c.writeMu.Lock()
	err := conn.WriteJSON(&msg)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn("feed write failed", "type", msgType, "symbol", symbol, "err", err)
	}
}

func (c *Client) onPriceUpdate(msg *message) {
	if msg.Data == nil {
		return
	}

	c.mu.Lock()
	if c.symbol == "" || !strings.EqualFold(msg.Data.Symbol, c.symbol) {
		// Stale tick for a previously subscribed symbol.
		c.mu.Unlock()
		return
	}
	q := Quote{Price: msg.Data.Price, Timestamp: msg.Data.Timestamp}
	if msg.Data.Change24h != nil {
		q.Change24h = *msg.Data.Change24h
		q.HasChange = true
	} else if c.hasQuote && c.quote.HasChange {
		// change24h is optional per tick; keep the last known value.
		q.Change24h = c.quote.Change24h
		q.HasChange = true
	}
	c.quote = q
	c.hasQuote = true
	symbol := c.symbol
	c.mu.Unlock()

	if c.OnQuote != nil {
		c.OnQuote(symbol, q)
	}
}

func (c *Client) onSubscribed(msg *message) {
	c.log.Info("subscribed", "symbol", msg.Symbol)
}

func (c *Client) onUnsubscribed(msg *message) {
	c.log.Info("unsubscribed", "symbol", msg.Symbol)
}

func (c *Client) onError(msg *message) {
	errText := msg.Message
	if errText == "" {
		errText = "unknown error"
	}
	c.mu.Lock()
	c.lastErr = errText
	c.mu.Unlock()
	c.log.Warn("price feed error", "message", errText)
}
