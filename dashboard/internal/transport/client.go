package transport

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Krimson/icu-transfer/dashboard/internal/config"
	"github.com/Krimson/icu-transfer/dashboard/internal/eventbus"
)

// Client держит одно WebSocket соединение с бекендом и раскидывает
// входящие события по шине. Объект создается явно и передается вниз
// по зависимостям, никаких глобальных синглтонов.
type Client struct {
	cfg    *config.Config
	bus    *eventbus.Bus
	dialer *websocket.Dialer

	mu               sync.Mutex
	conn             *websocket.Conn
	reconnectPending bool
	reconnectTimer   *time.Timer
	attempts         int
	closed           bool
}

var ErrClientClosed = errors.New("transport client is closed")

const maxReconnectDelay = 60 * time.Second

// New создает транспортный клиент. Соединение открывается только по Connect().
func New(cfg *config.Config, bus *eventbus.Bus) *Client {
	return &Client{
		cfg: cfg,
		bus: bus,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HTTPTimeout,
		},
	}
}

// Connect открывает соединение. Идемпотентен: повторный вызов при живом
// соединении или уже запланированном переподключении - no-op.
func (c *Client) Connect() error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.conn != nil || c.reconnectPending {
		c.mu.Unlock()
		return nil
	}
	url := c.cfg.WebSocketURL
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(url, nil)
	if err != nil {
		log.Printf("[WEBSOCKET] Failed to connect to %s: %v", url, err)
		c.scheduleReconnect()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	c.attempts = 0 // Сбрасываем флаг переподключения при успешном открытии
	c.mu.Unlock()

	log.Printf("[WEBSOCKET] Connected to %s", url)
	go c.readLoop(conn)
	return nil
}

// Close останавливает переподключения и закрывает соединение
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectPending = false
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected сообщает, есть ли сейчас открытое соединение
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// readLoop читает сообщения до разрыва соединения
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.handleDisconnect(conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WEBSOCKET] Read error: %v", err)
			}
			return
		}

		event, err := DecodeEnvelope(message)
		if err != nil {
			// Битое сообщение не фатально: логируем и ждем следующее
			log.Printf("[WEBSOCKET] Dropping malformed message: %v", err)
			continue
		}

		c.bus.Dispatch(string(event.Type), event)
	}
}

// handleDisconnect сбрасывает соединение и планирует ровно одно переподключение
func (c *Client) handleDisconnect(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}

	log.Printf("[WEBSOCKET] Connection lost")
	c.scheduleReconnect()
}

// scheduleReconnect ставит таймер переподключения, если он еще не стоит.
// По умолчанию фиксированная задержка без ограничения попыток; лимит и
// экспоненциальный рост включаются конфигурацией.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.reconnectPending || c.conn != nil {
		return
	}

	if c.cfg.ReconnectMaxAttempts > 0 && c.attempts >= c.cfg.ReconnectMaxAttempts {
		log.Printf("[WEBSOCKET] Giving up after %d reconnect attempts", c.attempts)
		return
	}

	delay := c.reconnectDelay()
	c.attempts++
	c.reconnectPending = true

	log.Printf("[WEBSOCKET] Reconnecting in %s (attempt %d)", delay, c.attempts)

	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectPending = false
		c.mu.Unlock()

		if err := c.Connect(); err != nil && !errors.Is(err, ErrClientClosed) {
			log.Printf("[WEBSOCKET] Reconnect attempt failed: %v", err)
		}
	})
}

// reconnectDelay считает задержку с учетом фактора роста, с потолком
func (c *Client) reconnectDelay() time.Duration {
	delay := c.cfg.ReconnectDelay
	if c.cfg.ReconnectBackoff > 1.0 {
		for i := 0; i < c.attempts; i++ {
			delay = time.Duration(float64(delay) * c.cfg.ReconnectBackoff)
			if delay >= maxReconnectDelay {
				return maxReconnectDelay
			}
		}
	}
	return delay
}
