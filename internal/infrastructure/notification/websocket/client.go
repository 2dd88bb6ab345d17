package websocket

import (
	"time"

	"github.com/dreschagin/selfheal-core/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	// Дедлайн записи одного кадра
	writeTimeout = 10 * time.Second

	// Дедлайн ожидания pong; соединение без pong считается мертвым
	pongTimeout = 60 * time.Second

	// Интервал ping (меньше pongTimeout, иначе живые клиенты отвалятся)
	pingInterval = 54 * time.Second

	// Клиенты ленты ничего содержательного не шлют, входящие кадры малы
	maxInboundFrameSize = 512
)

// Client — одно подписанное на ленту дашборда WebSocket-соединение.
// Получает от hub'а кадры status/event/alert; входящий трафик служит
// только для контроля живости соединения.
type Client struct {
	conn       *websocket.Conn
	hub        *Hub
	send       chan Message
	remoteAddr string
	logger     *logger.Logger
}

// NewClient создает клиента ленты поверх установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, log *logger.Logger) *Client {
	return &Client{
		conn:       conn,
		hub:        hub,
		send:       make(chan Message, 256),
		remoteAddr: conn.RemoteAddr().String(),
		logger:     log,
	}
}

// Start запускает циклы чтения и записи. Блокируется до разрыва
// соединения, поэтому вызывается в собственной goroutine.
func (c *Client) Start() {
	go c.writeLoop()
	c.readLoop()
}

// readLoop дочитывает входящие кадры (pong и close) и снимает клиента
// с регистрации при разрыве соединения
func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("Feed connection close", "remote_addr", c.remoteAddr, "error", err.Error())
		}
	}()

	c.conn.SetReadLimit(maxInboundFrameSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongTimeout)); err != nil {
		c.logger.Error("Feed read deadline error", err, "remote_addr", c.remoteAddr)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Feed connection dropped", "remote_addr", c.remoteAddr, "error", err.Error())
			}
			return
		}
	}
}

// writeLoop сериализует кадры ленты и поддерживает соединение ping'ами
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				c.logger.Error("Feed write deadline error", err, "remote_addr", c.remoteAddr)
				return
			}
			if !ok {
				// Hub вытеснил отстающего клиента и закрыл канал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.logger.Warn("Feed write failed", "remote_addr", c.remoteAddr, "error", err.Error())
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
