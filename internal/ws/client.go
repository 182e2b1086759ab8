package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024 // 64KB
	maxSendChannelSize = 256
)

// Client представляет WebSocket соединение одного пользователя.
type Client struct {
	UserID   uint
	hub      *Hub
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	isClosed bool
}

// NewClient создает нового клиента. conn может быть nil в тестах —
// тогда события читаются напрямую из канала отправки.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, userID uint) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		UserID: userID,
		hub:    hub,
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		send:   make(chan []byte, maxSendChannelSize),
	}
}

// Close останавливает клиента и рвёт соединение.
func (c *Client) Close() {
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
}

// closeSend закрывает канал отправки. Вызывается только хабом
// из Unregister, когда клиент уже снят со всех комнат.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}
	c.isClosed = true
	close(c.send)
}

// SendEvent сериализует и отправляет событие клиенту.
func (c *Client) SendEvent(event string, payload any) bool {
	data, err := json.Marshal(OutEvent{Event: event, Payload: payload})
	if err != nil {
		log.Printf("ws: client marshal error: %v", err)
		return false
	}
	return c.sendRaw(data)
}

// sendRaw кладёт данные в канал отправки без блокировки.
// Переполненный канал — событие теряется, соединение живёт дальше.
func (c *Client) sendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		log.Printf("ws: send buffer full for user %d, dropping event", c.UserID)
		return false
	}
}

// ReadPump читает события от клиента и передаёт их хабу.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Printf("ws: client read error: %v", err)
				}
				return
			}

			c.hub.handleInbound(c, data)
		}
	}
}

// WritePump гонит события из канала отправки в сокет и пингует клиента.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Канал закрыт
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if _, err := w.Write(message); err != nil {
				return
			}

			// Обработка нескольких сообщений в одном writer
			n := len(c.send)
			for i := 0; i < n; i++ {
				if _, err := w.Write(<-c.send); err != nil {
					return
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
