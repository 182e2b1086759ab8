package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// UnreadSource отдаёт текущий счётчик непрочитанных. Hub дергает его
// при joinChat, чтобы клиент сразу увидел актуальное число.
// Реализуется сервисным слоем и подключается через SetUnreadSource.
type UnreadSource interface {
	UnreadCount(ctx context.Context, chatID, userID uint) (int64, error)
}

// Hub держит все активные сокеты, раскладывает их по комнатам и
// рассылает события. Комната — строковый ключ: личная "user:<id>"
// и чатовая "chat:<id>".
type Hub struct {
	mu sync.RWMutex

	rooms map[string]map[*Client]struct{}
	// Обратный индекс, чтобы при отключении снять клиента со всех комнат
	clientRooms map[*Client]map[string]struct{}

	unreads UnreadSource
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
	}
}

// SetUnreadSource подключает источник счётчиков после сборки сервисов.
// Разрывает цикл зависимостей между ws и сервисным слоем.
func (h *Hub) SetUnreadSource(src UnreadSource) {
	h.unreads = src
}

func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func ChatRoom(chatID uint) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// Register ставит клиента на учёт и сразу заводит его в личную комнату.
func (h *Hub) Register(c *Client) {
	h.Join(c, UserRoom(c.UserID))
}

// Unregister снимает клиента со всех комнат и закрывает канал отправки.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	rooms := h.clientRooms[c]
	for room := range rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clientRooms, c)
	h.mu.Unlock()

	c.closeSend()
}

// Join добавляет клиента в комнату. Повторный вызов безвреден.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}

	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[string]struct{})
	}
	h.clientRooms[c][room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	delete(h.clientRooms[c], room)
}

// Broadcast шлёт событие всем клиентам комнаты, кроме excludeUserID
// (0 — никого не исключать). Доставка fire-and-forget: клиент с
// забитым каналом событие пропустит.
func (h *Hub) Broadcast(room, event string, payload any, excludeUserID uint) {
	data, err := json.Marshal(OutEvent{Event: event, Payload: payload})
	if err != nil {
		log.Printf("ws: failed to marshal event %q: %v", event, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if excludeUserID != 0 && c.UserID == excludeUserID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.sendRaw(data)
	}
}

// ToUser доставляет событие во все сокеты пользователя.
func (h *Hub) ToUser(userID uint, event string, payload any) {
	h.Broadcast(UserRoom(userID), event, payload, 0)
}

// ToChat доставляет событие подписчикам комнаты чата.
func (h *Hub) ToChat(chatID uint, event string, payload any, excludeUserID uint) {
	h.Broadcast(ChatRoom(chatID), event, payload, excludeUserID)
}

// RoomSize — число клиентов в комнате. Нужен хэндлерам и тестам.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) handleInbound(c *Client, data []byte) {
	var in InEvent
	if err := json.Unmarshal(data, &in); err != nil {
		c.SendEvent(EventSocketError, "invalid event payload")
		return
	}

	switch in.Event {
	case EventJoinChat:
		h.Join(c, ChatRoom(in.ChatID))
		if h.unreads != nil {
			count, err := h.unreads.UnreadCount(context.Background(), in.ChatID, c.UserID)
			if err != nil {
				log.Printf("ws: failed to get unread count for user %d chat %d: %v", c.UserID, in.ChatID, err)
				return
			}
			c.SendEvent(EventUnreadCount, UnreadCountPayload{ChatID: in.ChatID, UnreadCount: count})
		}
	case EventTyping:
		h.ToChat(in.ChatID, EventTyping, TypingPayload{ChatID: in.ChatID, UserID: c.UserID}, c.UserID)
	case EventStopTyping:
		h.ToChat(in.ChatID, EventStopTyping, TypingPayload{ChatID: in.ChatID, UserID: c.UserID}, c.UserID)
	default:
		c.SendEvent(EventSocketError, fmt.Sprintf("unknown event: %s", in.Event))
	}
}
