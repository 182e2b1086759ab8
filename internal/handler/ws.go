package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/omkargadekar/chats-app/internal/pkg/auth"
	"github.com/omkargadekar/chats-app/internal/service"
	"github.com/omkargadekar/chats-app/internal/ws"
)

type WSHandler struct {
	hub         *ws.Hub
	userService service.UserService
}

func NewWSHandler(hub *ws.Hub, userService service.UserService) *WSHandler {
	return &WSHandler{hub: hub, userService: userService}
}

// ServeWS апгрейдит соединение и проверяет токен из query-параметра.
// Ошибки аутентификации уходят событием socketError уже по сокету:
// до апгрейда клиент ответа не увидит.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	claims, err := auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		conn.WriteJSON(ws.OutEvent{Event: ws.EventSocketError, Payload: "Invalid token"})
		conn.Close()
		return
	}

	user, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		conn.WriteJSON(ws.OutEvent{Event: ws.EventSocketError, Payload: "User does not exist"})
		conn.Close()
		return
	}

	// Контекст запроса умирает вместе с хэндлером, сокету нужен свой
	client := ws.NewClient(context.Background(), h.hub, conn, user.ID)
	h.hub.Register(client)

	client.SendEvent(ws.EventConnected, user.Public())

	go client.WritePump()
	go client.ReadPump()
}
