package ws

import (
	"context"
	"encoding/json"
	"testing"
)

func newTestClient(hub *Hub, userID uint) *Client {
	// conn == nil: события читаем прямо из канала отправки
	return NewClient(context.Background(), hub, nil, userID)
}

func recvEvent(t *testing.T, c *Client) OutEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev OutEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		return ev
	default:
		t.Fatal("expected an event, channel is empty")
		return OutEvent{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("expected no event, got %s", data)
	default:
	}
}

func TestRegisterJoinsPersonalRoom(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, 7)
	hub.Register(client)

	hub.ToUser(7, EventNewChat, map[string]any{"id": 1})

	ev := recvEvent(t, client)
	if ev.Event != EventNewChat {
		t.Errorf("expected newChat, got %s", ev.Event)
	}
}

func TestBroadcastExcludesUser(t *testing.T) {
	hub := NewHub()
	alice := newTestClient(hub, 1)
	bob := newTestClient(hub, 2)
	hub.Register(alice)
	hub.Register(bob)

	room := ChatRoom(10)
	hub.Join(alice, room)
	hub.Join(bob, room)
	// Повторный Join не дублирует доставку
	hub.Join(bob, room)

	hub.ToChat(10, EventMessageReceived, "hello", 1)

	assertNoEvent(t, alice)

	ev := recvEvent(t, bob)
	if ev.Event != EventMessageReceived {
		t.Errorf("expected messageReceived, got %s", ev.Event)
	}
	assertNoEvent(t, bob)
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, 1)
	hub.Register(client)
	hub.Join(client, ChatRoom(10))
	hub.Join(client, ChatRoom(11))

	hub.Unregister(client)

	for _, room := range []string{UserRoom(1), ChatRoom(10), ChatRoom(11)} {
		if size := hub.RoomSize(room); size != 0 {
			t.Errorf("expected empty room %s, got %d clients", room, size)
		}
	}

	// Канал закрыт, отправка безопасна и ничего не доставляет
	if client.SendEvent(EventNewChat, nil) {
		t.Error("expected send to fail after unregister")
	}
}

type stubUnreads struct{ count int64 }

func (s *stubUnreads) UnreadCount(ctx context.Context, chatID, userID uint) (int64, error) {
	return s.count, nil
}

func TestJoinChatDeliversUnreadCount(t *testing.T) {
	hub := NewHub()
	hub.SetUnreadSource(&stubUnreads{count: 7})

	client := newTestClient(hub, 1)
	hub.Register(client)

	in, _ := json.Marshal(InEvent{Event: EventJoinChat, ChatID: 42})
	hub.handleInbound(client, in)

	if size := hub.RoomSize(ChatRoom(42)); size != 1 {
		t.Errorf("expected client in chat room, got %d", size)
	}

	ev := recvEvent(t, client)
	if ev.Event != EventUnreadCount {
		t.Fatalf("expected unreadMessageCount, got %s", ev.Event)
	}

	data, _ := json.Marshal(ev.Payload)
	var payload UnreadCountPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.ChatID != 42 || payload.UnreadCount != 7 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestTypingRelayExcludesSender(t *testing.T) {
	hub := NewHub()
	alice := newTestClient(hub, 1)
	bob := newTestClient(hub, 2)
	hub.Register(alice)
	hub.Register(bob)
	hub.Join(alice, ChatRoom(10))
	hub.Join(bob, ChatRoom(10))

	in, _ := json.Marshal(InEvent{Event: EventTyping, ChatID: 10})
	hub.handleInbound(alice, in)

	assertNoEvent(t, alice)

	ev := recvEvent(t, bob)
	if ev.Event != EventTyping {
		t.Fatalf("expected typing, got %s", ev.Event)
	}

	data, _ := json.Marshal(ev.Payload)
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.UserID != 1 || payload.ChatID != 10 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestUnknownEventYieldsSocketError(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, 1)
	hub.Register(client)

	hub.handleInbound(client, []byte(`{"event":"bogus"}`))

	ev := recvEvent(t, client)
	if ev.Event != EventSocketError {
		t.Errorf("expected socketError, got %s", ev.Event)
	}

	hub.handleInbound(client, []byte(`not json`))
	ev = recvEvent(t, client)
	if ev.Event != EventSocketError {
		t.Errorf("expected socketError for malformed payload, got %s", ev.Event)
	}
}
