package ws

// События, которыми обмениваемся с клиентом по сокету.
// Имена совпадают с тем, что ждёт фронтенд.
const (
	EventConnected       = "connected"
	EventSocketError     = "socketError"
	EventJoinChat        = "joinChat"
	EventTyping          = "typing"
	EventStopTyping      = "stopTyping"
	EventNewChat         = "newChat"
	EventUpdateGroupName = "updateGroupName"
	EventLeaveChat       = "leaveChat"
	EventMessageReceived = "messageReceived"
	EventUnreadCount     = "unreadMessageCount"
)

// OutEvent — конверт исходящего события.
type OutEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// InEvent — входящее событие от клиента (joinChat, typing, stopTyping).
type InEvent struct {
	Event  string `json:"event"`
	ChatID uint   `json:"chatId"`
}

// UnreadCountPayload — снимок счётчика непрочитанных для одного чата.
type UnreadCountPayload struct {
	ChatID      uint  `json:"chatId"`
	UnreadCount int64 `json:"unreadCount"`
}

// TypingPayload отражает, кто печатает в каком чате.
type TypingPayload struct {
	ChatID uint `json:"chatId"`
	UserID uint `json:"userId"`
}
