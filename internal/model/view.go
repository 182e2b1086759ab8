package model

import "time"

// Типы представлений, которые собирает агрегатор (internal/service).
// Только публичные поля пользователей, без паролей и служебных полей.

type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

type MessageView struct {
	ID          uint         `json:"id"`
	ChatID      uint         `json:"chatId"`
	Sender      PublicUser   `json:"sender"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type ChatView struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	IsGroupChat  bool         `json:"isGroupChat"`
	AdminID      uint         `json:"admin"`
	Participants []PublicUser `json:"participants"`
	LastMessage  *MessageView `json:"lastMessage,omitempty"`
	UnreadCount  int64        `json:"unreadCount"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
