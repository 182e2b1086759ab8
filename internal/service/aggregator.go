package service

import (
	"github.com/omkargadekar/chats-app/internal/model"
)

// buildMessageView собирает публичное представление сообщения:
// отправитель урезан до открытых полей, вложения в исходном порядке.
func buildMessageView(msg *model.Message) model.MessageView {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []model.Attachment{}
	}

	return model.MessageView{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		Sender:      msg.Sender.Public(),
		Content:     msg.Content,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
	}
}

// buildChatView собирает представление чата глазами конкретного
// пользователя: участники урезаны до открытых полей, счётчик
// непрочитанных — его собственный.
func buildChatView(chat *model.Chat, viewerID uint) model.ChatView {
	participants := make([]model.PublicUser, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		participants = append(participants, p.User.Public())
	}

	var unread int64
	for _, row := range chat.UnreadCounts {
		if row.UserID == viewerID {
			unread = row.Count
			break
		}
	}

	view := model.ChatView{
		ID:           chat.ID,
		Name:         chat.Name,
		IsGroupChat:  chat.IsGroupChat,
		AdminID:      chat.AdminID,
		Participants: participants,
		UnreadCount:  unread,
		CreatedAt:    chat.CreatedAt,
		UpdatedAt:    chat.UpdatedAt,
	}

	if chat.LastMessage != nil {
		lastMessage := buildMessageView(chat.LastMessage)
		view.LastMessage = &lastMessage
	}

	return view
}
