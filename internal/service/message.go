package service

import (
	"context"
	"log"
	"strings"

	"github.com/omkargadekar/chats-app/internal/model"
	"github.com/omkargadekar/chats-app/internal/pkg/apperr"
	"github.com/omkargadekar/chats-app/internal/repository"
	"github.com/omkargadekar/chats-app/internal/ws"
)

type messageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	unreadRepo  repository.UnreadRepository
	cache       repository.MessageCacheRepository
	files       FileStore
	emitter     Emitter
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	unreadRepo repository.UnreadRepository,
	cache repository.MessageCacheRepository,
	files FileStore,
	emitter Emitter,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		unreadRepo:  unreadRepo,
		cache:       cache,
		files:       files,
		emitter:     emitter,
	}
}

func (s *messageService) ListMessages(ctx context.Context, chatID, userID uint) ([]model.MessageView, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("Chat does not exist")
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Unauthorized("User is not a part of this chat")
	}

	// Сначала кеш: там хвост переписки от старых к новым
	cached, err := s.cache.GetMessages(ctx, chatID)
	if err != nil {
		log.Printf("failed to read message cache for chat %d: %v", chatID, err)
	}
	if len(cached) > 0 {
		return reverseViews(cached), nil
	}

	messages, err := s.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	views := make([]model.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, buildMessageView(&messages[i]))
	}

	if err := s.cache.CacheMessages(ctx, chatID, reverseViews(views)); err != nil {
		log.Printf("failed to warm message cache for chat %d: %v", chatID, err)
	}

	return views, nil
}

func (s *messageService) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	if strings.TrimSpace(in.Content) == "" && len(in.Files) == 0 {
		return nil, apperr.BadRequest("Message content or attachment is required")
	}

	chat, err := s.chatRepo.GetByID(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("Chat does not exist")
	}
	if !chat.HasParticipant(in.SenderID) {
		return nil, apperr.Unauthorized("User is not a part of this chat")
	}

	attachments := make([]model.Attachment, 0, len(in.Files))
	for i, file := range in.Files {
		url, objectKey, err := s.files.Upload(ctx, in.ChatID, file)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, model.Attachment{
			URL:       url,
			ObjectKey: objectKey,
			Position:  i,
		})
	}

	msg := &model.Message{
		ChatID:      in.ChatID,
		SenderID:    in.SenderID,
		Content:     in.Content,
		Attachments: attachments,
	}
	if err := s.messageRepo.CreateWithReceipts(ctx, msg, chat.ParticipantIDs()); err != nil {
		return nil, err
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	// Запись прошла, поэтому пустая выборка — внутренняя ошибка
	if full == nil {
		return nil, apperr.Internal("Internal server error")
	}

	view := buildMessageView(full)

	if err := s.cache.SaveMessage(ctx, in.ChatID, view); err != nil {
		log.Printf("failed to cache message %d: %v", msg.ID, err)
	}

	// Подписчики комнаты чата получают сообщение, отправитель — нет
	s.emitter.ToChat(in.ChatID, ws.EventMessageReceived, view, in.SenderID)

	// Каждому получателю — свежий счётчик в личную комнату
	for _, id := range chat.ParticipantIDs() {
		if id == in.SenderID {
			continue
		}
		count, err := s.unreadRepo.CountFor(ctx, in.ChatID, id)
		if err != nil {
			log.Printf("failed to get unread count for user %d chat %d: %v", id, in.ChatID, err)
			continue
		}
		s.emitter.ToUser(id, ws.EventUnreadCount, ws.UnreadCountPayload{ChatID: in.ChatID, UnreadCount: count})
	}

	senderCount, err := s.unreadRepo.CountFor(ctx, in.ChatID, in.SenderID)
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{Message: view, UnreadCount: senderCount}, nil
}

func (s *messageService) UnreadCount(ctx context.Context, chatID, userID uint) (int64, error) {
	return s.unreadRepo.CountFor(ctx, chatID, userID)
}

// reverseViews меняет порядок: кеш хранит от старых к новым,
// наружу отдаём от новых к старым.
func reverseViews(views []model.MessageView) []model.MessageView {
	out := make([]model.MessageView, len(views))
	for i, v := range views {
		out[len(views)-1-i] = v
	}
	return out
}
