package service

import (
	"context"
	"log"

	"github.com/omkargadekar/chats-app/internal/model"
	"github.com/omkargadekar/chats-app/internal/pkg/apperr"
	"github.com/omkargadekar/chats-app/internal/repository"
	"github.com/omkargadekar/chats-app/internal/ws"
)

const directChatName = "One on one chat"

type chatService struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	unreadRepo  repository.UnreadRepository
	cache       repository.MessageCacheRepository
	files       FileStore
	emitter     Emitter
}

func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	unreadRepo repository.UnreadRepository,
	cache repository.MessageCacheRepository,
	files FileStore,
	emitter Emitter,
) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		unreadRepo:  unreadRepo,
		cache:       cache,
		files:       files,
		emitter:     emitter,
	}
}

func (s *chatService) CreateOrGetDirectChat(ctx context.Context, userID, receiverID uint) (*model.ChatView, bool, error) {
	if userID == receiverID {
		return nil, false, apperr.Conflict("You cannot chat with yourself")
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return nil, false, err
	}
	if receiver == nil {
		return nil, false, apperr.NotFound("Receiver does not exist")
	}

	existing, err := s.chatRepo.GetDirectForUsers(ctx, userID, receiverID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		view := buildChatView(existing, userID)
		return &view, false, nil
	}

	chat := &model.Chat{
		Name:        directChatName,
		IsGroupChat: false,
		AdminID:     userID,
		Participants: []model.ChatParticipant{
			{UserID: userID, Position: 0},
			{UserID: receiverID, Position: 1},
		},
		UnreadCounts: []model.ChatUnread{
			{UserID: userID},
			{UserID: receiverID},
		},
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, false, err
	}

	created, err := s.reload(ctx, chat.ID)
	if err != nil {
		return nil, false, err
	}

	// Собеседник узнаёт о чате через личную комнату
	receiverView := buildChatView(created, receiverID)
	s.emitter.ToUser(receiverID, ws.EventNewChat, receiverView)

	view := buildChatView(created, userID)
	return &view, true, nil
}

func (s *chatService) CreateGroupChat(ctx context.Context, creatorID uint, name string, participantIDs []uint) (*model.ChatView, error) {
	// Убираем дубли, сохраняя порядок
	seen := map[uint]struct{}{}
	members := make([]uint, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == creatorID {
			return nil, apperr.Conflict("Participants array should not contain the group creator")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	// Групповой чат — минимум трое вместе с создателем
	if len(members)+1 < 3 {
		return nil, apperr.Conflict("Seems like you have passed duplicate participants")
	}

	for _, id := range members {
		user, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperr.NotFound("Participant does not exist")
		}
	}

	chat := &model.Chat{
		Name:        name,
		IsGroupChat: true,
		AdminID:     creatorID,
		Participants: []model.ChatParticipant{
			{UserID: creatorID, Position: 0},
		},
		UnreadCounts: []model.ChatUnread{
			{UserID: creatorID},
		},
	}
	for i, id := range members {
		chat.Participants = append(chat.Participants, model.ChatParticipant{UserID: id, Position: i + 1})
		chat.UnreadCounts = append(chat.UnreadCounts, model.ChatUnread{UserID: id})
	}

	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	created, err := s.reload(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	for _, id := range members {
		s.emitter.ToUser(id, ws.EventNewChat, buildChatView(created, id))
	}

	view := buildChatView(created, creatorID)
	return &view, nil
}

func (s *chatService) GetGroupChat(ctx context.Context, chatID, userID uint) (*model.ChatView, error) {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Unauthorized("You are not a part of this group chat")
	}

	view := buildChatView(chat, userID)
	return &view, nil
}

func (s *chatService) RenameGroupChat(ctx context.Context, chatID, userID uint, name string) (*model.ChatView, error) {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != userID {
		return nil, apperr.Unauthorized("You are not an admin")
	}
	if name == "" {
		return nil, apperr.BadRequest("Group name is required")
	}

	if err := s.chatRepo.Rename(ctx, chatID, name); err != nil {
		return nil, err
	}

	renamed, err := s.reload(ctx, chatID)
	if err != nil {
		return nil, err
	}

	// Новое имя получают все участники, включая инициатора
	for _, id := range renamed.ParticipantIDs() {
		s.emitter.ToUser(id, ws.EventUpdateGroupName, buildChatView(renamed, id))
	}

	view := buildChatView(renamed, userID)
	return &view, nil
}

func (s *chatService) DeleteGroupChat(ctx context.Context, chatID, userID uint) error {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.AdminID != userID {
		return apperr.Unauthorized("Only admin can delete the group")
	}

	return s.deleteCascade(ctx, chat, userID)
}

func (s *chatService) DeleteDirectChat(ctx context.Context, chatID, userID uint) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil || chat.IsGroupChat {
		return apperr.NotFound("Chat does not exist")
	}
	if !chat.HasParticipant(userID) {
		return apperr.Unauthorized("You are not a part of this chat")
	}

	return s.deleteCascade(ctx, chat, userID)
}

func (s *chatService) LeaveGroupChat(ctx context.Context, chatID, userID uint) (*model.ChatView, error) {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.NotFound("You are not a part of this group chat")
	}

	if err := s.chatRepo.RemoveParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, chatID)
	if err != nil {
		return nil, err
	}

	for _, id := range updated.ParticipantIDs() {
		s.emitter.ToUser(id, ws.EventLeaveChat, buildChatView(updated, id))
	}

	view := buildChatView(updated, userID)
	return &view, nil
}

func (s *chatService) AddParticipant(ctx context.Context, chatID, actorID, participantID uint) (*model.ChatView, error) {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != actorID {
		return nil, apperr.Unauthorized("You are not an admin")
	}

	user, err := s.userRepo.FindByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User does not exist")
	}

	if chat.HasParticipant(participantID) {
		return nil, apperr.Conflict("Participant already in a group chat")
	}

	if err := s.chatRepo.AddParticipant(ctx, chatID, participantID); err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, chatID)
	if err != nil {
		return nil, err
	}

	s.emitter.ToUser(participantID, ws.EventNewChat, buildChatView(updated, participantID))

	view := buildChatView(updated, actorID)
	return &view, nil
}

func (s *chatService) RemoveParticipant(ctx context.Context, chatID, actorID, participantID uint) (*model.ChatView, error) {
	chat, err := s.loadGroupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != actorID {
		return nil, apperr.Unauthorized("You are not an admin")
	}
	if !chat.HasParticipant(participantID) {
		return nil, apperr.NotFound("Participant does not exist in a group chat")
	}

	if err := s.chatRepo.RemoveParticipant(ctx, chatID, participantID); err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, chatID)
	if err != nil {
		return nil, err
	}

	s.emitter.ToUser(participantID, ws.EventLeaveChat, buildChatView(updated, participantID))

	view := buildChatView(updated, actorID)
	return &view, nil
}

func (s *chatService) ListChats(ctx context.Context, userID uint) ([]model.ChatView, error) {
	chats, err := s.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ChatView, 0, len(chats))
	for i := range chats {
		views = append(views, buildChatView(&chats[i], userID))
	}
	return views, nil
}

func (s *chatService) MarkChatRead(ctx context.Context, chatID, userID uint) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return apperr.NotFound("Chat does not exist")
	}
	if !chat.HasParticipant(userID) {
		return apperr.Unauthorized("You are not a part of this chat")
	}

	if err := s.unreadRepo.Reset(ctx, chatID, userID); err != nil {
		return err
	}

	s.emitter.ToUser(userID, ws.EventUnreadCount, ws.UnreadCountPayload{ChatID: chatID, UnreadCount: 0})
	return nil
}

// loadGroupChat загружает групповой чат или возвращает NotFound.
func (s *chatService) loadGroupChat(ctx context.Context, chatID uint) (*model.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.IsGroupChat {
		return nil, apperr.NotFound("Group chat does not exist")
	}
	return chat, nil
}

// reload перечитывает чат после записи. Пустой результат после только
// что завершённой записи — внутренняя ошибка, а не 404.
func (s *chatService) reload(ctx context.Context, chatID uint) (*model.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.Internal("Internal server error")
	}
	return chat, nil
}

// deleteCascade убирает чат целиком: сначала файлы вложений, затем
// одной транзакцией все записи, и запись чата последней.
func (s *chatService) deleteCascade(ctx context.Context, chat *model.Chat, actorID uint) error {
	attachments, err := s.messageRepo.ListAttachments(ctx, chat.ID)
	if err != nil {
		return err
	}

	// Удаление файлов best-effort: осиротевший файл лучше, чем
	// недостижимое сообщение
	for _, a := range attachments {
		if err := s.files.Delete(ctx, a.ObjectKey); err != nil {
			log.Printf("failed to delete attachment %s: %v", a.ObjectKey, err)
		}
	}

	// Представления для уведомлений собираем до удаления записей
	views := make(map[uint]model.ChatView, len(chat.Participants))
	for _, id := range chat.ParticipantIDs() {
		if id == actorID {
			continue
		}
		views[id] = buildChatView(chat, id)
	}

	if err := s.chatRepo.DeleteCascade(ctx, chat.ID); err != nil {
		return err
	}

	if err := s.cache.ClearChat(ctx, chat.ID); err != nil {
		log.Printf("failed to clear message cache for chat %d: %v", chat.ID, err)
	}

	for id, view := range views {
		s.emitter.ToUser(id, ws.EventLeaveChat, view)
	}

	return nil
}
