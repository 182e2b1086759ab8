package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/omkargadekar/chats-app/internal/model"
)

type ChatRepository interface {
	// Create сохраняет чат вместе с участниками и строками журнала
	// непрочитанных одной транзакцией.
	Create(ctx context.Context, chat *model.Chat) error
	GetByID(ctx context.Context, chatID uint) (*model.Chat, error)
	GetDirectForUsers(ctx context.Context, user1ID, user2ID uint) (*model.Chat, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Chat, error)
	Rename(ctx context.Context, chatID uint, name string) error
	AddParticipant(ctx context.Context, chatID, userID uint) error
	RemoveParticipant(ctx context.Context, chatID, userID uint) error
	// DeleteCascade удаляет зависимые записи и сам чат последним,
	// одной транзакцией. Файлы вложений чистит сервисный слой до вызова.
	DeleteCascade(ctx context.Context, chatID uint) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) withAggregates(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_participants.position ASC")
		}).
		Preload("Participants.User").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		Preload("LastMessage.Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.position ASC")
		}).
		Preload("UnreadCounts")
}

func (r *chatRepository) Create(ctx context.Context, chat *model.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *chatRepository) GetByID(ctx context.Context, chatID uint) (*model.Chat, error) {
	var chat model.Chat
	err := r.withAggregates(r.db.WithContext(ctx)).First(&chat, chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load chat %d: %w", chatID, err)
	}
	return &chat, nil
}

func (r *chatRepository) GetDirectForUsers(ctx context.Context, user1ID, user2ID uint) (*model.Chat, error) {
	var chatID uint

	// Ищем личный чат, где состоят оба пользователя
	err := r.db.WithContext(ctx).
		Table("chat_participants").
		Joins("JOIN chat_participants AS cp2 ON chat_participants.chat_id = cp2.chat_id").
		Joins("JOIN chats ON chats.id = chat_participants.chat_id").
		Where("chat_participants.user_id = ? AND cp2.user_id = ?", user1ID, user2ID).
		Where("chats.is_group_chat = ? AND chats.deleted_at IS NULL", false).
		Select("chat_participants.chat_id").
		Limit(1).
		Scan(&chatID).Error

	if err != nil {
		return nil, err
	}

	if chatID == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, chatID)
}

func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.withAggregates(r.db.WithContext(ctx)).
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %d: %w", userID, err)
	}
	return chats, nil
}

func (r *chatRepository) Rename(ctx context.Context, chatID uint, name string) error {
	return r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ?", chatID).
		Update("name", name).Error
}

func (r *chatRepository) AddParticipant(ctx context.Context, chatID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nextPosition int
		err := tx.Model(&model.ChatParticipant{}).
			Where("chat_id = ?", chatID).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&nextPosition).Error
		if err != nil {
			return err
		}

		participant := model.ChatParticipant{
			ChatID:   chatID,
			UserID:   userID,
			Position: nextPosition,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		// Новому участнику сразу заводим строку журнала, чтобы инвариант
		// "запись на каждого участника" держался и до первого сообщения.
		return tx.Exec(`
			INSERT INTO chat_unreads (chat_id, user_id, count)
			VALUES (?, ?, 0)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, chatID, userID).Error
	})
}

func (r *chatRepository) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&model.ChatParticipant{}).Error
		if err != nil {
			return err
		}

		err = tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&model.ChatUnread{}).Error
		if err != nil {
			return err
		}

		return tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&model.MessageReceipt{}).Error
	})
}

func (r *chatRepository) DeleteCascade(ctx context.Context, chatID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("chat_id = ?", chatID).Delete(&model.MessageReceipt{}).Error
		if err != nil {
			return err
		}

		err = tx.Where("chat_id = ?", chatID).Delete(&model.ChatUnread{}).Error
		if err != nil {
			return err
		}

		err = tx.Exec(`
			DELETE FROM attachments
			WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)
		`, chatID).Error
		if err != nil {
			return err
		}

		err = tx.Unscoped().Where("chat_id = ?", chatID).Delete(&model.Message{}).Error
		if err != nil {
			return err
		}

		err = tx.Where("chat_id = ?", chatID).Delete(&model.ChatParticipant{}).Error
		if err != nil {
			return err
		}

		// Запись чата уходит строго последней: иначе при обрыве
		// каскадные сообщения стали бы недостижимы.
		return tx.Unscoped().Delete(&model.Chat{}, chatID).Error
	})
}
