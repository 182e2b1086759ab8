package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/omkargadekar/chats-app/internal/model"
)

type MessageRepository interface {
	// CreateWithReceipts сохраняет сообщение с вложениями, заводит флаги
	// прочитанности для всех участников кроме отправителя, атомарно
	// инкрементирует журнал непрочитанных и обновляет lastMessage чата —
	// всё одной транзакцией.
	CreateWithReceipts(ctx context.Context, msg *model.Message, participantIDs []uint) error
	GetByID(ctx context.Context, messageID uint) (*model.Message, error)
	// ListByChat возвращает сообщения чата от новых к старым.
	ListByChat(ctx context.Context, chatID uint) ([]model.Message, error)
	// ListAttachments собирает вложения всех сообщений чата (для каскада).
	ListAttachments(ctx context.Context, chatID uint) ([]model.Attachment, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) withAggregates(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sender").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.position ASC")
		})
}

func (r *messageRepository) CreateWithReceipts(ctx context.Context, msg *model.Message, participantIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		receipts := make([]model.MessageReceipt, 0, len(participantIDs))
		for _, participantID := range participantIDs {
			if participantID == msg.SenderID {
				continue
			}
			receipts = append(receipts, model.MessageReceipt{
				MessageID: msg.ID,
				ChatID:    msg.ChatID,
				UserID:    participantID,
			})
		}
		if len(receipts) > 0 {
			if err := tx.Create(&receipts).Error; err != nil {
				return fmt.Errorf("failed to create receipts: %w", err)
			}
		}

		if err := incrementUnread(tx, msg.ChatID, msg.SenderID); err != nil {
			return fmt.Errorf("failed to increment unread counts: %w", err)
		}

		err := tx.Model(&model.Chat{}).
			Where("id = ?", msg.ChatID).
			Update("last_message_id", msg.ID).Error
		if err != nil {
			return fmt.Errorf("failed to update last message: %w", err)
		}

		return nil
	})
}

func (r *messageRepository) GetByID(ctx context.Context, messageID uint) (*model.Message, error) {
	var msg model.Message
	err := r.withAggregates(r.db.WithContext(ctx)).First(&msg, messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.withAggregates(r.db.WithContext(ctx)).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for chat %d: %w", chatID, err)
	}
	return messages, nil
}

func (r *messageRepository) ListAttachments(ctx context.Context, chatID uint) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := r.db.WithContext(ctx).
		Joins("JOIN messages ON messages.id = attachments.message_id").
		Where("messages.chat_id = ?", chatID).
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments for chat %d: %w", chatID, err)
	}
	return attachments, nil
}
