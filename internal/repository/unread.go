package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omkargadekar/chats-app/internal/model"
)

type UnreadRepository interface {
	// Reset обнуляет счётчик и помечает прочитанными все флаги
	// пользователя в чате — одной транзакцией, чтобы кеш и
	// авторитетные флаги не разошлись.
	Reset(ctx context.Context, chatID, userID uint) error
	CountFor(ctx context.Context, chatID, userID uint) (int64, error)
	CountsForChat(ctx context.Context, chatID uint) ([]model.ChatUnread, error)
}

type unreadRepository struct {
	db *gorm.DB
}

func NewUnreadRepository(db *gorm.DB) UnreadRepository {
	return &unreadRepository{db: db}
}

// incrementUnread атомарно поднимает счётчики всех участников, кроме
// отправителя. Upsert выполняется на стороне БД: никакого
// read-modify-write, конкурентные отправители не теряют инкременты.
// Вызывается внутри транзакции создания сообщения.
func incrementUnread(tx *gorm.DB, chatID, senderID uint) error {
	return tx.Exec(`
        INSERT INTO chat_unreads (chat_id, user_id, count)
        SELECT cp.chat_id, cp.user_id, 1
        FROM chat_participants cp
        WHERE cp.chat_id = ? AND cp.user_id <> ?
        ON CONFLICT (chat_id, user_id)
        DO UPDATE SET count = chat_unreads.count + 1
    `, chatID, senderID).Error
}

func (r *unreadRepository) Reset(ctx context.Context, chatID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.ChatUnread{}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).
			Update("count", 0).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.MessageReceipt{}).
			Where("chat_id = ? AND user_id = ? AND read = ?", chatID, userID, false).
			Update("read", true).Error
	})
}

func (r *unreadRepository) CountFor(ctx context.Context, chatID, userID uint) (int64, error) {
	var row model.ChatUnread
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (r *unreadRepository) CountsForChat(ctx context.Context, chatID uint) ([]model.ChatUnread, error) {
	var rows []model.ChatUnread
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
