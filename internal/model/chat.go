package model

import "gorm.io/gorm"

type Chat struct {
	gorm.Model
	Name          string `json:"name"`
	IsGroupChat   bool   `json:"isGroupChat"`
	AdminID       uint   `json:"admin"`
	LastMessageID *uint  `json:"-"`
	LastMessage   *Message

	// Participants упорядочены по Position: создатель всегда первый.
	Participants []ChatParticipant
	UnreadCounts []ChatUnread
}

type ChatParticipant struct {
	ID       uint `gorm:"primaryKey"`
	ChatID   uint `gorm:"uniqueIndex:idx_chat_participant"`
	UserID   uint `gorm:"uniqueIndex:idx_chat_participant"`
	Position int
	User     User
}

// ChatUnread — строка журнала непрочитанных: кеш поверх флагов
// MessageReceipt. Инкремент и сброс идут в одной транзакции с изменением
// флагов, расходиться им нельзя.
type ChatUnread struct {
	ChatID uint  `gorm:"primaryKey" json:"chatId"`
	UserID uint  `gorm:"primaryKey" json:"userId"`
	Count  int64 `json:"count"`
}

func (c *Chat) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
