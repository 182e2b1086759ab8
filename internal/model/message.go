package model

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	ChatID   uint   `json:"chatId"`
	SenderID uint   `json:"senderId"`
	Content  string `json:"content"`
	Sender   User
	// Attachments упорядочены по Position в порядке загрузки.
	Attachments []Attachment
}

type Attachment struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	MessageID uint   `json:"-"`
	URL       string `json:"url"`
	ObjectKey string `json:"objectKey"`
	Position  int    `json:"-"`
}

// MessageReceipt — авторитетный флаг прочитанности для конкретного
// получателя. Создаётся вместе с сообщением для каждого участника,
// кроме отправителя.
type MessageReceipt struct {
	ID        uint `gorm:"primaryKey"`
	MessageID uint `gorm:"index"`
	ChatID    uint `gorm:"index:idx_receipt_chat_user"`
	UserID    uint `gorm:"index:idx_receipt_chat_user"`
	Read      bool
}
