package service

import (
	"context"
	"io"

	"github.com/omkargadekar/chats-app/internal/model"
)

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.PublicUser, error)
	// Authenticate проверяет пару логин/пароль и выдаёт JWT.
	Authenticate(ctx context.Context, username, password string) (string, *model.PublicUser, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	SearchAvailable(ctx context.Context, excludeID uint) ([]model.PublicUser, error)
}

type ChatService interface {
	// CreateOrGetDirectChat возвращает существующий личный чат или
	// создаёт новый. Второе значение — признак создания.
	CreateOrGetDirectChat(ctx context.Context, userID, receiverID uint) (*model.ChatView, bool, error)
	CreateGroupChat(ctx context.Context, creatorID uint, name string, participantIDs []uint) (*model.ChatView, error)
	GetGroupChat(ctx context.Context, chatID, userID uint) (*model.ChatView, error)
	RenameGroupChat(ctx context.Context, chatID, userID uint, name string) (*model.ChatView, error)
	DeleteGroupChat(ctx context.Context, chatID, userID uint) error
	DeleteDirectChat(ctx context.Context, chatID, userID uint) error
	LeaveGroupChat(ctx context.Context, chatID, userID uint) (*model.ChatView, error)
	AddParticipant(ctx context.Context, chatID, actorID, participantID uint) (*model.ChatView, error)
	RemoveParticipant(ctx context.Context, chatID, actorID, participantID uint) (*model.ChatView, error)
	ListChats(ctx context.Context, userID uint) ([]model.ChatView, error)
	// MarkChatRead обнуляет непрочитанные пользователя в чате.
	MarkChatRead(ctx context.Context, chatID, userID uint) error
}

// FileUpload — файл, пришедший из multipart-формы.
type FileUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type SendMessageInput struct {
	ChatID   uint
	SenderID uint
	Content  string
	Files    []FileUpload
}

// SendMessageResult — сохранённое сообщение плюс собственный счётчик
// отправителя (его инкремент не трогает).
type SendMessageResult struct {
	Message     model.MessageView `json:"message"`
	UnreadCount int64             `json:"unreadCount"`
}

type MessageService interface {
	ListMessages(ctx context.Context, chatID, userID uint) ([]model.MessageView, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error)
	// UnreadCount нужен хабу при подписке сокета на чат.
	UnreadCount(ctx context.Context, chatID, userID uint) (int64, error)
}

// Emitter — рассылка событий по комнатам. Реализуется ws.Hub.
type Emitter interface {
	ToUser(userID uint, event string, payload any)
	ToChat(chatID uint, event string, payload any, excludeUserID uint)
}

// FileStore — хранилище файлов вложений.
type FileStore interface {
	// Upload кладёт файл и возвращает публичный URL и ключ объекта.
	Upload(ctx context.Context, chatID uint, file FileUpload) (url, objectKey string, err error)
	Delete(ctx context.Context, objectKey string) error
}
