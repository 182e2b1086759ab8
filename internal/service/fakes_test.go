package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/omkargadekar/chats-app/internal/model"
)

// opsLog фиксирует порядок побочных эффектов каскадного удаления.
type opsLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opsLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opsLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

// memStore — общие данные для всех фейковых репозиториев.
type memStore struct {
	mu sync.Mutex

	users    map[uint]model.User
	chats    map[uint]*model.Chat
	messages map[uint]*model.Message
	receipts []model.MessageReceipt
	unreads  map[[2]uint]int64

	nextUserID    uint
	nextChatID    uint
	nextMessageID uint

	log *opsLog
}

func newMemStore(log *opsLog) *memStore {
	return &memStore{
		users:    make(map[uint]model.User),
		chats:    make(map[uint]*model.Chat),
		messages: make(map[uint]*model.Message),
		unreads:  make(map[[2]uint]int64),
		log:      log,
	}
}

func (s *memStore) chatByID(chatID uint) *model.Chat {
	src, ok := s.chats[chatID]
	if !ok {
		return nil
	}

	chat := *src
	chat.Participants = make([]model.ChatParticipant, len(src.Participants))
	copy(chat.Participants, src.Participants)
	for i := range chat.Participants {
		chat.Participants[i].User = s.users[chat.Participants[i].UserID]
	}
	sort.Slice(chat.Participants, func(i, j int) bool {
		return chat.Participants[i].Position < chat.Participants[j].Position
	})

	chat.UnreadCounts = nil
	for key, count := range s.unreads {
		if key[0] == chatID {
			chat.UnreadCounts = append(chat.UnreadCounts, model.ChatUnread{
				ChatID: chatID, UserID: key[1], Count: count,
			})
		}
	}

	if src.LastMessageID != nil {
		chat.LastMessage = s.messageByID(*src.LastMessageID)
	}

	return &chat
}

func (s *memStore) messageByID(messageID uint) *model.Message {
	src, ok := s.messages[messageID]
	if !ok {
		return nil
	}
	msg := *src
	msg.Sender = s.users[msg.SenderID]
	msg.Attachments = append([]model.Attachment(nil), src.Attachments...)
	return &msg
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	r.s.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	user, err := r.FindByUsername(ctx, username)
	return user != nil, err
}

func (r *fakeUserRepo) SearchAvailable(ctx context.Context, excludeID uint) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []model.User
	for _, user := range r.s.users {
		if user.ID != excludeID {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

type fakeChatRepo struct{ s *memStore }

func (r *fakeChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextChatID++
	chat.ID = r.s.nextChatID
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt

	stored := *chat
	stored.Participants = append([]model.ChatParticipant(nil), chat.Participants...)
	stored.UnreadCounts = nil
	r.s.chats[chat.ID] = &stored

	for _, row := range chat.UnreadCounts {
		r.s.unreads[[2]uint{chat.ID, row.UserID}] = row.Count
	}
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, chatID uint) (*model.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.chatByID(chatID), nil
}

func (r *fakeChatRepo) GetDirectForUsers(ctx context.Context, user1ID, user2ID uint) (*model.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, chat := range r.s.chats {
		if chat.IsGroupChat {
			continue
		}
		has1, has2 := false, false
		for _, p := range chat.Participants {
			if p.UserID == user1ID {
				has1 = true
			}
			if p.UserID == user2ID {
				has2 = true
			}
		}
		if has1 && has2 {
			return r.s.chatByID(id), nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) ListForUser(ctx context.Context, userID uint) ([]model.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var chats []model.Chat
	for id, chat := range r.s.chats {
		for _, p := range chat.Participants {
			if p.UserID == userID {
				chats = append(chats, *r.s.chatByID(id))
				break
			}
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func (r *fakeChatRepo) Rename(ctx context.Context, chatID uint, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %d not found", chatID)
	}
	chat.Name = name
	chat.UpdatedAt = time.Now()
	return nil
}

func (r *fakeChatRepo) AddParticipant(ctx context.Context, chatID, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %d not found", chatID)
	}
	position := 0
	for _, p := range chat.Participants {
		if p.Position >= position {
			position = p.Position + 1
		}
	}
	chat.Participants = append(chat.Participants, model.ChatParticipant{
		ChatID: chatID, UserID: userID, Position: position,
	})
	if _, ok := r.s.unreads[[2]uint{chatID, userID}]; !ok {
		r.s.unreads[[2]uint{chatID, userID}] = 0
	}
	return nil
}

func (r *fakeChatRepo) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %d not found", chatID)
	}
	participants := chat.Participants[:0]
	for _, p := range chat.Participants {
		if p.UserID != userID {
			participants = append(participants, p)
		}
	}
	chat.Participants = participants

	delete(r.s.unreads, [2]uint{chatID, userID})

	receipts := r.s.receipts[:0]
	for _, rec := range r.s.receipts {
		if rec.ChatID != chatID || rec.UserID != userID {
			receipts = append(receipts, rec)
		}
	}
	r.s.receipts = receipts
	return nil
}

func (r *fakeChatRepo) DeleteCascade(ctx context.Context, chatID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	receipts := r.s.receipts[:0]
	for _, rec := range r.s.receipts {
		if rec.ChatID != chatID {
			receipts = append(receipts, rec)
		}
	}
	r.s.receipts = receipts

	for key := range r.s.unreads {
		if key[0] == chatID {
			delete(r.s.unreads, key)
		}
	}

	for id, msg := range r.s.messages {
		if msg.ChatID == chatID {
			delete(r.s.messages, id)
		}
	}

	delete(r.s.chats, chatID)
	r.s.log.add("records")
	return nil
}

type fakeMessageRepo struct{ s *memStore }

func (r *fakeMessageRepo) CreateWithReceipts(ctx context.Context, msg *model.Message, participantIDs []uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextMessageID++
	msg.ID = r.s.nextMessageID
	msg.CreatedAt = time.Now()

	stored := *msg
	stored.Attachments = append([]model.Attachment(nil), msg.Attachments...)
	r.s.messages[msg.ID] = &stored

	for _, id := range participantIDs {
		if id == msg.SenderID {
			continue
		}
		r.s.receipts = append(r.s.receipts, model.MessageReceipt{
			MessageID: msg.ID, ChatID: msg.ChatID, UserID: id,
		})
		r.s.unreads[[2]uint{msg.ChatID, id}]++
	}

	if chat, ok := r.s.chats[msg.ChatID]; ok {
		id := msg.ID
		chat.LastMessageID = &id
		chat.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, messageID uint) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.messageByID(messageID), nil
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID uint) ([]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var messages []model.Message
	for id, msg := range r.s.messages {
		if msg.ChatID == chatID {
			messages = append(messages, *r.s.messageByID(id))
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	return messages, nil
}

func (r *fakeMessageRepo) ListAttachments(ctx context.Context, chatID uint) ([]model.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var attachments []model.Attachment
	for _, msg := range r.s.messages {
		if msg.ChatID == chatID {
			attachments = append(attachments, msg.Attachments...)
		}
	}
	return attachments, nil
}

type fakeUnreadRepo struct{ s *memStore }

func (r *fakeUnreadRepo) Reset(ctx context.Context, chatID, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.unreads[[2]uint{chatID, userID}] = 0
	for i := range r.s.receipts {
		if r.s.receipts[i].ChatID == chatID && r.s.receipts[i].UserID == userID {
			r.s.receipts[i].Read = true
		}
	}
	return nil
}

func (r *fakeUnreadRepo) CountFor(ctx context.Context, chatID, userID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.unreads[[2]uint{chatID, userID}], nil
}

func (r *fakeUnreadRepo) CountsForChat(ctx context.Context, chatID uint) ([]model.ChatUnread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []model.ChatUnread
	for key, count := range r.s.unreads {
		if key[0] == chatID {
			rows = append(rows, model.ChatUnread{ChatID: chatID, UserID: key[1], Count: count})
		}
	}
	return rows, nil
}

type memCache struct {
	mu      sync.Mutex
	data    map[uint][]model.MessageView
	cleared []uint
}

func newMemCache() *memCache {
	return &memCache{data: make(map[uint][]model.MessageView)}
}

func (c *memCache) SaveMessage(ctx context.Context, chatID uint, view model.MessageView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Как RPUSHX: дописываем только в прогретый список
	if _, warm := c.data[chatID]; !warm {
		return nil
	}
	c.data[chatID] = append(c.data[chatID], view)
	return nil
}

func (c *memCache) GetMessages(ctx context.Context, chatID uint) ([]model.MessageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.MessageView(nil), c.data[chatID]...), nil
}

func (c *memCache) CacheMessages(ctx context.Context, chatID uint, views []model.MessageView) error {
	if len(views) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[chatID] = append([]model.MessageView(nil), views...)
	return nil
}

// expire имитирует истечение TTL ключа.
func (c *memCache) expire(chatID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, chatID)
}

func (c *memCache) ClearChat(ctx context.Context, chatID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, chatID)
	c.cleared = append(c.cleared, chatID)
	return nil
}

type fakeFiles struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	log     *opsLog
}

func (f *fakeFiles) Upload(ctx context.Context, chatID uint, file FileUpload) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	key := fmt.Sprintf("chats/%d/%d/%s", chatID, f.uploads, file.Filename)
	return "http://files.local/" + key, key, nil
}

func (f *fakeFiles) Delete(ctx context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKey)
	f.log.add("file:" + objectKey)
	return nil
}

type emittedEvent struct {
	Room    string
	Event   string
	Payload any
	Exclude uint
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (e *fakeEmitter) ToUser(userID uint, event string, payload any) {
	e.record(fmt.Sprintf("user:%d", userID), event, payload, 0)
}

func (e *fakeEmitter) ToChat(chatID uint, event string, payload any, excludeUserID uint) {
	e.record(fmt.Sprintf("chat:%d", chatID), event, payload, excludeUserID)
}

func (e *fakeEmitter) record(room, event string, payload any, exclude uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{Room: room, Event: event, Payload: payload, Exclude: exclude})
}

func (e *fakeEmitter) byEvent(event string) []emittedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emittedEvent
	for _, ev := range e.events {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (e *fakeEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

// fixture связывает сервисы с фейковыми зависимостями.
type fixture struct {
	store    *memStore
	userRepo *fakeUserRepo
	files    *fakeFiles
	emitter  *fakeEmitter
	cache    *memCache
	log      *opsLog

	users    UserService
	chats    ChatService
	messages MessageService
}

func newFixture() *fixture {
	log := &opsLog{}
	store := newMemStore(log)
	files := &fakeFiles{log: log}
	emitter := &fakeEmitter{}
	cache := newMemCache()

	userRepo := &fakeUserRepo{s: store}
	chatRepo := &fakeChatRepo{s: store}
	messageRepo := &fakeMessageRepo{s: store}
	unreadRepo := &fakeUnreadRepo{s: store}

	return &fixture{
		store:    store,
		userRepo: userRepo,
		files:    files,
		emitter:  emitter,
		cache:    cache,
		log:      log,
		users:    NewUserService(userRepo),
		chats:    NewChatService(chatRepo, userRepo, messageRepo, unreadRepo, cache, files, emitter),
		messages: NewMessageService(messageRepo, chatRepo, unreadRepo, cache, files, emitter),
	}
}

// addUser кладёт пользователя напрямую в хранилище: bcrypt в каждом
// тесте не нужен, регистрация проверяется отдельно в user_test.go.
func (f *fixture) addUser(t *testing.T, username string) uint {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", Password: "hash"}
	if err := f.userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create %s: %v", username, err)
	}
	return user.ID
}

func (f *fixture) sendText(t *testing.T, chatID, senderID uint, content string) *SendMessageResult {
	t.Helper()
	result, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ChatID: chatID, SenderID: senderID, Content: content,
	})
	if err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
	return result
}

func (f *fixture) sendFile(t *testing.T, chatID, senderID uint, filename string) *SendMessageResult {
	t.Helper()
	result, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ChatID:   chatID,
		SenderID: senderID,
		Files: []FileUpload{
			{Filename: filename, ContentType: "text/plain", Reader: strings.NewReader("data"), Size: 4},
		},
	})
	if err != nil {
		t.Fatalf("failed to send file message: %v", err)
	}
	return result
}
