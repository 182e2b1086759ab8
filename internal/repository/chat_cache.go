package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omkargadekar/chats-app/internal/model"
)

const (
	cacheMaxMessages = 500
	cacheTTL         = 24 * time.Hour
)

// MessageCacheRepository — кеш собранных представлений сообщений в Redis.
// Хранит хвост переписки в порядке отправки (от старых к новым).
type MessageCacheRepository interface {
	SaveMessage(ctx context.Context, chatID uint, view model.MessageView) error
	GetMessages(ctx context.Context, chatID uint) ([]model.MessageView, error)
	CacheMessages(ctx context.Context, chatID uint, views []model.MessageView) error
	ClearChat(ctx context.Context, chatID uint) error
}

type messageCacheRepository struct {
	rdb *redis.Client
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

func NewMessageCacheRepository(rdb *redis.Client) MessageCacheRepository {
	return &messageCacheRepository{rdb: rdb}
}

func (r *messageCacheRepository) getMessageKey(chatID uint) string {
	return fmt.Sprintf("chat:%d:messages", chatID)
}

func (r *messageCacheRepository) SaveMessage(ctx context.Context, chatID uint, view model.MessageView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal message view: %w", err)
	}

	key := r.getMessageKey(chatID)

	// RPUSHX: дописываем только в прогретый список. Если ключ истёк,
	// список заново наполняет только полная прогрузка из базы — иначе
	// кеш из одного сообщения скрыл бы остальную историю.
	pushed, err := r.rdb.RPushX(ctx, key, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save message to redis: %w", err)
	}
	if pushed == 0 {
		return nil
	}

	// Держим только хвост переписки
	if err := r.rdb.LTrim(ctx, key, -cacheMaxMessages, -1).Err(); err != nil {
		return fmt.Errorf("failed to trim message list: %w", err)
	}

	if err := r.rdb.Expire(ctx, key, cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}

	return nil
}

func (r *messageCacheRepository) GetMessages(ctx context.Context, chatID uint) ([]model.MessageView, error) {
	key := r.getMessageKey(chatID)
	values, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get messages from redis: %w", err)
	}

	views := make([]model.MessageView, 0, len(values))
	for _, v := range values {
		var view model.MessageView
		if err := json.Unmarshal([]byte(v), &view); err != nil {
			// Битые записи пропускаем
			continue
		}
		views = append(views, view)
	}

	return views, nil
}

func (r *messageCacheRepository) CacheMessages(ctx context.Context, chatID uint, views []model.MessageView) error {
	if len(views) == 0 {
		return nil
	}

	if len(views) > cacheMaxMessages {
		views = views[len(views)-cacheMaxMessages:]
	}

	values := make([]interface{}, 0, len(views))
	for _, view := range views {
		data, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("failed to marshal message view: %w", err)
		}
		values = append(values, data)
	}

	key := r.getMessageKey(chatID)

	// MULTI/EXEC: прогрев одним махом, чтобы параллельные прогревы
	// не перемешивали и не дублировали записи
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to warm message cache: %w", err)
	}

	return nil
}

func (r *messageCacheRepository) ClearChat(ctx context.Context, chatID uint) error {
	return r.rdb.Del(ctx, r.getMessageKey(chatID)).Err()
}
