package app

import (
	"context"
	"log"

	"github.com/omkargadekar/chats-app/internal/config"
	"github.com/omkargadekar/chats-app/internal/handler"
	"github.com/omkargadekar/chats-app/internal/repository"
	"github.com/omkargadekar/chats-app/internal/service"
	"github.com/omkargadekar/chats-app/internal/ws"
)

func Run(cfg *config.Config) {
	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}

	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}

	rdb, err := repository.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	fileStore, err := service.NewS3FileStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := fileStore.HealthCheck(context.Background()); err != nil {
		log.Printf("⚠️ %v", err)
	}

	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	unreadRepo := repository.NewUnreadRepository(db)
	cache := repository.NewMessageCacheRepository(rdb)

	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(chatRepo, userRepo, messageRepo, unreadRepo, cache, fileStore, hub)
	messageService := service.NewMessageService(messageRepo, chatRepo, unreadRepo, cache, fileStore, hub)

	// Хаб дергает сервис за счётчиками при подписке сокета на чат
	hub.SetUnreadSource(messageService)

	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(chatService)
	messageHandler := handler.NewMessageHandler(messageService)
	wsHandler := handler.NewWSHandler(hub, userService)

	server := NewServer(userHandler, chatHandler, messageHandler, wsHandler)
	server.Run(cfg.ServerPort)
}
