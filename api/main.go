// @title Chats App
// @version 0.1
// @description Real-time chat server with direct and group chats.

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
// @schemes http

package main

import (
	"log"

	"github.com/omkargadekar/chats-app/internal/app"
	"github.com/omkargadekar/chats-app/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	app.Run(cfg)
}
