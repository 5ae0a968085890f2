package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/wordbook/internal/server"
	"github.com/dmitrijs2005/wordbook/internal/server/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		return
	}

	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
