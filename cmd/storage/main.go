package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophguard/internal/storage"
	"github.com/dmitrijs2005/gophguard/internal/storage/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := storage.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
