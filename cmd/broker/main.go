package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophguard/internal/broker"
	"github.com/dmitrijs2005/gophguard/internal/broker/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := broker.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
