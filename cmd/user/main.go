package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophguard/internal/client/cli"
	"github.com/dmitrijs2005/gophguard/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
