package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mtlprog/shareholders/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(config.Load())
	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatalf("An error occurred: %v", err)
	}
}
