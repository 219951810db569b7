package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/leancanvas-backend/internal/app"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "optional YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		application.Log.Error("server stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Log.Info("server stopped")
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
