package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cronforge/jobstore/internal/app"
)

func main() {
	env := flag.String("env", "development", "runtime environment")
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	a := app.NewApp(*env, *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.RunWithContext(ctx); err != nil {
		log.Fatalf("jobstore exited with error: %v", err)
	}
}
