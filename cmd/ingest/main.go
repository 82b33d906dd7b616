package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Spok95/curriculum-sync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
