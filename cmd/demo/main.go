package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/candirank/internal/demo"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := demo.NewRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
