package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HamStudy/kubescroll/internal/cli"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cmd := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime))
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
