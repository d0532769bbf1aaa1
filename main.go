// Command portal is the root install target; it behaves exactly like
// cmd/portal so that `go install github.com/Makepad-fr/portal@latest` works.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/portal/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args, version)
	stop()
	os.Exit(cli.ExitCode(err))
}
