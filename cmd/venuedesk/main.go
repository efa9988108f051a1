// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/venuedesk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)

	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
