// Command todo-beautician is the Beautician shell for the shared todo list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nhle/todolist/internal/app"
	"github.com/nhle/todolist/internal/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, model.RoleBeautician, os.Args[1:], app.Options{})
}
