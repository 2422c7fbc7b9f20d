package main

import (
	"context"
	"fmt"
	"os"

	"github.com/avilks/passvault/internal/client/cli"
	"github.com/avilks/passvault/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app := cli.NewApp(cfg)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
