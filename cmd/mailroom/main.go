package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/mailroom/cmd/mailroom/accounts"
	"github.com/andrebq/mailroom/cmd/mailroom/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mailroom",
		Usage: "Collect job applications behind a login",
		Commands: []*cli.Command{
			serve.Cmd(),
			accounts.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
