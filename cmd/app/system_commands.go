package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tcsantanello/tokengov/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunMigrations()
			},
		},
		{
			Name:  "status",
			Usage: "Report operational status",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "vault",
					Aliases: []string{"v"},
					Usage:   "Report status for a single vault instead of the whole process",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunStatus(ctx, cmd.String("vault"), cmd.String("format"), commands.DefaultIO().Writer)
			},
		},
	}
}
