package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tcsantanello/tokengov/cmd/app/commands"
)

func getVaultCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-vault",
			Usage: "Provision a new vault",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "alias",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Vault alias",
				},
				&cli.StringFlag{
					Name:     "enc-key",
					Required: true,
					Usage:    "Name of the encryption key to use for new tokens",
				},
				&cli.StringFlag{
					Name:  "mac-key",
					Usage: "Name of the MAC key used for value lookup hashing",
				},
				&cli.StringFlag{
					Name:  "format",
					Value: "RANDOM",
					Usage: "Token format (RANDOM, FP_RANDOM, DATE, EMAIL, L4, F6, F2L4, F6L4, ...)",
				},
				&cli.IntFlag{
					Name:  "value-len",
					Value: 0,
					Usage: "Maximum value length; sizes the token column and is part of the derived table name (0 uses a 255-wide column)",
				},
				&cli.BoolFlag{
					Name:  "durable",
					Value: false,
					Usage: "Return the existing token when the same value is tokenized again, instead of minting a new one",
				},
				&cli.StringFlag{
					Name:  "table",
					Usage: "Physical table name (defaults to a name derived from alias, value length, format and durability)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateVault(
					ctx,
					cmd.String("alias"),
					cmd.String("enc-key"),
					cmd.String("mac-key"),
					cmd.String("format"),
					int(cmd.Int("value-len")),
					cmd.Bool("durable"),
					cmd.String("table"),
				)
			},
		},
		{
			Name:  "rekey-vault",
			Usage: "Rotate a vault's current encryption key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "vault",
					Aliases:  []string{"v"},
					Required: true,
					Usage:    "Vault name",
				},
				&cli.StringFlag{
					Name:     "enc-key",
					Required: true,
					Usage:    "Name of the new encryption key",
				},
				&cli.BoolFlag{
					Name:  "deep",
					Value: false,
					Usage: "Re-encrypt every existing token instead of only future writes",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunRekeyVault(ctx, cmd.String("vault"), cmd.String("enc-key"), cmd.Bool("deep"))
			},
		},
	}
}
