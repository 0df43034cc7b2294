package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/code-payments/solray/pkg/solana"
)

var endpointFlag = cli.StringFlag{
	Name:  "endpoint",
	Usage: "overrides the configured rpc endpoint",
}

var balanceCommand = cli.Command{
	Name:      "balance",
	Usage:     "Print the lamport balance of an address",
	ArgsUsage: "<address>",
	Flags:     []cli.Flag{&endpointFlag},
	Action:    balanceAction,
}

func balanceAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	account, err := parsePublicKey(ctx.Args().First())
	if err != nil {
		return err
	}

	config := getConfig(ctx)
	if ctx.IsSet(endpointFlag.Name) {
		config.RPCEndpoint = ctx.String(endpointFlag.Name)
	}

	clientConfig, err := config.clientConfig()
	if err != nil {
		return err
	}
	client, err := solana.NewWithConfig(clientConfig)
	if err != nil {
		return err
	}

	lamports, err := client.GetBalance(account)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(ctx.App.Writer, lamports)
	return err
}
