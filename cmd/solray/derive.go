package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/code-payments/solray/pkg/wallet"
)

var (
	mnemonicFlag = cli.StringFlag{
		Name:    "mnemonic",
		Usage:   "BIP-39 phrase of the base wallet",
		EnvVars: []string{envPrefix + "MNEMONIC"},
	}

	countFlag = cli.UintFlag{
		Name:  "count",
		Usage: "number of sub-wallets to print",
		Value: 1,
	}

	offsetFlag = cli.UintFlag{
		Name:  "offset",
		Usage: "index of the first sub-wallet",
	}
)

var deriveCommand = cli.Command{
	Name:   "derive",
	Usage:  "Print the addresses of the hardened sub-wallets of a mnemonic",
	Flags:  []cli.Flag{&mnemonicFlag, &countFlag, &offsetFlag},
	Action: deriveAction,
}

func deriveAction(ctx *cli.Context) error {
	phrase := ctx.String(mnemonicFlag.Name)
	if len(phrase) == 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	base, err := wallet.FromMnemonic(phrase)
	if err != nil {
		return err
	}

	offset := ctx.Uint(offsetFlag.Name)
	for i := offset; i < offset+ctx.Uint(countFlag.Name); i++ {
		child, err := base.Derive(fmt.Sprintf("%d'", i))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(ctx.App.Writer, "%s %s\n", child.Path(), child.Address()); err != nil {
			return err
		}
	}
	return nil
}
