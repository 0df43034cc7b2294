package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/code-payments/solray/pkg/wallet"
)

var bitsFlag = cli.IntFlag{
	Name:  "bits",
	Usage: "entropy size in bits: a multiple of 32 between 128 and 256",
	Value: wallet.DefaultEntropySize,
}

var mnemonicCommand = cli.Command{
	Name:   "mnemonic",
	Usage:  "Generate a new BIP-39 mnemonic phrase",
	Flags:  []cli.Flag{&bitsFlag},
	Action: mnemonicAction,
}

func mnemonicAction(ctx *cli.Context) error {
	phrase, err := wallet.GenerateMnemonic(ctx.Int(bitsFlag.Name))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(ctx.App.Writer, phrase)
	return err
}
