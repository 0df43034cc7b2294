package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/solray/pkg/solana"
)

var (
	programFlag = cli.StringFlag{
		Name:     "program",
		Usage:    "base58 program address",
		Required: true,
	}
)

const seedFlagName = "seed"

// newPDACommand builds the command per app, since a StringSliceFlag keeps
// parsed values between runs.
func newPDACommand() *cli.Command {
	return &cli.Command{
		Name:  "pda",
		Usage: "Find the program address and bump seed for a program and seeds",
		Flags: []cli.Flag{
			&programFlag,
			&cli.StringSliceFlag{
				Name:  seedFlagName,
				Usage: "seed value, repeatable: utf-8 text, or prefixed with hex: or pubkey:",
			},
		},
		Action: pdaAction,
	}
}

func pdaAction(ctx *cli.Context) error {
	program, err := parsePublicKey(ctx.String(programFlag.Name))
	if err != nil {
		return errors.Wrap(err, "invalid program")
	}

	var seeds [][]byte
	for _, raw := range ctx.StringSlice(seedFlagName) {
		seed, err := parseSeed(raw)
		if err != nil {
			return errors.Wrapf(err, "invalid seed %q", raw)
		}
		seeds = append(seeds, seed)
	}

	address, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(ctx.App.Writer, "%s %d\n", base58.Encode(address), bump)
	return err
}

func parseSeed(raw string) ([]byte, error) {
	switch {
	case strings.HasPrefix(raw, "hex:"):
		return hex.DecodeString(strings.TrimPrefix(raw, "hex:"))
	case strings.HasPrefix(raw, "pubkey:"):
		return parsePublicKey(strings.TrimPrefix(raw, "pubkey:"))
	default:
		return []byte(raw), nil
	}
}

func parsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("expected %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return b, nil
}
