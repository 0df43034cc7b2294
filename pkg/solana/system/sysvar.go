package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount = mustDecode("11111111111111111111111111111111")

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = mustDecode("SysvarRent111111111111111111111111111111111")

// RecentBlockhashesSysVar points to the system variable "Recent Blockhashes"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/recent_blockhashes.rs#L12-L15
var RecentBlockhashesSysVar = mustDecode("SysvarRecentB1ockHashes11111111111111111111")

// ClockSysVar points to the system variable "Clock"
var ClockSysVar = mustDecode("SysvarC1ock11111111111111111111111111111111")

func mustDecode(s string) ed25519.PublicKey {
	b, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	return b
}
