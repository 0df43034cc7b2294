package token

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/solray/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrOwnerMismatch indicates the account exists but is not owned by the
	// token program.
	ErrOwnerMismatch = errors.New("account owner mismatch")
	// ErrMintMismatch indicates a token account belonging to a different mint
	// than the client is bound to.
	ErrMintMismatch = errors.New("token account mint mismatch")
)

// OwnerMismatchError carries the program that actually owns an account.
type OwnerMismatchError struct {
	Expected ed25519.PublicKey
	Actual   ed25519.PublicKey
}

func (e *OwnerMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", ErrOwnerMismatch, base58.Encode(e.Expected), base58.Encode(e.Actual))
}

func (e *OwnerMismatchError) Is(target error) bool {
	return target == ErrOwnerMismatch
}

// Client reads token program records.
type Client struct {
	sc      solana.Client
	program ed25519.PublicKey
	mint    ed25519.PublicKey
}

// NewClient creates a new Client. A non-nil mint restricts GetAccount to
// accounts of that mint.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:      sc,
		program: ProgramKey,
		mint:    mint,
	}
}

func (c *Client) Token() ed25519.PublicKey {
	return c.mint
}

// GetMint returns the mint record at the address.
func (c *Client) GetMint(address ed25519.PublicKey, commitment solana.Commitment) (*Mint, error) {
	data, err := c.getRecord(address, commitment)
	if err != nil {
		return nil, err
	}

	var mint Mint
	if err := mint.Unmarshal(data); err != nil {
		return nil, errors.Wrap(err, "invalid mint")
	}
	return &mint, nil
}

// GetAccount returns the token account info for the specified account.
//
// If the client is bound to a mint and the account belongs to a different
// one, ErrMintMismatch is returned.
func (c *Client) GetAccount(address ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	data, err := c.getRecord(address, commitment)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := account.Unmarshal(data); err != nil {
		return nil, errors.Wrap(err, "invalid token account")
	}

	if c.mint != nil && !bytes.Equal(c.mint, account.Mint) {
		return nil, ErrMintMismatch
	}

	return &account, nil
}

// GetMultisig returns the multisig record at the address.
func (c *Client) GetMultisig(address ed25519.PublicKey, commitment solana.Commitment) (*Multisig, error) {
	data, err := c.getRecord(address, commitment)
	if err != nil {
		return nil, err
	}

	var multisig Multisig
	if err := multisig.Unmarshal(data); err != nil {
		return nil, errors.Wrap(err, "invalid multisig")
	}
	return &multisig, nil
}

func (c *Client) getRecord(address ed25519.PublicKey, commitment solana.Commitment) ([]byte, error) {
	info, err := c.sc.GetAccountInfo(address, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(info.Owner, c.program) {
		return nil, &OwnerMismatchError{Expected: c.program, Actual: info.Owner}
	}

	return info.Data, nil
}
