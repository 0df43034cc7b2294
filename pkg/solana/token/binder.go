package token

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solray/pkg/metrics"
	"github.com/code-payments/solray/pkg/solana"
	"github.com/code-payments/solray/pkg/solana/system"
)

const metricsStructName = "token.program"

// NativeMint is the mint of wrapped SOL.
//
// Current key: So11111111111111111111111111111111111111112
var NativeMint = ed25519.PublicKey{6, 155, 136, 87, 254, 171, 129, 132, 251, 104, 127, 99, 70, 24, 192, 53, 218, 196, 57, 220, 26, 235, 59, 85, 152, 160, 240, 0, 0, 0, 0, 1}

// Program submits token program transactions on behalf of a wallet. The
// wallet pays the fees for every transaction and signs each one.
type Program struct {
	log        *logrus.Entry
	wallet     ed25519.PrivateKey
	client     solana.Client
	commitment solana.Commitment
}

// NewProgram binds the token program to a fee paying wallet. A zero
// commitment defers to the client's default.
func NewProgram(wallet ed25519.PrivateKey, client solana.Client, commitment solana.Commitment) *Program {
	return &Program{
		log:        logrus.StandardLogger().WithField("type", "token/program"),
		wallet:     wallet,
		client:     client,
		commitment: commitment,
	}
}

// Client returns a record reader sharing the program's RPC client.
func (p *Program) Client() *Client {
	return NewClient(p.client, nil)
}

type CreateMintParams struct {
	// Account is the keypair of the new mint. One is generated if nil.
	Account         ed25519.PrivateKey
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
	Decimals        byte
}

// CreateMint creates and initializes a mint with zero supply in a single
// transaction, returning the mint's keypair.
func (p *Program) CreateMint(ctx context.Context, params CreateMintParams) (ed25519.PrivateKey, error) {
	account, err := orNewKey(params.Account)
	if err != nil {
		return nil, err
	}

	create, err := system.CreateRentExemptAccount(p.client, p.payer(), public(account), ProgramKey, MintSize)
	if err != nil {
		return nil, err
	}
	initialize, err := InitializeMint(public(account), params.MintAuthority, params.FreezeAuthority, params.Decimals)
	if err != nil {
		return nil, err
	}

	if _, err := p.submit(ctx, "CreateMint", []solana.Instruction{create, initialize}, account); err != nil {
		return nil, err
	}
	return account, nil
}

type CreateAccountParams struct {
	// Account is the keypair of the new token account. One is generated if
	// nil.
	Account ed25519.PrivateKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

// CreateAccount creates and initializes a token account in a single
// transaction, returning the account's keypair.
func (p *Program) CreateAccount(ctx context.Context, params CreateAccountParams) (ed25519.PrivateKey, error) {
	account, err := orNewKey(params.Account)
	if err != nil {
		return nil, err
	}

	create, err := system.CreateRentExemptAccount(p.client, p.payer(), public(account), ProgramKey, AccountSize)
	if err != nil {
		return nil, err
	}
	initialize, err := InitializeAccount(public(account), params.Mint, params.Owner)
	if err != nil {
		return nil, err
	}

	if _, err := p.submit(ctx, "CreateAccount", []solana.Instruction{create, initialize}, account); err != nil {
		return nil, err
	}
	return account, nil
}

type CreateWrappedNativeAccountParams struct {
	// Account is the keypair of the new token account. One is generated if
	// nil.
	Account ed25519.PrivateKey
	Owner   ed25519.PublicKey
	// Amount is the number of lamports wrapped on top of the rent exempt
	// reserve.
	Amount uint64
}

// CreateWrappedNativeAccount creates a wrapped SOL account funded by the
// wallet. Creation, funding and initialization land in one transaction.
func (p *Program) CreateWrappedNativeAccount(ctx context.Context, params CreateWrappedNativeAccountParams) (ed25519.PrivateKey, error) {
	account, err := orNewKey(params.Account)
	if err != nil {
		return nil, err
	}

	create, err := system.CreateRentExemptAccount(p.client, p.payer(), public(account), ProgramKey, AccountSize)
	if err != nil {
		return nil, err
	}
	instructions := []solana.Instruction{create}

	if params.Amount > 0 {
		instructions = append(instructions, system.Transfer(p.payer(), public(account), params.Amount))
	}

	initialize, err := InitializeAccount(public(account), NativeMint, params.Owner)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, initialize)

	if _, err := p.submit(ctx, "CreateWrappedNativeAccount", instructions, account); err != nil {
		return nil, err
	}
	return account, nil
}

// MintTo mints new tokens into dest.
func (p *Program) MintTo(ctx context.Context, mint, dest ed25519.PublicKey, mintAuthority solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := MintTo(mint, dest, mintAuthority, amount, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "MintTo", instruction, mintAuthority, multiSigners)
}

// Approve lets delegate transfer up to amount from source.
func (p *Program) Approve(ctx context.Context, source, delegate ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := Approve(source, delegate, owner, amount, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Approve", instruction, owner, multiSigners)
}

// Revoke removes the delegate of source.
func (p *Program) Revoke(ctx context.Context, source ed25519.PublicKey, owner solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := Revoke(source, owner, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Revoke", instruction, owner, multiSigners)
}

// Burn destroys amount tokens held by account.
func (p *Program) Burn(ctx context.Context, account, mint ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := Burn(account, mint, owner, amount, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Burn", instruction, owner, multiSigners)
}

// Transfer moves amount tokens from source to dest.
func (p *Program) Transfer(ctx context.Context, source, dest ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := Transfer(source, dest, owner, amount, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Transfer", instruction, owner, multiSigners)
}

// SetAuthority replaces, or clears when newAuthority is nil, an authority of
// a mint or token account.
func (p *Program) SetAuthority(ctx context.Context, account ed25519.PublicKey, currentAuthority solana.Authority, newAuthority ed25519.PublicKey, authorityType AuthorityType, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := SetAuthority(account, currentAuthority, newAuthority, authorityType, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "SetAuthority", instruction, currentAuthority, multiSigners)
}

// CloseAccount closes account and sends its lamports to dest.
func (p *Program) CloseAccount(ctx context.Context, account, dest ed25519.PublicKey, owner solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := CloseAccount(account, dest, owner, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "CloseAccount", instruction, owner, multiSigners)
}

// Freeze freezes a token account using the mint's freeze authority.
func (p *Program) Freeze(ctx context.Context, account, mint ed25519.PublicKey, freezeAuthority solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := FreezeAccount(account, mint, freezeAuthority, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Freeze", instruction, freezeAuthority, multiSigners)
}

// Thaw thaws a frozen token account.
func (p *Program) Thaw(ctx context.Context, account, mint ed25519.PublicKey, freezeAuthority solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Signature, error) {
	instruction, err := ThawAccount(account, mint, freezeAuthority, multiSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	return p.submitAuthorized(ctx, "Thaw", instruction, freezeAuthority, multiSigners)
}

func (p *Program) submitAuthorized(ctx context.Context, method string, instruction solana.Instruction, authority solana.Authority, multiSigners []ed25519.PrivateKey) (solana.Signature, error) {
	signers := append(solana.AuthoritySigners(authority), multiSigners...)
	return p.submit(ctx, method, []solana.Instruction{instruction}, signers...)
}

func (p *Program) submit(ctx context.Context, method string, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, method)
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := p.log.WithField("method", method)

	txn, err := solana.AssembleTransaction(p.wallet, instructions, signers...)
	if err != nil {
		return sig, errors.Wrap(err, "failed to assemble transaction")
	}

	sig, err = p.client.SubmitAndConfirm(ctx, txn, p.commitment)
	if err != nil {
		log.WithError(err).Debug("transaction failed")
		return sig, err
	}

	log.WithField("signature", base58.Encode(sig[:])).Debug("transaction confirmed")
	return sig, nil
}

func (p *Program) payer() ed25519.PublicKey {
	if len(p.wallet) != ed25519.PrivateKeySize {
		return nil
	}
	return public(p.wallet)
}

func orNewKey(key ed25519.PrivateKey) (ed25519.PrivateKey, error) {
	if key != nil {
		if len(key) != ed25519.PrivateKeySize {
			return nil, errors.New("invalid account keypair")
		}
		return key, nil
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate account keypair")
	}
	return key, nil
}

func public(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}
