package token

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/solray/pkg/solana"
	"github.com/code-payments/solray/pkg/solana/binary"
	"github.com/code-payments/solray/pkg/solana/system"
)

// ProgramKey is the address of the token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo
	CommandBurn
	CommandCloseAccount
	CommandFreezeAccount
	CommandThawAccount
	CommandTransferChecked
	CommandApproveChecked
	CommandMintToChecked
	CommandBurnChecked

	CommandUnknown = Command(math.MaxUint8)
)

// Custom program errors returned by the token program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

var (
	// ErrInvalidKey indicates a public key argument that is not 32 bytes.
	ErrInvalidKey = errors.New("invalid public key")
	// ErrInvalidSignerCount indicates a multisig configuration outside of
	// 1 <= m <= n <= MaxSigners.
	ErrInvalidSignerCount = errors.New("invalid number of multisig signers")
)

type AuthorityType byte

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountHolder
	AuthorityTypeCloseAccount
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L28-L39
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	if len(mintAuthority) != ed25519.PublicKeySize {
		return solana.Instruction{}, errors.Wrap(ErrInvalidKey, "mint authority")
	}
	if len(freezeAuthority) != 0 && len(freezeAuthority) != ed25519.PublicKeySize {
		return solana.Instruction{}, errors.Wrap(ErrInvalidKey, "freeze authority")
	}

	command := uint8(CommandInitializeMint)
	data := binary.Encode(
		binary.Uint8(&command),
		binary.Uint8(&decimals),
		binary.Key32(&mintAuthority),
		binary.OptionalKey32(&freezeAuthority, binary.OptionTag8),
	)

	return newInstruction(
		data,
		solana.Writable(solana.Reference(mint)),
		solana.Reference(system.RentSysVar),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := instructionWithCommand(m, index, CommandInitializeMint)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.Errorf("invalid rent program")
	}

	var command uint8
	v := &DecompiledInitializeMint{
		Mint: m.Accounts[i.Accounts[0]],
	}
	err = binary.Decode(
		i.Data,
		binary.Uint8(&command),
		binary.Uint8(&v.Decimals),
		binary.Key32(&v.MintAuthority),
		binary.OptionalKey32(&v.FreezeAuthority, binary.OptionTag8),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(account, mint, owner ed25519.PublicKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner/multisignature.
	//   3. `[]` Rent sysvar
	return newInstruction(
		[]byte{byte(CommandInitializeAccount)},
		solana.Writable(solana.Reference(account)),
		solana.Reference(mint),
		solana.Reference(owner),
		solana.Reference(system.RentSysVar),
	)
}

type DecompiledInitializeAccount struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	i, err := instructionWithCommand(m, index, CommandInitializeAccount)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[3]]) {
		return nil, errors.Errorf("invalid rent program")
	}

	return &DecompiledInitializeAccount{
		Account: m.Accounts[i.Accounts[0]],
		Mint:    m.Accounts[i.Accounts[1]],
		Owner:   m.Accounts[i.Accounts[2]],
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L57-L74
func InitializeMultisig(multisig ed25519.PublicKey, required byte, signers ...ed25519.PublicKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The multisignature account to initialize.
	//   1. `[]` Rent sysvar
	//   2. ..2+N. `[]` The signer accounts, must equal to N where 1 <= N <= 11.
	if len(signers) == 0 || len(signers) > MaxSigners {
		return solana.Instruction{}, errors.Wrapf(ErrInvalidSignerCount, "n = %d", len(signers))
	}
	if required == 0 || int(required) > len(signers) {
		return solana.Instruction{}, errors.Wrapf(ErrInvalidSignerCount, "m = %d", required)
	}

	auths := []solana.Authority{
		solana.Writable(solana.Reference(multisig)),
		solana.Reference(system.RentSysVar),
	}
	for _, s := range signers {
		auths = append(auths, solana.Reference(s))
	}

	return newInstruction([]byte{byte(CommandInitializeMultisig), required}, auths...)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, dest ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The source account's owner/delegate.
	//
	//   * Multisignature owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[]` The source account's multisignature owner/delegate.
	//   3. ..3+M `[signer]` M signer accounts.
	return newInstruction(
		amountData(CommandTransfer, amount),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(source)),
			solana.Writable(solana.Reference(dest)),
		)...,
	)
}

type DecompiledTransfer struct {
	Source       ed25519.PublicKey
	Destination  ed25519.PublicKey
	Owner        ed25519.PublicKey
	MultiSigners []ed25519.PublicKey
	Amount       uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := instructionWithCommand(m, index, CommandTransfer)
	if err != nil {
		return nil, err
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledTransfer{
		Source:       m.Accounts[i.Accounts[0]],
		Destination:  m.Accounts[i.Accounts[1]],
		Owner:        m.Accounts[i.Accounts[2]],
		MultiSigners: accountsFrom(m, i, 3),
	}
	if v.Amount, err = decodeAmount(i.Data); err != nil {
		return nil, err
	}
	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L93-L108
func Approve(source, delegate ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The source account.
	//   1. `[]` The delegate.
	//   2. `[signer]` The source account owner.
	//
	//   * Multisignature owner
	//   0. `[writable]` The source account.
	//   1. `[]` The delegate.
	//   2. `[]` The source account's multisignature owner.
	//   3. ..3+M `[signer]` M signer accounts
	return newInstruction(
		amountData(CommandApprove, amount),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(source)),
			solana.Reference(delegate),
		)...,
	)
}

type DecompiledApprove struct {
	Source   ed25519.PublicKey
	Delegate ed25519.PublicKey
	Owner    ed25519.PublicKey
	Amount   uint64
}

func DecompileApprove(m solana.Message, index int) (*DecompiledApprove, error) {
	i, err := instructionWithCommand(m, index, CommandApprove)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledApprove{
		Source:   m.Accounts[i.Accounts[0]],
		Delegate: m.Accounts[i.Accounts[1]],
		Owner:    m.Accounts[i.Accounts[2]],
	}
	if v.Amount, err = decodeAmount(i.Data); err != nil {
		return nil, err
	}
	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L110-L121
func Revoke(source ed25519.PublicKey, owner solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The source account.
	//   1. `[signer]` The source account owner.
	//
	//   * Multisignature owner
	//   0. `[writable]` The source account.
	//   1. `[]` The source account's multisignature owner.
	//   2. ..2+M `[signer]` M signer accounts
	return newInstruction(
		[]byte{byte(CommandRevoke)},
		withMultisig(owner, multiSigners, solana.Writable(solana.Reference(source)))...,
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L128-L139
//
// A nil newAuthority clears the authority.
func SetAuthority(account ed25519.PublicKey, currentAuthority solana.Authority, newAuthority ed25519.PublicKey, authorityType AuthorityType, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Sets a new authority of a mint or account.
	//
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[signer]` The current authority of the mint or account.
	//
	//   * Multisignature authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[]` The mint's or account's multisignature authority.
	//   2. ..2+M `[signer]` M signer accounts
	if len(newAuthority) != 0 && len(newAuthority) != ed25519.PublicKeySize {
		return solana.Instruction{}, errors.Wrap(ErrInvalidKey, "new authority")
	}

	data := []byte{byte(CommandSetAuthority), byte(authorityType), 0}
	if len(newAuthority) > 0 {
		data[2] = 1
		data = append(data, newAuthority...)
	}

	return newInstruction(
		data,
		withMultisig(currentAuthority, multiSigners, solana.Writable(solana.Reference(account)))...,
	)
}

type DecompiledSetAuthority struct {
	Account          ed25519.PublicKey
	CurrentAuthority ed25519.PublicKey
	NewAuthority     ed25519.PublicKey
	Type             AuthorityType
}

func DecompileSetAuthority(m solana.Message, index int) (*DecompiledSetAuthority, error) {
	i, err := instructionWithCommand(m, index, CommandSetAuthority)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) < 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < 3 {
		return nil, errors.Errorf("invalid data size: %d (expect at least 3)", len(i.Data))
	}
	if i.Data[2] == 0 && len(i.Data) != 3 {
		return nil, errors.Errorf("invalid data size: %d (expect 3)", len(i.Data))
	}
	if i.Data[2] == 1 && len(i.Data) != 3+ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid data size: %d (expect %d)", len(i.Data), 3+ed25519.PublicKeySize)
	}
	if i.Data[2] > 1 {
		return nil, binary.ErrInvalidOptionTag
	}

	decompiled := &DecompiledSetAuthority{
		Account:          m.Accounts[i.Accounts[0]],
		CurrentAuthority: m.Accounts[i.Accounts[1]],
		Type:             AuthorityType(i.Data[1]),
	}

	if i.Data[2] == 1 {
		decompiled.NewAuthority = i.Data[3 : 3+ed25519.PublicKeySize]
	}

	return decompiled, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L155
func MintTo(mint, dest ed25519.PublicKey, mintAuthority solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	//
	//   * Multisignature authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[]` The mint's multisignature mint-tokens authority.
	//   3. ..3+M `[signer]` M signer accounts.
	return newInstruction(
		amountData(CommandMintTo, amount),
		withMultisig(
			mintAuthority,
			multiSigners,
			solana.Writable(solana.Reference(mint)),
			solana.Writable(solana.Reference(dest)),
		)...,
	)
}

type DecompiledMintTo struct {
	Mint          ed25519.PublicKey
	Destination   ed25519.PublicKey
	MintAuthority ed25519.PublicKey
	Amount        uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, err := instructionWithCommand(m, index, CommandMintTo)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledMintTo{
		Mint:          m.Accounts[i.Accounts[0]],
		Destination:   m.Accounts[i.Accounts[1]],
		MintAuthority: m.Accounts[i.Accounts[2]],
	}
	if v.Amount, err = decodeAmount(i.Data); err != nil {
		return nil, err
	}
	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L157-L170
func Burn(account, mint ed25519.PublicKey, owner solana.Authority, amount uint64, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The account to burn from.
	//   1. `[writable]` The token mint.
	//   2. `[signer]` The account's owner/delegate.
	//
	//   * Multisignature owner/delegate
	//   0. `[writable]` The account to burn from.
	//   1. `[writable]` The token mint.
	//   2. `[]` The account's multisignature owner/delegate.
	//   3. ..3+M `[signer]` M signer accounts.
	return newInstruction(
		amountData(CommandBurn, amount),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(account)),
			solana.Writable(solana.Reference(mint)),
		)...,
	)
}

type DecompiledBurn struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
	Amount  uint64
}

func DecompileBurn(m solana.Message, index int) (*DecompiledBurn, error) {
	i, err := instructionWithCommand(m, index, CommandBurn)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledBurn{
		Account: m.Accounts[i.Accounts[0]],
		Mint:    m.Accounts[i.Accounts[1]],
		Owner:   m.Accounts[i.Accounts[2]],
	}
	if v.Amount, err = decodeAmount(i.Data); err != nil {
		return nil, err
	}
	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L183-L197
func CloseAccount(account, dest ed25519.PublicKey, owner solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Close an account by transferring all its SOL to the destination account.
	// Non-native accounts may only be closed if its token amount is zero.
	//
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The account's owner.
	//
	//   * Multisignature owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[]` The account's multisignature owner.
	//   3. ..3+M `[signer]` M signer accounts.
	return newInstruction(
		[]byte{byte(CommandCloseAccount)},
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(account)),
			solana.Writable(solana.Reference(dest)),
		)...,
	)
}

type DecompiledCloseAccount struct {
	Account     ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
}

func DecompileCloseAccount(m solana.Message, index int) (*DecompiledCloseAccount, error) {
	i, err := instructionWithCommand(m, index, CommandCloseAccount)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	return &DecompiledCloseAccount{
		Account:     m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Owner:       m.Accounts[i.Accounts[2]],
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L199-L211
func FreezeAccount(account, mint ed25519.PublicKey, freezeAuthority solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The account to freeze.
	//   1. `[]` The token mint.
	//   2. `[signer]` The mint freeze authority.
	//
	//   * Multisignature owner
	//   0. `[writable]` The account to freeze.
	//   1. `[]` The token mint.
	//   2. `[]` The mint's multisignature freeze authority.
	//   3. ..3+M `[signer]` M signer accounts.
	return newInstruction(
		[]byte{byte(CommandFreezeAccount)},
		withMultisig(
			freezeAuthority,
			multiSigners,
			solana.Writable(solana.Reference(account)),
			solana.Reference(mint),
		)...,
	)
}

// ThawAccount takes the same accounts as FreezeAccount.
func ThawAccount(account, mint ed25519.PublicKey, freezeAuthority solana.Authority, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	return newInstruction(
		[]byte{byte(CommandThawAccount)},
		withMultisig(
			freezeAuthority,
			multiSigners,
			solana.Writable(solana.Reference(account)),
			solana.Reference(mint),
		)...,
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L230-L252
func TransferChecked(source, mint, dest ed25519.PublicKey, owner solana.Authority, amount uint64, decimals byte, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[signer]` The source account's owner/delegate.
	//
	//   * Multisignature owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[]` The source account's multisignature owner/delegate.
	//   4. ..4+M `[signer]` M signer accounts.
	return newInstruction(
		checkedData(CommandTransferChecked, amount, decimals),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(source)),
			solana.Reference(mint),
			solana.Writable(solana.Reference(dest)),
		)...,
	)
}

type DecompiledTransferChecked struct {
	Source       ed25519.PublicKey
	Mint         ed25519.PublicKey
	Destination  ed25519.PublicKey
	Owner        ed25519.PublicKey
	MultiSigners []ed25519.PublicKey
	Amount       uint64
	Decimals     byte
}

func DecompileTransferChecked(m solana.Message, index int) (*DecompiledTransferChecked, error) {
	i, err := instructionWithCommand(m, index, CommandTransferChecked)
	if err != nil {
		return nil, err
	}
	// note: we do < 4 instead of != 4 in order to support multisig cases.
	if len(i.Accounts) < 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledTransferChecked{
		Source:       m.Accounts[i.Accounts[0]],
		Mint:         m.Accounts[i.Accounts[1]],
		Destination:  m.Accounts[i.Accounts[2]],
		Owner:        m.Accounts[i.Accounts[3]],
		MultiSigners: accountsFrom(m, i, 4),
	}

	var command uint8
	if err := binary.Decode(i.Data, binary.Uint8(&command), binary.Uint64(&v.Amount), binary.Uint8(&v.Decimals)); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}
	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L254-L274
func ApproveChecked(source, mint, delegate ed25519.PublicKey, owner solana.Authority, amount uint64, decimals byte, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[]` The delegate.
	//   3. `[signer]` The source account owner, or its multisignature owner
	//      followed by M signer accounts.
	return newInstruction(
		checkedData(CommandApproveChecked, amount, decimals),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(source)),
			solana.Reference(mint),
			solana.Reference(delegate),
		)...,
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L276-L294
func MintToChecked(mint, dest ed25519.PublicKey, mintAuthority solana.Authority, amount uint64, decimals byte, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	return newInstruction(
		checkedData(CommandMintToChecked, amount, decimals),
		withMultisig(
			mintAuthority,
			multiSigners,
			solana.Writable(solana.Reference(mint)),
			solana.Writable(solana.Reference(dest)),
		)...,
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L296-L314
func BurnChecked(account, mint ed25519.PublicKey, owner solana.Authority, amount uint64, decimals byte, multiSigners ...ed25519.PrivateKey) (solana.Instruction, error) {
	return newInstruction(
		checkedData(CommandBurnChecked, amount, decimals),
		withMultisig(
			owner,
			multiSigners,
			solana.Writable(solana.Reference(account)),
			solana.Writable(solana.Reference(mint)),
		)...,
	)
}

func newInstruction(data []byte, auths ...solana.Authority) (solana.Instruction, error) {
	accounts, err := solana.ResolveAuthorities(auths...)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(ProgramKey, data, accounts...), nil
}

// withMultisig appends the authority, and its co-signers as a group if any,
// after the instruction's fixed accounts.
func withMultisig(authority solana.Authority, multiSigners []ed25519.PrivateKey, fixed ...solana.Authority) []solana.Authority {
	auths := append(fixed, authority)
	if len(multiSigners) == 0 {
		return auths
	}

	members := make([]solana.Authority, len(multiSigners))
	for i, s := range multiSigners {
		members[i] = solana.Signer(s)
	}
	return append(auths, solana.Group(members...))
}

func amountData(command Command, amount uint64) []byte {
	c := uint8(command)
	return binary.Encode(binary.Uint8(&c), binary.Uint64(&amount))
}

func checkedData(command Command, amount uint64, decimals byte) []byte {
	c := uint8(command)
	return binary.Encode(binary.Uint8(&c), binary.Uint64(&amount), binary.Uint8(&decimals))
}

func decodeAmount(data []byte) (amount uint64, err error) {
	var command uint8
	if err := binary.Decode(data, binary.Uint8(&command), binary.Uint64(&amount)); err != nil {
		return 0, errors.Wrap(err, "invalid instruction data")
	}
	return amount, nil
}

func accountsFrom(m solana.Message, i solana.CompiledInstruction, start int) []ed25519.PublicKey {
	if len(i.Accounts) <= start {
		return nil
	}

	keys := make([]ed25519.PublicKey, 0, len(i.Accounts)-start)
	for _, idx := range i.Accounts[start:] {
		keys = append(keys, m.Accounts[idx])
	}
	return keys
}

func instructionWithCommand(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return i, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{byte(command)}) {
		return i, solana.ErrIncorrectInstruction
	}

	return i, nil
}
