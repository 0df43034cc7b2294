package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/solray/pkg/solana"
	"github.com/code-payments/solray/pkg/solana/binary"
)

var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
	commandCreateAccountWithSeed
	commandAdvanceNonceAccount
	commandWithdrawNonceAccount
	commandInitializeNonceAccount
	commandAuthorizeNonceAccount
	commandAllocate
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	command := commandCreateAccount
	data := binary.Encode(
		binary.Uint32(&command),
		binary.Uint64(&lamports),
		binary.Uint64(&size),
		binary.Key32(&owner),
	)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// CreateRentExemptAccount asks the client for the rent exempt minimum of an
// account of the given size and funds the new account with exactly that much.
func CreateRentExemptAccount(client solana.Client, funder, address, owner ed25519.PublicKey, size uint64) (solana.Instruction, error) {
	lamports, err := client.GetMinimumBalanceForRentExemption(size)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to get rent exempt minimum")
	}

	return CreateAccount(funder, address, owner, lamports, size), nil
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := instructionWithCommand(m, index, commandCreateAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	var command uint32
	v := &DecompiledCreateAccount{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
	}
	err = binary.Decode(
		i.Data,
		binary.Uint32(&command),
		binary.Uint64(&v.Lamports),
		binary.Uint64(&v.Size),
		binary.Key32(&v.Owner),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L74-L78
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	command := commandTransfer
	data := binary.Encode(
		binary.Uint32(&command),
		binary.Uint64(&lamports),
	)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := instructionWithCommand(m, index, commandTransfer)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	var command uint32
	v := &DecompiledTransfer{
		From: m.Accounts[i.Accounts[0]],
		To:   m.Accounts[i.Accounts[1]],
	}
	if err := binary.Decode(i.Data, binary.Uint32(&command), binary.Uint64(&v.Lamports)); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return v, nil
}

func instructionWithCommand(m solana.Message, index int, command uint32) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey[:]) {
		return i, solana.ErrIncorrectProgram
	}

	prefix := binary.Encode(binary.Uint32(&command))
	if !bytes.HasPrefix(i.Data, prefix) {
		return i, solana.ErrIncorrectInstruction
	}

	return i, nil
}
