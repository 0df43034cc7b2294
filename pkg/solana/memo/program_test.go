package memo

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solray/pkg/solana"
	"github.com/code-payments/solray/pkg/solana/solanatest"
)

func generateKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func TestInstruction(t *testing.T) {
	i, err := Instruction("hello, world!")
	require.NoError(t, err)
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "hello, world!", string(i.Data))

	signer := generateKey(t)
	i, err = Instruction("signed", solana.Writable(solana.Signer(signer)))
	require.NoError(t, err)
	require.Len(t, i.Accounts, 1)
	assert.True(t, i.Accounts[0].IsSigner)
	assert.False(t, i.Accounts[0].IsWritable)

	_, err = Instruction("bad", solana.Signer(ed25519.PrivateKey{1, 2, 3}))
	assert.ErrorIs(t, err, solana.ErrInvalidAuthority)

	_, err = Instruction(string([]byte{0xff, 0xfe}))
	assert.Equal(t, ErrInvalidMemo, err)
}

func TestDecompile(t *testing.T) {
	signer := generateKey(t)
	instruction, err := Instruction("hello, world", solana.Signer(signer))
	require.NoError(t, err)

	tx := solana.NewTransaction(make([]byte, 32), instruction)

	i, err := DecompileMemo(tx.Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello, world", string(i.Data))
	require.Len(t, i.Signers, 1)
	assert.Equal(t, signer.Public(), i.Signers[0])

	_, err = DecompileMemo(tx.Message, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	tx.Message.Accounts[tx.Message.Instructions[0].ProgramIndex] = generateKey(t).Public().(ed25519.PublicKey)
	_, err = DecompileMemo(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestProgram_Submit(t *testing.T) {
	wallet := generateKey(t)
	cosigner := generateKey(t)
	sc := solanatest.NewClient()

	p := NewProgram(wallet, sc, solana.CommitmentConfirmed)
	sig, err := p.Submit(context.Background(), "deployed", cosigner)
	require.NoError(t, err)

	submitted := sc.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, submitted[0].Signature(), sig)
	assert.EqualValues(t, 2, submitted[0].Message.Header.NumSignatures)

	decompiled, err := DecompileMemo(submitted[0].Message, 0)
	require.NoError(t, err)
	assert.Equal(t, "deployed", string(decompiled.Data))
	require.Len(t, decompiled.Signers, 1)
	assert.Equal(t, cosigner.Public(), decompiled.Signers[0])

	_, err = NewProgram(nil, sc, solana.CommitmentConfirmed).Submit(context.Background(), "unpaid")
	assert.Error(t, err)
	assert.Len(t, sc.Submitted(), 1)
}
