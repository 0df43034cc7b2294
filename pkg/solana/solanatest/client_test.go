package solanatest

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solray/pkg/solana"
)

func generateKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func TestClient_SubmitAndConfirm(t *testing.T) {
	c := NewClient()
	payer, program := generateKey(t), generateKey(t)

	txn, err := solana.AssembleTransaction(payer, []solana.Instruction{
		solana.NewInstruction(program.Public().(ed25519.PublicKey), []byte{1}),
	})
	require.NoError(t, err)

	sig, err := c.SubmitAndConfirm(context.Background(), txn, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Transaction.Signature(), sig)

	submitted := c.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, txn.Transaction, submitted[0])

	status, err := c.GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.True(t, status.Finalized())
}

func TestClient_SubmitHook(t *testing.T) {
	c := NewClient()
	payer, program := generateKey(t), generateKey(t)

	failure := solana.TransactionErrorFromInstructionError(&solana.InstructionError{Index: 0, Err: solana.CustomError(4)})
	c.SetSubmitHook(func(txn solana.Transaction) error { return failure })

	txn, err := solana.AssembleTransaction(payer, []solana.Instruction{
		solana.NewInstruction(program.Public().(ed25519.PublicKey), nil),
	})
	require.NoError(t, err)

	_, err = c.SubmitAndConfirm(context.Background(), txn, solana.CommitmentConfirmed)
	assert.Equal(t, failure, err)
	assert.Len(t, c.Submitted(), 1)

	transient := errors.New("unavailable")
	c.SetSubmitHook(nil)
	c.FailNextSubmit(transient)
	_, err = c.SubmitAndConfirm(context.Background(), txn, solana.CommitmentConfirmed)
	assert.Equal(t, transient, err)
	assert.Len(t, c.Submitted(), 1)
}

func TestClient_RejectsBadSignatures(t *testing.T) {
	c := NewClient()
	payer, program := generateKey(t), generateKey(t)

	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), solana.NewInstruction(program.Public().(ed25519.PublicKey), nil))
	bh, err := c.GetLatestBlockhash()
	require.NoError(t, err)
	txn.SetBlockhash(bh)

	_, err = c.SubmitTransaction(txn, solana.CommitmentConfirmed)
	assert.Error(t, err)

	require.NoError(t, txn.Sign(payer))
	txn.SetBlockhash(solana.Blockhash{})
	_, err = c.SubmitTransaction(txn, solana.CommitmentConfirmed)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorBlockhashNotFound, txErr.ErrorKey())

	assert.Empty(t, c.Submitted())
}

func TestClient_State(t *testing.T) {
	c := NewClient()
	account := generateKey(t).Public().(ed25519.PublicKey)

	_, err := c.GetAccountInfo(account, solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrNoAccountInfo, err)
	_, err = c.GetBalance(account)
	assert.Equal(t, solana.ErrNoBalance, err)

	c.SetAccount(account, solana.AccountInfo{Data: []byte{1}, Lamports: 10})
	info, err := c.GetAccountInfo(account, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, info.Data)

	_, err = c.RequestAirdrop(account, 500, solana.CommitmentConfirmed)
	require.NoError(t, err)
	balance, err := c.GetBalance(account)
	require.NoError(t, err)
	assert.EqualValues(t, 500, balance)

	rent, err := c.GetMinimumBalanceForRentExemption(165)
	require.NoError(t, err)
	assert.EqualValues(t, 2039280, rent)
	assert.Equal(t, 1, c.RentCalls())
}
