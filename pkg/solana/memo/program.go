package memo

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solray/pkg/metrics"
	"github.com/code-payments/solray/pkg/solana"
)

const metricsStructName = "memo.program"

// ProgramKey is the address of the memo program.
//
// Current key: MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr
var ProgramKey = ed25519.PublicKey{5, 74, 83, 90, 153, 41, 33, 6, 77, 36, 232, 113, 96, 218, 56, 124, 124, 53, 181, 221, 188, 146, 187, 129, 228, 31, 168, 64, 65, 5, 68, 141}

// ErrInvalidMemo indicates memo data that is not valid UTF-8.
var ErrInvalidMemo = errors.New("memo is not valid utf-8")

// Instruction builds a memo instruction. Every signer authority must sign the
// transaction carrying it; the memo program rejects a memo otherwise.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/processor.rs
func Instruction(data string, signers ...solana.Authority) (solana.Instruction, error) {
	if !utf8.ValidString(data) {
		return solana.Instruction{}, ErrInvalidMemo
	}

	accounts, err := solana.ResolveAuthorities(signers...)
	if err != nil {
		return solana.Instruction{}, err
	}
	for i := range accounts {
		accounts[i].IsWritable = false
	}

	return solana.NewInstruction(ProgramKey, []byte(data), accounts...), nil
}

type DecompiledMemo struct {
	Data    []byte
	Signers []ed25519.PublicKey
}

func DecompileMemo(m solana.Message, index int) (*DecompiledMemo, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	decompiled := &DecompiledMemo{Data: i.Data}
	for _, a := range i.Accounts {
		if int(a) >= len(m.Accounts) {
			return nil, errors.Errorf("account index %d out of range", a)
		}
		decompiled.Signers = append(decompiled.Signers, m.Accounts[a])
	}
	return decompiled, nil
}

// Program submits memos paid for by a wallet.
type Program struct {
	log        *logrus.Entry
	wallet     ed25519.PrivateKey
	client     solana.Client
	commitment solana.Commitment
}

func NewProgram(wallet ed25519.PrivateKey, client solana.Client, commitment solana.Commitment) *Program {
	return &Program{
		log:        logrus.StandardLogger().WithField("type", "memo/program"),
		wallet:     wallet,
		client:     client,
		commitment: commitment,
	}
}

// Submit writes data to the ledger, signed by the wallet and any additional
// signers.
func (p *Program) Submit(ctx context.Context, data string, signers ...ed25519.PrivateKey) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Submit")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	auths := make([]solana.Authority, len(signers))
	for i, s := range signers {
		auths[i] = solana.Signer(s)
	}

	instruction, err := Instruction(data, auths...)
	if err != nil {
		return sig, err
	}

	txn, err := solana.AssembleTransaction(p.wallet, []solana.Instruction{instruction}, signers...)
	if err != nil {
		return sig, errors.Wrap(err, "failed to assemble transaction")
	}

	sig, err = p.client.SubmitAndConfirm(ctx, txn, p.commitment)
	if err != nil {
		p.log.WithError(err).Debug("memo submission failed")
		return sig, err
	}
	return sig, nil
}
