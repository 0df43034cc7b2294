// Package solanatest provides an in-memory solana.Client for tests.
package solanatest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/solray/pkg/solana"
)

const (
	// Mirrors the cluster's rent: lamports per byte-year, two years exempt,
	// plus the account storage overhead.
	lamportsPerByteYear  = 3480
	exemptionYears       = 2
	accountStorageHeader = 128
)

// SubmitHook inspects a submitted transaction. A non-nil error fails the
// submission; a *solana.TransactionError is reported as an on-chain failure.
type SubmitHook func(txn solana.Transaction) error

// Client is an in-memory solana.Client. It verifies signatures on submitted
// transactions and records them, but does not execute instructions.
type Client struct {
	mu         sync.Mutex
	accounts   map[string]solana.AccountInfo
	balances   map[string]uint64
	submitted  []solana.Transaction
	statuses   map[solana.Signature]*solana.SignatureStatus
	blockhash  solana.Blockhash
	slot       uint64
	hook       SubmitHook
	rentCalls  int
	submitErrs []error
}

var _ solana.Client = (*Client)(nil)

// NewClient returns an empty fake client with a random blockhash.
func NewClient() *Client {
	c := &Client{
		accounts: make(map[string]solana.AccountInfo),
		balances: make(map[string]uint64),
		statuses: make(map[solana.Signature]*solana.SignatureStatus),
		slot:     1,
	}
	_, _ = rand.Read(c.blockhash[:])
	return c
}

// RentExemptMinimum computes the rent-exempt balance the fake reports.
func RentExemptMinimum(size uint64) uint64 {
	return (size + accountStorageHeader) * lamportsPerByteYear * exemptionYears
}

func (c *Client) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[base58.Encode(account)] = info
}

func (c *Client) SetBalance(account ed25519.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[base58.Encode(account)] = lamports
}

func (c *Client) SetSubmitHook(hook SubmitHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = hook
}

// FailNextSubmit makes the next SubmitTransaction call return err without
// recording the transaction.
func (c *Client) FailNextSubmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErrs = append(c.submitErrs, err)
}

// Submitted returns the transactions accepted so far, in order.
func (c *Client) Submitted() []solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]solana.Transaction(nil), c.submitted...)
}

// RentCalls returns how many times rent exemption was queried.
func (c *Client) RentCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rentCalls
}

func (c *Client) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	info.Data = append([]byte(nil), info.Data...)
	return info, nil
}

func (c *Client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[base58.Encode(account)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return balance, nil
}

func (c *Client) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockhash, nil
}

func (c *Client) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rentCalls++
	return RentExemptMinimum(size), nil
}

func (c *Client) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}
	return s, nil
}

func (c *Client) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		statuses[i] = c.statuses[sig]
	}
	return statuses, nil
}

func (c *Client) GetSlot(_ solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot, nil
}

func (c *Client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sig solana.Signature
	_, _ = rand.Read(sig[:])

	c.balances[base58.Encode(account)] += lamports
	c.statuses[sig] = &solana.SignatureStatus{Slot: c.slot}
	c.slot++

	return sig, nil
}

func (c *Client) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	sig := txn.Signature()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.submitErrs) > 0 {
		err := c.submitErrs[0]
		c.submitErrs = c.submitErrs[1:]
		return sig, err
	}

	if txn.Message.RecentBlockhash != c.blockhash {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	message := txn.Message.Marshal()
	if len(txn.Signatures) != int(txn.Message.Header.NumSignatures) || len(txn.Message.Accounts) < len(txn.Signatures) {
		return sig, errors.New("malformed signature list")
	}
	for i, s := range txn.Signatures {
		if !ed25519.Verify(txn.Message.Accounts[i], message, s[:]) {
			return sig, errors.Errorf("invalid signature at index %d", i)
		}
	}

	status := &solana.SignatureStatus{Slot: c.slot}
	if c.hook != nil {
		if err := c.hook(txn); err != nil {
			txErr, ok := err.(*solana.TransactionError)
			if !ok {
				return sig, err
			}
			status.ErrorResult = txErr
		}
	}

	c.submitted = append(c.submitted, txn)
	c.statuses[sig] = status
	c.slot++

	return sig, nil
}

// SubmitAndConfirm signs, submits and reports the transaction as finalized
// immediately.
func (c *Client) SubmitAndConfirm(ctx context.Context, txn *solana.SubmittableTransaction, commitment solana.Commitment) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	if txn == nil || len(txn.Signers) == 0 {
		return solana.Signature{}, errors.New("transaction has no signers")
	}

	bh, _ := c.GetLatestBlockhash()
	if err := txn.Sign(bh); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	sig, err := c.SubmitTransaction(txn.Transaction, commitment)
	if err != nil {
		return sig, err
	}

	status, err := c.GetSignatureStatus(sig, commitment)
	if err != nil {
		return sig, err
	}
	if status.ErrorResult != nil {
		return sig, status.ErrorResult
	}

	return sig, nil
}
