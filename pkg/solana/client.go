package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/solray/pkg/cache"
	"github.com/code-payments/solray/pkg/metrics"
	"github.com/code-payments/solray/pkg/rate"
	"github.com/code-payments/solray/pkg/retry"
	"github.com/code-payments/solray/pkg/retry/backoff"
)

const (
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602

	metricsStructName = "solana.client"
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment maps a commitment level name to its Commitment.
func ParseCommitment(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment %q", s)
	}
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")
	ErrNotConfirmed      = errors.New("transaction did not reach the requested commitment")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Reached reports whether the status satisfies the commitment level.
func (s SignatureStatus) Reached(commitment Commitment) bool {
	switch commitment {
	case CommitmentConfirmed:
		return s.Confirmed()
	case CommitmentFinalized:
		return s.Finalized()
	default:
		return true
	}
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	GetSlot(Commitment) (uint64, error)
	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)

	// SubmitAndConfirm signs txn with a recent blockhash, submits it, and
	// polls until it reaches commitment. A transaction that lands but fails
	// returns its *TransactionError. The zero Commitment selects the client's
	// configured default.
	SubmitAndConfirm(ctx context.Context, txn *SubmittableTransaction, commitment Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log     *logrus.Entry
	config  ClientConfig
	client  jsonrpc.RPCClient
	retrier *retry.Retrier
	limiter rate.Limiter
	rent    cache.Cache[uint64, uint64]

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint and default settings.
func New(endpoint string) (Client, error) {
	return NewWithConfig(ClientConfig{Endpoint: endpoint})
}

// NewWithConfig returns a client configured by cfg. Unset fields take their
// defaults.
func NewWithConfig(cfg ClientConfig) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc endpoint is required")
	}
	cfg = cfg.withDefaults()

	var opts *jsonrpc.RPCClientOpts
	if cfg.HTTPClient != nil {
		opts = &jsonrpc.RPCClientOpts{HTTPClient: cfg.HTTPClient}
	}

	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		config: cfg,
		client: jsonrpc.NewClientWithOpts(cfg.Endpoint, opts),
		retrier: retry.NewRetrier(
			backoff.Jittered(backoff.Capped(backoff.BinaryExponential(cfg.RetryBackoff), 10*cfg.RetryBackoff), 0.1),
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(cfg.MaxRetries),
		),
		limiter: rate.NewLimiter(cfg.RequestsPerSecond),
		rent:    cache.NewCache[uint64, uint64](cfg.RentCacheSize),
	}, nil
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	return c.callContext(context.Background(), out, method, params...)
}

func (c *client) callContext(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

func (c *client) handleRpcError(method string, err error) error {
	var code int
	switch typed := err.(type) {
	case *jsonrpc.RPCError:
		code = typed.Code
	case *jsonrpc.HTTPError:
		code = typed.Code
	default:
		return err
	}

	if code == http.StatusTooManyRequests {
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	}
	if code >= 500 || code == rpcNodeUnhealthyCode {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"code":   code,
		}).Warn("rpc service error")
		return errServiceError
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if cached, ok := c.rent.Retrieve(dataSize); ok {
		return cached, nil
	}

	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	if err := c.rent.Insert(dataSize, lamports, 1); err != nil && err != cache.ErrKeyExists {
		c.log.WithError(err).Warn("failed to cache rent exemption minimum")
	}

	return lamports, nil
}

func (c *client) GetSlot(commitment Commitment) (slot uint64, err error) {
	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	if err := c.call(&slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetLatestBlockhash() (hash Blockhash, err error) {
	// The refresh window is randomized so concurrent submitters don't all
	// refresh at the same instant.
	window := time.Duration(float64(c.config.BlockhashCacheWindow) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp rpcResponse
	if err := c.call(&resp, "getBalance", base58.Encode(account[:]), CommitmentProcessed); err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			return 0, errors.Wrapf(err, "getBalance() failed to send request")
		}

		if jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signature()
	txnBytes := txn.Marshal()

	config := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		SkipPreflight:       c.config.SkipPreflight,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.call(&sigStr, "sendTransaction", base58.Encode(txnBytes), config)
	if err == nil {
		return sig, nil
	}

	jsonRPCErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
	}

	txResult, parseErr := ParseRPCError(jsonRPCErr)
	if parseErr != nil || txResult == nil {
		return sig, err
	}

	return sig, txResult
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sigStr string
	if err := c.call(&sigStr, "requestAirdrop", base58.Encode(account[:]), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	sigBytes, err := base58.Decode(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	var sig Signature
	copy(sig[:], sigBytes)

	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	return c.pollSignatureStatus(context.Background(), sig, commitment)
}

// pollSignatureStatus polls until the signature reaches commitment, lands
// with an error, ctx is done, or the poll limit runs out.
func (c *client) pollSignatureStatus(ctx context.Context, sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var s *SignatureStatus
	_, err := retry.Do(
		ctx,
		backoff.Constant(c.config.PollRate),
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil || s.Reached(commitment) {
				return nil
			}

			return ErrNotConfirmed
		},
		retry.RetriableErrors(ErrSignatureNotFound, ErrNotConfirmed),
		retry.Limit(c.config.ConfirmationPollLimit),
	)
	if err != nil && ctx.Err() != nil {
		return s, ctx.Err()
	}

	return s, err
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(&resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, err
	}
	if len(resp.Value) > len(sigs) {
		return nil, errors.Errorf("unexpected status count %d for %d signatures", len(resp.Value), len(sigs))
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].ConfirmationStatus = v.ConfirmationStatus
		statuses[i].Slot = v.Slot

		if len(v.Err) > 0 {
			var txError interface{}
			err := json.NewDecoder(bytes.NewBuffer(v.Err)).Decode(&txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}

func (c *client) SubmitAndConfirm(ctx context.Context, txn *SubmittableTransaction, commitment Commitment) (sig Signature, err error) {
	if commitment == (Commitment{}) {
		commitment = c.config.Commitment
	}

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SubmitAndConfirm")
	tracer.AddAttribute("commitment", commitment.Commitment)
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if txn == nil || len(txn.Signers) == 0 {
		return sig, errors.New("transaction has no signers")
	}

	bh, err := c.GetLatestBlockhash()
	if err != nil {
		return sig, errors.Wrap(err, "failed to get recent blockhash")
	}

	if err := txn.Sign(bh); err != nil {
		return sig, errors.Wrap(err, "failed to sign transaction")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":    "SubmitAndConfirm",
		"signature": txn.Transaction.Signature().String(),
	})

	start := time.Now()
	sig, err = c.SubmitTransaction(txn.Transaction, commitment)
	if err != nil {
		log.WithError(err).Debug("transaction submission failed")
		return sig, err
	}
	tracer.AddAttribute("signature", sig.String())

	status, err := c.pollSignatureStatus(ctx, sig, commitment)
	if err != nil {
		log.WithError(err).Debug("transaction not confirmed")
		return sig, err
	}
	if status.ErrorResult != nil {
		log.WithError(status.ErrorResult).Debug("transaction failed")
		return sig, status.ErrorResult
	}

	metrics.RecordDuration(ctx, "solana.confirmation_latency", time.Since(start))
	log.Debug("transaction confirmed")

	return sig, nil
}
