package solana

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/solray/pkg/config/env"
)

const (
	envConfigPrefix = "SOLANA_"

	EndpointConfigEnvName = envConfigPrefix + "RPC_ENDPOINT"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = confirmationStatusConfirmed

	MaxRetriesConfigEnvName = envConfigPrefix + "MAX_RETRIES"
	defaultMaxRetries       = 3

	RequestsPerSecondConfigEnvName = envConfigPrefix + "REQUESTS_PER_SECOND"
	defaultRequestsPerSecond       = 0

	ConfirmationPollLimitConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_LIMIT"
	defaultConfirmationPollLimit       = sigStatusPollLimit

	SkipPreflightConfigEnvName = envConfigPrefix + "SKIP_PREFLIGHT"
	defaultSkipPreflight       = false

	RetryBackoffConfigEnvName = envConfigPrefix + "RETRY_BACKOFF"
	defaultRetryBackoff       = time.Second

	PollRateConfigEnvName = envConfigPrefix + "POLL_RATE"

	defaultBlockhashCacheWindow = 2 * time.Second
	defaultRentCacheSize        = 256
)

// ClientConfig configures an RPC client. There are no built-in network
// endpoints; the caller always names one.
type ClientConfig struct {
	Endpoint string

	// Commitment is used by SubmitAndConfirm when the caller passes the zero
	// Commitment.
	Commitment Commitment

	// MaxRetries bounds attempts per RPC call on rate limit and 5xx errors.
	MaxRetries uint

	// RetryBackoff is the base delay of the exponential retry backoff.
	RetryBackoff time.Duration

	// RequestsPerSecond throttles calls client side. Zero disables throttling.
	RequestsPerSecond float64

	// ConfirmationPollLimit bounds signature status polls in SubmitAndConfirm.
	ConfirmationPollLimit uint
	PollRate              time.Duration

	SkipPreflight        bool
	BlockhashCacheWindow time.Duration
	RentCacheSize        int

	HTTPClient *http.Client
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Commitment == (Commitment{}) {
		c.Commitment = CommitmentConfirmed
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.ConfirmationPollLimit == 0 {
		c.ConfirmationPollLimit = defaultConfirmationPollLimit
	}
	if c.PollRate == 0 {
		c.PollRate = PollRate
	}
	if c.BlockhashCacheWindow == 0 {
		c.BlockhashCacheWindow = defaultBlockhashCacheWindow
	}
	if c.RentCacheSize == 0 {
		c.RentCacheSize = defaultRentCacheSize
	}
	return c
}

// WithEnvConfigs builds a ClientConfig from SOLANA_* environment variables.
func WithEnvConfigs() ClientConfig {
	ctx := context.Background()

	commitment, err := ParseCommitment(env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment).Get(ctx))
	if err != nil {
		logrus.StandardLogger().WithField("type", "solana/config").WithError(err).Warn("ignoring commitment override")
		commitment = CommitmentConfirmed
	}

	return ClientConfig{
		Endpoint:              env.NewStringConfig(EndpointConfigEnvName, "").Get(ctx),
		Commitment:            commitment,
		MaxRetries:            uint(env.NewUint64Config(MaxRetriesConfigEnvName, defaultMaxRetries).Get(ctx)),
		RetryBackoff:          env.NewDurationConfig(RetryBackoffConfigEnvName, defaultRetryBackoff).Get(ctx),
		PollRate:              env.NewDurationConfig(PollRateConfigEnvName, PollRate).Get(ctx),
		RequestsPerSecond:     env.NewFloat64Config(RequestsPerSecondConfigEnvName, defaultRequestsPerSecond).Get(ctx),
		ConfirmationPollLimit: uint(env.NewUint64Config(ConfirmationPollLimitConfigEnvName, defaultConfirmationPollLimit).Get(ctx)),
		SkipPreflight:         env.NewBoolConfig(SkipPreflightConfigEnvName, defaultSkipPreflight).Get(ctx),
	}
}
