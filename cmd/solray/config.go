package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/solray/pkg/metrics"
	"github.com/code-payments/solray/pkg/solana"
)

const envPrefix = "SOLRAY_"

// Config is the CLI configuration, read from the config file and SOLRAY_*
// environment variables.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	AppName            string `mapstructure:"app_name"`
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	RPCEndpoint       string  `mapstructure:"rpc_endpoint"`
	Commitment        string  `mapstructure:"commitment"`
	MaxRetries        uint    `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	DeployStore string `mapstructure:"deploy_store"`

	// EtcdEndpoints enables cross-process locking of the deploy store.
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	LockRoot      string        `mapstructure:"lock_root"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
}

var defaultConfig = Config{
	LogLevel: "warn",
	AppName:  "solray",

	Commitment: "confirmed",

	DeployStore: "solray-deploy.jsonl",

	LockRoot: "/solray/locks",
	LockTTL:  10 * time.Second,
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("log_level", envPrefix+"LOG_LEVEL")

	_ = v.BindEnv("app_name", envPrefix+"APP_NAME")
	_ = v.BindEnv("new_relic_license_key", envPrefix+"NEW_RELIC_LICENSE_KEY")

	_ = v.BindEnv("rpc_endpoint", envPrefix+"RPC_ENDPOINT")
	_ = v.BindEnv("commitment", envPrefix+"COMMITMENT")
	_ = v.BindEnv("max_retries", envPrefix+"MAX_RETRIES")
	_ = v.BindEnv("requests_per_second", envPrefix+"REQUESTS_PER_SECOND")

	_ = v.BindEnv("deploy_store", envPrefix+"DEPLOY_STORE")

	_ = v.BindEnv("etcd_endpoints", envPrefix+"ETCD_ENDPOINTS")
	_ = v.BindEnv("lock_root", envPrefix+"LOCK_ROOT")
	_ = v.BindEnv("lock_ttl", envPrefix+"LOCK_TTL")
}

// loadConfig reads path over the defaults. A missing file is only an error
// when it was named explicitly.
func loadConfig(v *viper.Viper, path string, explicit bool) (Config, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError when it searches
	// for a file, so an explicitly set file is checked here.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "failed to check if config exists")
	} else if explicit {
		return Config{}, errors.Errorf("config file %s does not exist", path)
	}

	err := v.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return Config{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func (c Config) clientConfig() (solana.ClientConfig, error) {
	if len(c.RPCEndpoint) == 0 {
		return solana.ClientConfig{}, errors.New("rpc_endpoint is not configured")
	}

	commitment, err := solana.ParseCommitment(c.Commitment)
	if err != nil {
		return solana.ClientConfig{}, err
	}

	return solana.ClientConfig{
		Endpoint:          c.RPCEndpoint,
		Commitment:        commitment,
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	}, nil
}

// configureLogger sends logs to w, leaving stdout to command output.
func configureLogger(config Config, metricsProvider *newrelic.Application, w io.Writer) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	if w == nil {
		w = os.Stderr
	}
	logrus.SetOutput(w)
}
