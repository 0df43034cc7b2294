package main

import (
	"fmt"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	configMetadataKey   = "config"
	newRelicMetadataKey = "newrelic"

	newRelicShutdownTimeout = 5 * time.Second
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "configuration file path",
		Value: "solray.yaml",
	}

	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "overrides the configured log level",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "solray"
	app.Usage = "Solana wallet, address and deployment tooling"
	app.Flags = []cli.Flag{
		&configFlag,
		&logLevelFlag,
	}
	app.Commands = append(
		app.Commands,
		&mnemonicCommand,
		&deriveCommand,
		newPDACommand(),
		&deployCommand,
		&balanceCommand,
	)
	app.Before = setup
	app.After = shutdown
	app.Metadata = make(map[string]interface{})
	return app
}

// setup loads the configuration and configures logging before any command
// runs.
func setup(ctx *cli.Context) error {
	v := viper.New()
	bindEnv(v)

	config, err := loadConfig(v, ctx.String(configFlag.Name), ctx.IsSet(configFlag.Name))
	if err != nil {
		return err
	}
	if ctx.IsSet(logLevelFlag.Name) {
		config.LogLevel = ctx.String(logLevelFlag.Name)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
		ctx.App.Metadata[newRelicMetadataKey] = metricsProvider
	}

	configureLogger(config, metricsProvider, ctx.App.ErrWriter)
	ctx.App.Metadata[configMetadataKey] = config
	return nil
}

func shutdown(ctx *cli.Context) error {
	if nr, ok := ctx.App.Metadata[newRelicMetadataKey].(*newrelic.Application); ok {
		nr.Shutdown(newRelicShutdownTimeout)
	}
	return nil
}

func getConfig(ctx *cli.Context) Config {
	if config, ok := ctx.App.Metadata[configMetadataKey].(Config); ok {
		return config
	}
	return defaultConfig
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		logrus.StandardLogger().WithField("type", "cmd/solray").WithError(err).Debug("command failed")
		_, _ = fmt.Fprintf(os.Stderr, "[solray] %v\n", err)
	}
	os.Exit(1)
}
