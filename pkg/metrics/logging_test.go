package metrics

import (
	"bytes"
	"testing"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardedMessage(t *testing.T) {
	logger := logrus.New()

	e := logger.WithFields(logrus.Fields{
		"type":   "deploy/store",
		"key":    "mint",
		"bump":   254,
		"pubkey": "4oNzfWgKo6iNALuyV2VuGh6R4TyqGtFzcETQtkPNydhP",
	}).WithError(errors.New("disk full"))
	e.Message = "failed to record account"

	assert.Equal(t,
		`failed to record account error="disk full" bump=254 key="mint" pubkey="4oNzfWgKo6iNALuyV2VuGh6R4TyqGtFzcETQtkPNydhP" type="deploy/store"`,
		forwardedMessage(e),
	)

	bare := logrus.NewEntry(logger)
	bare.Message = "plain"
	assert.Equal(t, "plain", forwardedMessage(bare))
}

func TestLogFormatter(t *testing.T) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("solray-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&out)
	logger.SetFormatter(NewLogFormatter(app, &logrus.JSONFormatter{}))

	logger.WithField("key", "mint").Info("recorded new account")

	line := out.String()
	assert.Contains(t, line, `"msg":"recorded new account"`)
	assert.Contains(t, line, `"key":"mint"`)
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\n")))
}
