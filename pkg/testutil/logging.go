// Package testutil holds helpers shared by package tests. Importing it
// silences logrus unless the test binary runs verbose.
package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=true") {
			return
		}
	}
	logrus.StandardLogger().SetOutput(io.Discard)
}

// DisableLogging discards logrus output until reset is called.
func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.StandardLogger().SetOutput(io.Discard)
	return func() {
		logrus.StandardLogger().SetOutput(original)
	}
}
