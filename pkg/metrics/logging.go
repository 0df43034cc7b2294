package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// LogFormatter wraps a logrus.Formatter. Every entry is forwarded to New
// Relic with all of its fields, and the formatted line is enriched with New
// Relic linking metadata.
type LogFormatter struct {
	app  *newrelic.Application
	next logrus.Formatter
}

func NewLogFormatter(app *newrelic.Application, next logrus.Formatter) LogFormatter {
	return LogFormatter{
		app:  app,
		next: next,
	}
}

// Format implements logrus.Formatter.
func (f LogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line, err := f.next.Format(e)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(bytes.TrimRight(line, "\n"))

	data := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  forwardedMessage(e),
	}

	var enricher newrelic.EnricherOption
	if txn := transactionFromEntry(e); txn != nil {
		txn.RecordLog(data)
		enricher = newrelic.FromTxn(txn)
	} else {
		f.app.RecordLog(data)
		enricher = newrelic.FromApp(f.app)
	}
	if err := newrelic.EnrichLog(buf, enricher); err != nil {
		return nil, err
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func transactionFromEntry(e *logrus.Entry) *newrelic.Transaction {
	if e.Context == nil {
		return nil
	}
	return newrelic.FromContext(e.Context)
}

// forwardedMessage flattens an entry into one line, since New Relic log
// forwarding drops structured fields: the message, then the error, then the
// remaining fields in key order.
func forwardedMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString(e.Message)

	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		fmt.Fprintf(&sb, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != logrus.ErrorKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, err := json.Marshal(e.Data[k])
		if err != nil {
			value = []byte(fmt.Sprintf("%q", fmt.Sprint(e.Data[k])))
		}
		fmt.Fprintf(&sb, " %s=%s", k, value)
	}
	return sb.String()
}
