package server

import (
	"fmt"
	"net/http"

	"github.com/rollbar/rollbar-go"
)

// RollbarReporter sends recovered panics to Rollbar. Construct one only when
// a token is configured; handlers treat a nil PanicReporter as disabled.
type RollbarReporter struct {
	client *rollbar.Client
}

// NewRollbarReporter creates a reporter for the given access token.
func NewRollbarReporter(token, environment, codeVersion string) *RollbarReporter {
	return &RollbarReporter{
		client: rollbar.New(token, environment, codeVersion, "", ""),
	}
}

func (rr *RollbarReporter) ReportPanic(val any, r *http.Request) {
	rr.client.RequestMessage(rollbar.CRIT, r, fmt.Sprintf("panic: %v", val))
}

// Close flushes queued items. Call during shutdown.
func (rr *RollbarReporter) Close() error {
	return rr.client.Close()
}
