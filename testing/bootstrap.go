// Package testing is imported for its side effects by test packages: it flags the process
// as a test run and silences the default logger.
package testing

import (
	"io"
	"log/slog"
	"os"
)

func init() {
	_ = os.Setenv("COACHDESK_TEST_MODE", "1")
	if os.Getenv("COACHDESK_TEST_VERBOSE") == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
}
