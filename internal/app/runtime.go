package app

import (
	"os"
	"sync"
)

const testModeEnv = "COACHDESK_TEST_MODE"

// InTestMode reports whether COACHDESK_TEST_MODE=1, in which case the binaries exit before
// dialling Redis or the API. The flag is read once per process.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})
