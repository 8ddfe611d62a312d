package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// testModeEnv, when truthy, makes the binaries exit before dialing
// Postgres or Redis.
const testModeEnv = "ZIPPY_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func readTestMode() {
	enabled, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && enabled)
}

// InTestMode reports whether the binaries should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(readTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	readTestMode()
}
