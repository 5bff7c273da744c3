// Package testing prepares the process environment for tests. Test
// packages import it for its side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// testEnv holds the variables set for every test binary; values already
// present in the environment win, except the test mode flag.
var testEnv = map[string]string{
	"PDF_ENGINE": "fpdf",
	"LOG_LEVEL":  "warn",
}

var once sync.Once

func prepare() {
	once.Do(func() {
		_ = os.Setenv("INVOICEDESK_TEST_MODE", "1")
		for key, value := range testEnv {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	prepare()
}

// TestMain can be delegated to from a package TestMain.
func TestMain(m *stdtesting.M) {
	prepare()
	os.Exit(m.Run())
}
