package cli

import (
	"testing"

	"go.uber.org/goleak"
)

// Commands must close their ledger and log files before returning.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}
