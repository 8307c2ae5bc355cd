// Package common provides the logging infrastructure shared across the
// recommendation service: a global logrus instance with error-level
// messages routed to stderr and everything else to stdout, for clean
// stream separation in containerized deployments.
package common

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stderr when they carry
// "level=error" (text format) or "level":"error" (JSON format) and to
// stdout otherwise, so container log collectors can treat the two streams
// differently.
type OutputSplitter struct{}

func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the package-level logger instance used by ServiceLogger and
// any component that doesn't build its own via NewLogger.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
}
