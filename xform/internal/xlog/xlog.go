// Package xlog holds the logger shared by every xform package.
package xlog

import (
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var current atomic.Pointer[logrus.Logger]

func init() {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	current.Store(l)
}

// Set replaces the shared logger. A nil logger is ignored.
func Set(l *logrus.Logger) {
	if l != nil {
		current.Store(l)
	}
}

// Logger returns the shared logger.
func Logger() *logrus.Logger { return current.Load() }

// For returns an entry tagged with the calling package and function.
func For(pkg, function string) *logrus.Entry {
	return current.Load().WithFields(logrus.Fields{
		"package":  pkg,
		"function": function,
	})
}
