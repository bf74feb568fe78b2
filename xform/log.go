package xform

import (
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/xform/xform/internal/xlog"
)

// SetLogger routes the debug logging of every xform package to l.
// Key material, passphrases and plaintext are never logged.
func SetLogger(l *logrus.Logger) { xlog.Set(l) }

// Logger returns the logger currently used by xform packages.
func Logger() *logrus.Logger { return xlog.Logger() }
