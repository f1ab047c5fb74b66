package regiontree

import "go.uber.org/zap"

var logger = zap.NewNop()

// SetLogger replaces the package logger, which discards everything by
// default. Tree operations log at debug level only.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
