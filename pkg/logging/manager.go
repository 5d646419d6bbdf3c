package logging

import "sync"

var (
	serviceLogger Logger
	initOnce      sync.Once
)

// InitServiceLogger builds the process-wide logger. Only the first call has
// any effect; later calls return the first call's error state (nil).
func InitServiceLogger(cfg LoggerConfig) error {
	var err error
	initOnce.Do(func() {
		serviceLogger, err = NewZapLogger(cfg)
	})
	return err
}

// GetServiceLogger returns the logger set up by InitServiceLogger.
func GetServiceLogger() Logger {
	if serviceLogger == nil {
		panic("logging: service logger used before InitServiceLogger")
	}
	return serviceLogger
}

// Shutdown flushes buffered log entries. Sync errors are ignored; syncing
// stdout fails on some platforms.
func Shutdown() {
	if zl, ok := serviceLogger.(*ZapLogger); ok && zl != nil {
		_ = zl.logger.Sync()
	}
}
