package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a no-op until InitLogger runs, so packages can log from tests.
var Logger = zap.NewNop()

func InitLogger() {
	InitLoggerWithLevel(false)
}

func InitLoggerWithLevel(verbose bool) {
	var (
		logger *zap.Logger
		err    error
	)

	if verbose {
		// Development mode: console encoder, debug level, stack traces
		logger, err = zap.NewDevelopment()
	} else {
		// Production mode: JSON on stderr, warnings and errors only
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		logger, err = config.Build()
	}

	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	Logger = logger
	InitStyledLogger()
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	_ = Logger.Sync()
}
