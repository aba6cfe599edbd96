// Package logging builds the zap logger shared by the commands.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. verbose enables debug
// output; otherwise only warnings and errors are shown so that answers on
// stdout stay readable.
func New(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return NewWithSink(zapcore.Lock(os.Stderr), level)
}

// NewWithSink returns a console logger writing to w at the given level.
func NewWithSink(w zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)
	return zap.New(core)
}

// JSON returns a JSON logger at info level for the HTTP server.
func JSON(w zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, zapcore.InfoLevel)
	return zap.New(core)
}
