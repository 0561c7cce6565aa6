// Package logger wraps zap for structured logging.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	once    sync.Once
	level   = zap.NewAtomicLevelAt(zap.InfoLevel)
	logFile = "" // no file output unless SetLogPath is called
)

// SetLogPath enables a JSON log file next to the console output.
// It only takes effect before the logger is initialized.
func SetLogPath(path string) {
	logFile = path
}

// SetLevel adjusts the minimum level; safe to call at any time.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// InitLogger initializes the Zap logger with structured logging.
// Console output goes to stderr so that stdout stays free for generated rows.
func InitLogger() {
	once.Do(func() {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores := []zapcore.Core{
			zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
		}

		if logFile != "" {
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
				cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
			}
		}

		log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	if log == nil {
		InitLogger()
	}
	return log
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// ResetLogger drops the current logger so the next call re-initializes it.
func ResetLogger() {
	Sync()
	log = nil
	once = sync.Once{}
	logFile = ""
	level.SetLevel(zap.InfoLevel)
}
