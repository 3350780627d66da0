package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls where and how much we log.
type Config struct {
	Level      int8 // zapcore.Level, ignored in develop mode
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	Compress   bool
	Console    bool
	Develop    bool
}

var logger = zap.NewNop().Sugar()

func Init(cfg Config) {
	var core zapcore.Core
	options := make([]zap.Option, 0, 2)

	if cfg.Develop {
		core = zapcore.NewCore(getEncoder(zap.NewDevelopmentEncoderConfig()),
			getWriter(cfg),
			zap.DebugLevel)
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		core = zapcore.NewCore(getEncoder(zap.NewProductionEncoderConfig()),
			getWriter(cfg),
			zapcore.Level(cfg.Level))
	}

	logger = zap.New(core, options...).Sugar()

	Infof("Initializing logger successfully")
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	_ = logger.Sync()
}

func Debugf(template string, args ...any) {
	logger.Debugf(template, args...)
}

func Infof(template string, args ...any) {
	logger.Infof(template, args...)
}

func Warnf(template string, args ...any) {
	logger.Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	logger.Errorf(template, args...)
}

func Fatalf(template string, args ...any) {
	logger.Fatalf(template, args...)
}

func ErrorWithStack(err error) {
	logger.Errorf("%T:\nstack trace:\n%+v", errors.Cause(err), err)
}

func getEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewConsoleEncoder(config)
}

func getWriter(cfg Config) zapcore.WriteSyncer {
	out := make([]zapcore.WriteSyncer, 0, 2)
	if cfg.Path != "" {
		out = append(out, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}))
	}
	if cfg.Console || len(out) == 0 {
		out = append(out, os.Stdout)
	}
	return zapcore.NewMultiWriteSyncer(out...)
}
