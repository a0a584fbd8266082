package logger

import (
	"strings"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

// InitLogger builds the process-wide logger. Mode "prod"/"production" selects
// the JSON production encoder, anything else the console development encoder.
func InitLogger(mode string) error {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	sugar = z.Sugar()
	return nil
}

func Close() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func get() *zap.SugaredLogger {
	if sugar == nil {
		z, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
		sugar = z.Sugar()
	}
	return sugar
}

func Info(args ...interface{}) {
	get().Info(args...)
}

func Infof(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Warn(args ...interface{}) {
	get().Warn(args...)
}

func Warnf(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Error(args ...interface{}) {
	get().Error(args...)
}

func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}
