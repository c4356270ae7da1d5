package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"facelyze-api/internal/config"
)

// New builds the process logger. Format "console" is human readable; anything
// else is JSON. An empty format follows the app env (dev => console).
func New(appCfg config.AppConfig, logCfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(logCfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level failed: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(logCfg.Format))
	if format == "" {
		format = "json"
		if appCfg.Env == "dev" {
			format = "console"
		}
	}

	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return logger.With(zap.String("app", appCfg.Name), zap.String("env", appCfg.Env)), nil
}
