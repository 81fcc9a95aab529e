package service

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelController owns the process log level. Every logger built from the
// same zap.AtomicLevel follows its changes.
type LogLevelController struct {
	level  zap.AtomicLevel
	logger *zap.Logger
}

func NewLogLevelController(level zap.AtomicLevel, logger *zap.Logger) *LogLevelController {
	return &LogLevelController{
		level:  level,
		logger: logger,
	}
}

// SetLevel accepts the zap level names plus "warning".
func (c *LogLevelController) SetLevel(level string) error {
	if level == "warning" {
		level = zapcore.WarnLevel.String()
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("unknown log level %q: %w", level, err)
	}
	prev := c.level.Level()
	c.level.SetLevel(parsed)
	c.logger.Debug("log_level@set level changed", zap.Stringer("from", prev), zap.Stringer("to", parsed))
	return nil
}

func (c *LogLevelController) Level() string {
	return c.level.Level().String()
}
