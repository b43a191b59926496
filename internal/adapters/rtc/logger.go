package rtc

import (
	"github.com/pion/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loggerFactory routes pion's internal logging through zerolog so the media
// engine logs like the rest of the process.
type loggerFactory struct{}

func (f *loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{logger: log.With().Str("module", "rtc."+scope).Logger()}
}

type leveledLogger struct {
	logger zerolog.Logger
}

func (l *leveledLogger) Trace(msg string)                  { l.logger.Trace().Msg(msg) }
func (l *leveledLogger) Tracef(format string, args ...any) { l.logger.Trace().Msgf(format, args...) }
func (l *leveledLogger) Debug(msg string)                  { l.logger.Debug().Msg(msg) }
func (l *leveledLogger) Debugf(format string, args ...any) { l.logger.Debug().Msgf(format, args...) }
func (l *leveledLogger) Info(msg string)                   { l.logger.Info().Msg(msg) }
func (l *leveledLogger) Infof(format string, args ...any)  { l.logger.Info().Msgf(format, args...) }
func (l *leveledLogger) Warn(msg string)                   { l.logger.Warn().Msg(msg) }
func (l *leveledLogger) Warnf(format string, args ...any)  { l.logger.Warn().Msgf(format, args...) }
func (l *leveledLogger) Error(msg string)                  { l.logger.Error().Msg(msg) }
func (l *leveledLogger) Errorf(format string, args ...any) { l.logger.Error().Msgf(format, args...) }
