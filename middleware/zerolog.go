package middleware

import (
	"time"

	"github.com/rs/zerolog"
)

// Zerolog adapts a zerolog.Logger to Logger.
func Zerolog(log zerolog.Logger) Logger {
	return zerologLogger{log: log}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (z zerologLogger) Info(msg string, fields ...Field)  { emit(z.log.Info(), msg, fields) }
func (z zerologLogger) Error(msg string, fields ...Field) { emit(z.log.Error(), msg, fields) }
func (z zerologLogger) Debug(msg string, fields ...Field) { emit(z.log.Debug(), msg, fields) }
func (z zerologLogger) Warn(msg string, fields ...Field)  { emit(z.log.Warn(), msg, fields) }

func emit(evt *zerolog.Event, msg string, fields []Field) {
	if evt == nil {
		return // level disabled
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			evt = evt.Str(f.Key, v)
		case time.Duration:
			evt = evt.Dur(f.Key, v)
		case error:
			evt = evt.AnErr(f.Key, v)
		default:
			evt = evt.Interface(f.Key, v)
		}
	}
	evt.Msg(msg)
}
