package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zerologger routes gorm logging through zerolog. Statements are logged at
// trace level.
type zerologger struct {
	Logger zerolog.Logger
}

func (z zerologger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return z }
func (z zerologger) Info(c context.Context, m string, x ...interface{}) {
	z.Logger.Info().Msgf(m, x...)
}
func (z zerologger) Warn(c context.Context, m string, x ...interface{}) {
	z.Logger.Warn().Msgf(m, x...)
}
func (z zerologger) Error(c context.Context, m string, x ...interface{}) {
	z.Logger.Error().Msgf(m, x...)
}

func (z zerologger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	s, r := fc()
	verb := strings.ToLower(strings.SplitN(s, " ", 2)[0])
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		z.Logger.Error().Err(err).Int64("rows", r).Str("verb", verb).Msg(s)
		return
	}
	z.Logger.Trace().Int64("rows", r).Dur("duration_ms", time.Since(begin)).Str("verb", verb).Msg(s)
}
