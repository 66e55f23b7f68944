package services

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

// ServiceIdentifier is satisfied by every DI service in the container.
type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the owning service id. Shard-scoped
// events additionally carry the shard id so a single shard's lifecycle can
// be grepped out of the combined log.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: log.With().Str("service", svc.ID()).Logger(),
	}
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// ErrorShard is Error with the shard id field preset.
func (l *ServiceLogger) ErrorShard(id domain.ShardID) *zerolog.Event {
	return l.logger.Error().Uint64("shard", uint64(id))
}

// InfoShard is Info with the shard id field preset.
func (l *ServiceLogger) InfoShard(id domain.ShardID) *zerolog.Event {
	return l.logger.Info().Uint64("shard", uint64(id))
}
