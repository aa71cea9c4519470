package error_notificator

import (
	"context"

	"go.uber.org/zap"
)

type Service struct {
	infra  Notificator
	logger *zap.Logger
}

// NewService with a nil infra only logs.
func NewService(infra Notificator, logger *zap.Logger) *Service {
	return &Service{infra: infra, logger: logger}
}

func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	s.logger.Warn("adapter failure",
		zap.String("source", source),
		zap.String("details", details),
		zap.Error(err),
	)
	if s.infra == nil {
		return nil
	}

	if sendErr := s.infra.Notify(ctx, source, err, details); sendErr != nil {
		s.logger.Error("admin notification failed", zap.Error(sendErr))
		return sendErr
	}
	return nil
}
