package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Messages logging.MessageLog
}

func newBaseService(messages logging.MessageLog) BaseService {
	if messages == nil {
		messages = logging.NewMessageLog()
	}
	return BaseService{Messages: messages}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// warn logs a keyed warning and returns err unchanged.
func (s *BaseService) warn(ctx context.Context, key string, err error, keyvals ...any) error {
	if err != nil {
		keyvals = append(keyvals, slog.String("error", err.Error()))
	}
	s.Messages.Warning(ctx, key, keyvals...)
	return err
}

// postingFailed logs a keyed warning for an aborted posting, counts it and returns err.
func (s *BaseService) postingFailed(ctx context.Context, document, key string, err error, keyvals ...any) error {
	metrics.RecordPostingFailure(document, key)
	return s.warn(ctx, key, err, keyvals...)
}
