package errprocess

import (
	"errors"
	"fmt"

	"clip_service/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string, fields ...zap.Field) error {
	logger.Log.Error(errMsg, fields...)
	return errors.New(errMsg)
}

// Wrap log and wrap err with msg, keep errors.Is / errors.As working
func Wrap(err error, msg string, fields ...zap.Field) error {
	wrapped := fmt.Errorf("%s: %w", msg, err)
	logger.Log.Error(wrapped.Error(), fields...)
	return wrapped
}
