package errors

import (
	"sync"

	"go.uber.org/zap"
)

var (
	fallbackOnce   sync.Once
	fallbackLogger *zap.Logger
)

func fallback() *zap.Logger {
	fallbackOnce.Do(func() {
		logger, err := zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
		fallbackLogger = logger
	})
	return fallbackLogger
}

// ZapHandler is an ErrorHandler that logs errors through a zap logger.
type ZapHandler struct {
	// Logger is the destination logger. When nil, a shared production
	// logger is used.
	Logger *zap.Logger
	// Verbose enables stack trace output.
	Verbose bool
}

func (h *ZapHandler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return fallback()
}

// HandleError logs a SketchError.
func (h *ZapHandler) HandleError(err *SketchError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	}
	if err.Sketch != "" {
		fields = append(fields, zap.String("sketch", err.Sketch))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("sketch error", fields...)
}

// HandlePanic logs a PanicError.
func (h *ZapHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Any("value", err.Value),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("sketch panic", fields...)
}
