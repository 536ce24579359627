package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, restaurantID, userID, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("restaurant_id", restaurantID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogBooking(ctx context.Context, restaurantID, userID, slotID, status, details string) {
	al.LogAction(ctx, restaurantID, userID, "book", "reservation", slotID, status, details)
}

func (al *Logger) LogTransition(ctx context.Context, restaurantID, userID, slotID, action, status string) {
	al.LogAction(ctx, restaurantID, userID, action, "reservation", slotID, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, restaurantID, userID, reason string) {
	al.LogAction(ctx, restaurantID, userID, "access_denied", "api", "", "denied", reason)
}
