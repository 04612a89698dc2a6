// Package chat mirrors event guest lists into chat channels. The provider
// integration is pluggable; the log implementation stands in until one is
// configured.
package chat

import (
	"context"
	"log/slog"

	"github.com/upfrom/backend/internal/domain"
)

type logChat struct {
	logger *slog.Logger
}

// NewLogChat returns a ChatService that only records membership syncs in the
// log. Used when no chat provider is configured.
func NewLogChat(logger *slog.Logger) domain.ChatService {
	return &logChat{logger: logger}
}

func (c *logChat) SyncEventChannel(ctx context.Context, eventID string, memberIDs []string) error {
	c.logger.Debug("chat channel sync", "event_id", eventID, "members", len(memberIDs))
	return nil
}
