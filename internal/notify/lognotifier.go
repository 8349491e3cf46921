package notify

import (
	"context"
	"log/slog"
)

// LogNotifier is a display sink that only logs. Used when no relay is
// configured, so push handling still runs end to end.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(ctx context.Context, opts Options) error {
	n.logger.Info("notification",
		"tag", opts.Tag,
		"title", opts.Title,
		"type", opts.Data.Type,
		"require_interaction", opts.RequireInteraction,
	)
	return nil
}

func (n *LogNotifier) Close(ctx context.Context, tag string) error {
	n.logger.Info("notification closed", "tag", tag)
	return nil
}
