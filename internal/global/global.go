package global

import (
	slog "log/slog"

	conf "github.com/lexora-app/moderation-server/internal/config"
)

var (
	Logger *slog.Logger //nolint:gochecknoglobals
	Config *conf.Config //nolint:gochecknoglobals
)
