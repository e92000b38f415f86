//go:build wireinject

package servecmder

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/papercomputeco/relay/pkg/config"
)

func initializeApp(ctx context.Context, cfg *config.Config, dir ConfigDir, log *slog.Logger) (*app, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
