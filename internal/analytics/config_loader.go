package analytics

import (
	"context"

	"github.com/katatrina/roxot-collector/internal/delivery"
)

// fallbackConfig is used when the publisher config cannot be loaded.
func fallbackConfig() delivery.ServerConfig {
	return delivery.DefaultServerConfig(EventAuction, EventImpression, EventBidAfterTimeout)
}

// loadServerConfig fetches the publisher config and hands it to d. Any
// failure, including a body that is not a JSON object, enables the three
// adapter events instead.
func (a *Adapter) loadServerConfig(ctx context.Context, d *dispatcher, loaded chan<- struct{}, req delivery.ConfigRequest) {
	defer close(loaded)

	cfg, err := a.deps.Fetcher.FetchConfig(ctx, req)
	if err != nil {
		a.logger.Warn().Err(err).Str("config_server", req.ConfigServer).
			Msg("failed to load publisher config, all events enabled")
		a.deps.Metrics.ConfigLoads.WithLabelValues("fallback").Inc()
		cfg = fallbackConfig()
	} else {
		a.logger.Info().Interface("server_config", cfg).Msg("publisher config loaded")
		a.deps.Metrics.ConfigLoads.WithLabelValues("ok").Inc()
	}

	d.setConfig(cfg)
}
