package daemonserver

import (
	"context"
	"path/filepath"

	"maskvault/go-backend/internal/adapters/rpc"
	"maskvault/go-backend/internal/app"
	"maskvault/go-backend/internal/bootstrap/daemonconfig"
	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// NewRPCServerWithOptions composes storage, seed manager, core service,
// and RPC transport from the daemon flags. rpcAddr, when set, wins over
// the config file value.
func NewRPCServerWithOptions(ctx context.Context, rpcAddr, configPath, dataDir string) (*rpc.Server, error) {
	cfg := daemonconfig.LoadFromPath(configPath)
	if rpcAddr != "" {
		cfg.RPCAddr = rpcAddr
	}

	secret, err := StoragePassphrase(dataDir)
	if err != nil {
		return nil, err
	}

	statePath := cfg.StatePath
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(dataDir, statePath)
	}
	store, err := storage.NewFileStateStore(statePath, secret)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	svc, err := app.NewService(ctx, app.ServiceOptions{
		Store:      store,
		Seeds:      identity.NewSeedManager(),
		Consent:    consentFromConfig(cfg.Consent),
		Registerer: registry,
	})
	if err != nil {
		return nil, err
	}

	return rpc.NewServer(rpc.Options{
		Addr:             cfg.RPCAddr,
		Service:          svc,
		Gatherer:         registry,
		MetricsEnabled:   cfg.Metrics,
		RateLimitRPS:     cfg.RateLimit.RPS,
		RateLimitBurst:   cfg.RateLimit.Burst,
		RateLimitIdleTTL: cfg.RateLimit.IdleTTL,
	}), nil
}

func consentFromConfig(mode string) app.Consent {
	if mode == daemonconfig.ConsentDeny {
		return app.StaticConsent{Approve: false}
	}
	return app.StaticConsent{Approve: true}
}
