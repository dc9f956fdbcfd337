package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/cache"
	"github.com/jonwraymond/fanout/config"
	"github.com/jonwraymond/fanout/detail"
	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/health"
	"github.com/jonwraymond/fanout/observe"
	"github.com/jonwraymond/fanout/observe/exporters"
	"github.com/jonwraymond/fanout/pool"
	"github.com/jonwraymond/fanout/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig(), exporters.WithRegisterer(promReg))
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Service.ShutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	inst, err := observe.InstrumentationFromObserver(obs)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	logger := inst.Logger

	registry, err := cfg.Registry(fanout.OnBreakerStateChange(inst))
	if err != nil {
		return err
	}

	poolCfg := cfg.PoolConfig()
	poolCfg.OnPanic = func(recovered any) {
		logger.Error(context.Background(), "worker job panicked", observe.F("panic", fmt.Sprint(recovered)))
	}
	requests := pool.New(poolCfg)
	defer requests.Close()
	probes := pool.New(cfg.HealthPoolConfig())
	defer probes.Close()
	for name, p := range map[string]*pool.Pool{"requests": requests, "probes": probes} {
		reg, err := observe.RegisterPoolGauges(obs.Meter(), name, p)
		if err != nil {
			return fmt.Errorf("observe: %w", err)
		}
		defer func() { _ = reg.Unregister() }()
	}

	guard := fanout.NewGuard(requests,
		fanout.WithRegistry(registry),
		fanout.WithInstrumentation(inst),
		fanout.WithDefaultTimeout(cfg.Aggregation.TaskTimeout),
	)
	aggregator := fanout.NewAggregator(guard, fanout.WithDefaultDeadline(cfg.Aggregation.Deadline))

	clients := detail.NewSimulatedClients(profiles(cfg.Simulation))
	if cfg.Cache.TTL > 0 {
		account, closeCache, err := cachedAccount(cfg, clients.Account, logger)
		if err != nil {
			return err
		}
		defer closeCache()
		clients.Account = account
	}

	probeRunner := fanout.NewAggregator(fanout.NewGuard(probes, fanout.WithInstrumentation(inst)))
	checks := health.NewAggregator(probeRunner, health.AggregatorConfig{Timeout: cfg.Health.Timeout})
	checks.Register(health.NewBreakerChecker(registry))
	checks.Register(health.NewPoolChecker(requests, health.PoolCheckerConfig{}))

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Config{
		Addr:            cfg.Service.Addr,
		ShutdownTimeout: cfg.Service.ShutdownTimeout,
	}, server.Deps{
		Detail:        detail.NewService(clients, aggregator),
		Registry:      registry,
		Health:        checks,
		Authenticator: auth.NewJWTAuthenticator(cfg.JWTConfig(), auth.NewStaticKeyProvider([]byte(cfg.Auth.Secret))),
		Gatherer:      promReg,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "fanoutd starting",
		observe.F("version", cfg.Service.Version),
		observe.F("workers", requests.Config().Workers),
		observe.F("dependencies", registry.Names()),
	)
	return srv.Run(ctx)
}

func cachedAccount(cfg *config.Config, next detail.AccountClient, logger observe.Logger) (detail.AccountClient, func(), error) {
	mc, err := cache.NewMemoryCache(cfg.CacheConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	codec, err := cache.NewCodec(cfg.Cache.Codec)
	if err != nil {
		mc.Close()
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	loader, err := cache.NewLoader[detail.InsuranceCard](mc, cache.LoaderConfig{
		Codec:        codec,
		FetchTimeout: cfg.Aggregation.TaskTimeout,
		Logger:       logger,
	})
	if err != nil {
		mc.Close()
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	return detail.NewCachedAccountClient(next, loader, nil), mc.Close, nil
}

func profiles(sim map[string]config.Simulated) map[string]detail.Profile {
	out := make(map[string]detail.Profile, len(sim))
	for name, s := range sim {
		out[name] = detail.Profile{Latency: s.Latency, Jitter: s.Jitter, FailureRate: s.FailureRate}
	}
	return out
}
