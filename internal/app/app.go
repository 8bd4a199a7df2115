package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/clock"
	"github.com/MrSnakeDoc/ghclip/internal/config"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/redis"
	"github.com/MrSnakeDoc/ghclip/internal/scheduler"
	"github.com/MrSnakeDoc/ghclip/internal/settings"
	"github.com/MrSnakeDoc/ghclip/internal/store"
	"github.com/MrSnakeDoc/ghclip/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/ghclip/internal/store/redis"
	"github.com/MrSnakeDoc/ghclip/internal/syncer"
	"github.com/MrSnakeDoc/ghclip/internal/utils"
	"github.com/MrSnakeDoc/ghclip/internal/version"
)

// App holds every long-lived component. The CLI builds one per invocation;
// only Run starts background work.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	clock  clock.Clock

	Store   store.Store
	GitHub  *github.Client
	Tokens  *auth.Resolver
	Manual  *auth.Manual
	Device  *auth.DeviceFlow // nil without GITHUB_OAUTH_CLIENT_ID
	AppFlow *auth.AppFlow    // nil unless the GitHub App is fully configured
	Syncer  *syncer.Orchestrator
}

// New opens the store and wires the auth and sync components.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	clk := clock.RealClock{}
	api := github.NewClient(cfg.GitHubAPIURL, &http.Client{Timeout: cfg.HTTPTimeout}, log)

	a := &App{
		cfg:    cfg,
		logger: log,
		clock:  clk,
		Store:  st,
		GitHub: api,
		Tokens: auth.NewResolver(st, auth.NewAppProvider(st, api, clk, log)),
		Manual: auth.NewManual(api, st, log),
	}

	if cfg.OAuthClientID != "" {
		a.Device = auth.NewDeviceFlow(cfg.OAuthClientID, cfg.GitHubWebURL, api, st, log)
	}

	if cfg.AppConfigured() {
		relay := auth.NewRelayClient(cfg.RelayURL, &http.Client{Timeout: cfg.HTTPTimeout})
		a.AppFlow = auth.NewAppFlow(auth.AppConfig{
			ClientID:       cfg.AppClientID,
			Slug:           cfg.AppSlug,
			AppID:          cfg.AppID,
			RedirectURI:    cfg.AppRedirectURI,
			WebBaseURL:     cfg.GitHubWebURL,
			PollInterval:   cfg.InstallPoll,
			InstallTimeout: cfg.InstallTimeout,
		}, api, relay, st, log)
	} else {
		log.Debug("github app not configured, app authorization disabled")
	}

	a.Syncer = syncer.New(st, a.Tokens, api, log, syncer.Options{
		ConflictRetries: cfg.ConflictRetries,
		Clock:           clk,
	})

	if cfg.SettingsFile != "" {
		if _, err := settings.NewLoader(cfg.SettingsFile).Apply(ctx, st); err != nil {
			log.Warn("settings file not applied, keeping stored settings",
				logger.String("file", cfg.SettingsFile), logger.Error(err))
		}
	}

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, nothing survives a restart")
		return memory.NewStore(), nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), nil
}

// Close releases the store.
func (a *App) Close() {
	utils.CloseLogged(a.Store, a.logger, a.cfg.Store+" store")
}

// Run serves the HTTP API and runs the auto-sync scheduler, the settings
// file watcher and installation polling until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting GHClip v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("GHClip %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	g, gctx := errgroup.WithContext(ctx)

	sched := scheduler.NewSyncScheduler(a.Syncer, a.Store, a.logger, a.clock)
	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("failed to start sync scheduler: %w", err)
	}
	defer sched.Stop()

	var installer *scheduler.InstallationWatcher
	if a.AppFlow != nil {
		installer = scheduler.NewInstallationWatcher(a.AppFlow, a.Store, a.logger, func() { sched.Trigger() })
		if err := installer.Start(gctx); err != nil {
			return fmt.Errorf("failed to start installation watcher: %w", err)
		}
	}

	if a.cfg.SettingsFile != "" {
		w := settings.NewWatcher(settings.NewLoader(a.cfg.SettingsFile), a.Store, a.logger, sched.Reschedule)
		g.Go(func() error { return w.Run(gctx) })
	}

	d := deps.Deps{
		Logger:            a.logger,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		Background:        gctx,
		AllowedCIDRS:      a.cfg.AllowedCIDRS,
		TrustProxy:        a.cfg.TrustProxy,
		RateLimitRequests: a.cfg.RateLimitRequests,
		RateLimitWindow:   a.cfg.RateLimitWindow,
		StoreKind:         a.cfg.Store,
		Store:             a.Store,
		GitHub:            a.GitHub,
		Tokens:            a.Tokens,
		Manual:            a.Manual,
		Device:            a.Device,
		AppFlow:           a.AppFlow,
		Syncer:            a.Syncer,
		Scheduler:         sched,
	}
	if installer != nil {
		d.Installer = installer
	}

	server := httpserver.New(a.cfg.ListenPort, d)
	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if installer != nil {
		installer.Wait()
	}
	if err != nil {
		return err
	}

	a.logger.Info("✅ GHClip stopped cleanly")
	return nil
}
