package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"payslipgen/internal/document"
	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/auth"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/cache"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/db"
	"payslipgen/internal/platform/jobs"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *db.Pool
	Redis  *redis.Client
	Router http.Handler
	Jobs   *jobs.Service
	Log    *zap.Logger
}

// New connects backing services and assembles the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL, 5)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	if rdb == nil {
		log.Info("REDIS_URL not set, idempotency keys are ignored")
	}

	renderer, err := document.NewRenderer(document.Options{
		Money: document.MoneyFormat{
			Decimals: cfg.DocAmountDecimals,
			Suffix:   cfg.DocAmountSuffix,
			Locale:   cfg.DocNumberLocale,
		},
		FontPath: cfg.DocFontPath,
		Logos:    document.NewLogoLoader(document.HTTPFetcher{MaxBytes: cfg.LogoMaxBytes, PublicOnly: true}, cfg.LogoFetchTimeout, cfg.LogoMaxBytes),
		Logger:   log.Named("document"),
	})
	if err != nil {
		pool.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	service := payslip.NewService(payslip.NewStore(pool), payslip.Defaults{
		Currency:       cfg.DefaultCurrency,
		CurrencySymbol: cfg.DefaultCurrencySymbol,
	}, log.Named("payslip"))

	var issuer *auth.Issuer
	if cfg.APIKeyHash != "" {
		issuer = &auth.Issuer{Secret: cfg.JWTSecret, KeyHash: cfg.APIKeyHash, TTL: cfg.TokenTTL}
	}

	auditLog := audit.New(pool)
	deps := Deps{
		Config:      cfg,
		Log:         log,
		Metrics:     metrics.New(),
		Payslips:    service,
		Renderer:    renderer,
		Audit:       auditLog,
		Idempotency: middleware.NewIdempotencyStore(rdb, cfg.IdempotencyTTL),
		Ready: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	}
	if issuer != nil {
		deps.Issuer = issuer
	}

	return &App{
		Config: cfg,
		DB:     pool,
		Redis:  rdb,
		Router: NewRouter(deps),
		Jobs:   jobs.New(auditLog, cfg.AuditRetention, cfg.AuditRetentionInterval, log.Named("jobs")),
		Log:    log,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.Jobs != nil {
		a.Jobs.Start(gctx)
	}
	g.Go(func() error {
		a.Log.Info("payslip server listening", zap.String("addr", a.Config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.ShutdownTimeout)
		defer cancel()
		a.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
