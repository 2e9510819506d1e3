// Command server runs the ponto timekeeping API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/pontofacil/internal/clock"
	"github.com/and161185/pontofacil/internal/config"
	"github.com/and161185/pontofacil/internal/limiter"
	"github.com/and161185/pontofacil/internal/migrate"
	"github.com/and161185/pontofacil/internal/repository/postgres"
	grpcserver "github.com/and161185/pontofacil/internal/server/grpc"
	httpserver "github.com/and161185/pontofacil/internal/server/http"
	"github.com/and161185/pontofacil/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("http", cfg.HTTPAddr),
		zap.String("grpcHealth", cfg.GRPCHealthAddr),
		zap.String("timezone", cfg.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ver, err := migrate.Up(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	clk := clock.Real()

	users := postgres.NewUserRepo(db)
	events := postgres.NewEventRepo(db)
	audits := postgres.NewAuditRepo(db)
	settings := postgres.NewSettingsRepo(db)
	policies := postgres.NewPolicyRepo(db)
	devices := postgres.NewDeviceRepo(db)

	var lim limiter.Limiter = limiter.NewPG(db.Pool, clk, limiter.Config{
		Window:   cfg.Throttle.Window,
		MaxFails: cfg.Throttle.MaxFails,
		BlockFor: cfg.Throttle.BlockFor,
	})
	if cfg.Throttle.Disabled {
		logger.Warn("login throttling disabled")
		lim = limiter.Nop{}
	}

	authSvc := service.NewAuthService(users, policies, devices, lim, clk, service.AuthConfig{
		SignKey:   []byte(cfg.JWTSecret),
		AccessTTL: cfg.AccessTTL(),
	})
	settingsSvc := service.NewSettingsService(settings, clk)

	created, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.AdminEmail))
	}
	if site, err := settingsSvc.Site(ctx); err != nil {
		return err
	} else if site == nil {
		logger.Warn("no site configured; punches are accepted from any location")
	}

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpserver.NewRouter(httpserver.Deps{
		Log:         logger,
		Zone:        cfg.Zone,
		Auth:        authSvc,
		Punches:     service.NewPunchService(events, settings, cfg.Zone, clk),
		Workdays:    service.NewWorkdayService(users, events, settings, cfg.Zone),
		Employees:   service.NewEmployeeService(users, policies, devices, clk),
		Settings:    settingsSvc,
		Corrections: service.NewCorrectionService(users, events, audits, settings, cfg.Zone, clk),
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	probe := grpcserver.NewProbe(logger, cfg.Dev)
	lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- probe.Serve(lis)
	}()
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	probe.Ready()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	probe.Stop(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return serveErr
}
