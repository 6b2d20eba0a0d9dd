package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
	categoryStore "github.com/MrJamesThe3rd/moneyflow/internal/category/store"
	"github.com/MrJamesThe3rd/moneyflow/internal/config"
	"github.com/MrJamesThe3rd/moneyflow/internal/database"
	moneyflowHttp "github.com/MrJamesThe3rd/moneyflow/internal/http"
	categoryHandler "github.com/MrJamesThe3rd/moneyflow/internal/http/category"
	loanHandler "github.com/MrJamesThe3rd/moneyflow/internal/http/loan"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	txHandler "github.com/MrJamesThe3rd/moneyflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
	loanStore "github.com/MrJamesThe3rd/moneyflow/internal/loan/store"
	"github.com/MrJamesThe3rd/moneyflow/internal/logging"
	"github.com/MrJamesThe3rd/moneyflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/moneyflow/internal/transaction/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine: the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format, cfg.App.Name))

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var idempotency func(http.Handler) http.Handler

	if cfg.IdempotencyEnabled() {
		rdb, err := database.NewRedis(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		idempotency = middleware.Idempotency(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		slog.Warn("REDIS_ADDR not set, Idempotency-Key support disabled")
	}

	var (
		tokenService       = identity.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		loanService        = loan.NewService(loanStore.New(db))
		categoryService    = category.NewService(categoryStore.New(db))
		transactionService = transaction.NewService(txStore.New(db), categoryService)
	)

	var (
		loanH        = loanHandler.NewHandler(loanService)
		categoryH    = categoryHandler.NewHandler(categoryService)
		transactionH = txHandler.NewHandler(transactionService)
	)

	router := moneyflowHttp.New(moneyflowHttp.Options{
		AppName:        cfg.App.Name,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Verifier:       tokenService,
		DB:             db,
		Idempotency:    idempotency,
	}, loanH, categoryH, transactionH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
