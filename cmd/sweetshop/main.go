// Package main запускает HTTP-сервер страницы заказов кондитерской.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/sweetshop-system/internal/cep"
	"github.com/mmeshcher/sweetshop-system/internal/config"
	"github.com/mmeshcher/sweetshop-system/internal/handler"
	"github.com/mmeshcher/sweetshop-system/internal/middleware"
	"github.com/mmeshcher/sweetshop-system/internal/model"
	"github.com/mmeshcher/sweetshop-system/internal/repository"
	"github.com/mmeshcher/sweetshop-system/internal/service"
	"github.com/mmeshcher/sweetshop-system/internal/session"
)

const sessionTTL = 4 * time.Hour

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	cepClient := cep.NewClient(cfg.CepServiceAddress)

	svc, err := service.NewService(repo, cepClient, model.MenuConfig{
		AllowDelivery:    cfg.AllowDelivery,
		DeliveryFeeCents: cfg.DeliveryFeeCents(),
	})
	if err != nil {
		sugar.Fatalw("service initialization error", "error", err.Error())
	}
	defer svc.Close()

	sessions := session.NewStore(sessionTTL)
	sessionMiddleware := middleware.NewSessionMiddleware(cfg.SessionSecret, sessions)
	h := handler.NewHandler(svc, logger, sessionMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновой очистки неактивных сессий
	g.Go(func() error {
		sessions.StartCleanup(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting sweetshop server", "addr", cfg.RunAddress, "delivery", cfg.AllowDelivery)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
