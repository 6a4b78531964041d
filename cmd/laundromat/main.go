package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"laundromat/internal/config"
	"laundromat/internal/database"
	"laundromat/internal/handler"
	"laundromat/internal/model"
	"laundromat/internal/mw"
	"laundromat/internal/pricing"
	"laundromat/internal/repository"
	"laundromat/internal/service"
	"laundromat/internal/worker"
)

func main() {
	cfg := config.New()

	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		slog.Error("invalid tax rate", "value", cfg.TaxRate, "error", err)
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	// Services
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	calc := pricing.NewCalculator(taxRate)
	locks := service.NewOrderLocks()

	authSvc := service.NewAuthService(userRepo)
	if cfg.OwnerLogin != "" {
		if err := authSvc.EnsureOwner(context.Background(), cfg.OwnerLogin, cfg.OwnerPassword); err != nil {
			slog.Error("failed to bootstrap owner account", "error", err)
			os.Exit(1)
		}
	}
	notifSvc := service.NewNotificationService(db)
	orderSvc := service.NewOrderService(orderRepo, calc, notifSvc, locks)
	modSvc := service.NewModificationService(orderRepo, calc, notifSvc, locks)

	// Worker
	lockWorker := worker.NewLockWorker(orderRepo, notifSvc, cfg.LockWorkerInterval, cfg.LockLead)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/user/register", handler.RegisterHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/user/login", handler.LoginHandler(authSvc, cfg.JWTSecret))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))
		r.Get("/api/orders/recurring", handler.ListRecurringHandler(orderSvc))
		r.Get("/api/orders/{id}", handler.GetOrderHandler(orderSvc))
		r.Get("/api/orders/{id}/occurrences", handler.OccurrencesHandler(orderSvc, cfg.ProjectionHorizonMonths, cfg.ProjectionMaxIterations))
		r.Put("/api/orders/{id}/propose-modification", handler.ProposeModificationHandler(modSvc))
		r.Put("/api/orders/{id}/cancel-recurring", handler.CancelRecurringHandler(orderSvc))

		r.Get("/api/notifications", handler.ListNotificationsHandler(notifSvc))
		r.Put("/api/notifications/{id}/read", handler.MarkNotificationReadHandler(notifSvc))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleDriver))
			r.Put("/api/orders/{id}/status", handler.UpdateStatusHandler(orderSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(model.RoleOwner, model.RoleAdmin))
			r.Post("/api/user/register-staff", handler.RegisterStaffHandler(authSvc))
			r.Post("/api/orders", handler.CreateOrderHandler(orderSvc))
			r.Put("/api/orders/{id}/approve-modification", handler.ApproveModificationHandler(modSvc))
			r.Put("/api/orders/{id}/reject-modification", handler.RejectModificationHandler(modSvc))
			r.Put("/api/orders/{id}/assign-driver", handler.AssignDriverHandler(orderSvc))
			r.Post("/api/orders/{id}/recalculate-total", handler.RecalculateTotalHandler(orderSvc))
		})
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go lockWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
