// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/database"
	"github.com/vouchify/vouchify-backend/internal/i18n"
	"github.com/vouchify/vouchify-backend/internal/router"
	"github.com/vouchify/vouchify-backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := database.SeedInitialData(db); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(db, cfg)

	// Background sweepers: expire listings past their date and fail
	// manual payments nobody confirmed.
	sweeperCtx, stopSweepers := context.WithCancel(context.Background())
	go runSweepers(sweeperCtx, db, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	stopSweepers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func runSweepers(ctx context.Context, db *gorm.DB, cfg *config.Config) {
	voucherService := services.NewVoucherService(db, cfg, nil)
	purchaseService := services.NewPurchaseService(db, cfg, services.NewNotificationService(db, cfg))

	interval := time.Duration(cfg.Purchase.ExpirySweepMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			if expired, err := voucherService.ExpireVouchers(now); err != nil {
				logrus.WithError(err).Error("Voucher expiry sweep failed")
			} else if expired > 0 {
				logrus.WithField("count", expired).Info("Expired vouchers")
			}

			if _, err := purchaseService.FailStaleConfirmations(now); err != nil {
				logrus.WithError(err).Error("Stale confirmation sweep failed")
			}
		}
	}
}
