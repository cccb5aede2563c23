package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/checkout"
	"github.com/vin-devs/learnsite/logger"
	"github.com/vin-devs/learnsite/payment"
	"github.com/vin-devs/learnsite/routes"
)

const (
	shutdownTimeout = 10 * time.Second
	settleTimeout   = 5 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	log := a.log
	log.Info("✅ Starting application...", zap.String("env", a.cfg.Env))

	// 1️⃣ Database and device storage
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	store, closeStore, err := a.openStorage(ctx, db)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher := a.openPublisher()
	defer closePublisher()

	// 2️⃣ Services
	authSvc := auth.NewService(db, store, auth.NewIssuer(a.cfg.JWTSecret, a.cfg.SessionTTL), log)
	if a.cfg.DemoMode {
		if err := a.seedCatalog(ctx, db, authSvc, false); err != nil {
			return err
		}
	}

	cat := catalog.New(catalog.NewRepository(db), log)
	if err := cat.Refresh(ctx); err != nil {
		return err
	}
	carts := cart.NewService(store, log)
	orders := checkout.NewService(db, carts, cat, publisher, log)

	// 3️⃣ Payments settle orders in the background
	tracker := payment.NewTracker(log, payment.NewMobileMoney(), payment.NewWallet())
	defer tracker.Close()
	tracker.OnSettled(func(attempt payment.Attempt) {
		sctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		if err := orders.Settle(sctx, attempt); err != nil {
			log.Error("❌ failed to settle order",
				zap.String("attempt_id", attempt.ID),
				zap.String("order_id", attempt.Request.OrderID),
				zap.Error(err),
			)
		}
	})

	// 4️⃣ HTTP
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.GinLogger(log), logger.GinRecovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !slices.Contains(a.cfg.CORSOrigins, "*"),
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, &routes.Services{
		Config:   a.cfg,
		DB:       db,
		Log:      log,
		Store:    store,
		Catalog:  cat,
		Carts:    carts,
		Auth:     authSvc,
		Checkout: orders,
		Payments: tracker,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("port", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Shutting down server")
		// Close websocket subscriptions first so hijacked connections end.
		tracker.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
