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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brazadash/internal/config"
	"brazadash/internal/infrastructure/asset"
	"brazadash/internal/infrastructure/events"
	"brazadash/internal/infrastructure/repo"
	"brazadash/internal/infrastructure/stripepay"
	"brazadash/internal/server"
	"brazadash/internal/terminal"
	"brazadash/internal/usecase"
)

// store is everything the use cases persist through.
type store interface {
	usecase.CatalogRepo
	usecase.OrderRepo
	usecase.BookingRepo
	usecase.ReviewRepo
	usecase.NotificationRepo
	Close() error
}

type publisher interface {
	usecase.EventPublisher
	Close() error
}

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			if port > 0 {
				cfg.Port = port
			}
			return serve(cfg, log)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override BRAZADASH_PORT")
	return cmd
}

func openStore(cfg config.Config) (store, error) {
	if cfg.DBDriver == "memory" {
		return repo.NewMemory(), nil
	}
	return repo.Open(cfg.DBDriver, cfg.DatabaseURL)
}

func newGateway(cfg config.Config, log *zap.Logger) *stripepay.Gateway {
	var src stripepay.CredentialSource = stripepay.EnvSource{
		Publishable: cfg.StripePublishableKey,
		Secret:      cfg.StripeSecretKey,
	}
	if cfg.ConnectorURL != "" {
		src = &stripepay.ConnectorSource{
			URL:   cfg.ConnectorURL,
			Token: cfg.ConnectorToken,
			HTTP:  &http.Client{Timeout: 10 * time.Second},
		}
	}
	return stripepay.NewGateway(stripepay.NewCredentialCache(src, cfg.CredentialTTL), cfg.StripeAPIBase, log)
}

func newPublisher(cfg config.Config, log *zap.Logger) publisher {
	if cfg.KafkaBrokers == "" {
		return events.LogPublisher{Logger: log}
	}
	return events.NewProducer(cfg.KafkaBrokers, cfg.NotificationTopic, log)
}

func buildServices(cfg config.Config, st store, gw usecase.PaymentGateway, pollers *terminal.Manager, pub usecase.EventPublisher, log *zap.Logger) (server.Services, error) {
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return server.Services{}, err
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "dev-secret"
	}
	notes := &usecase.Notifier{Repo: st, Events: pub, Log: log.Named("notify")}
	return server.Services{
		Auth:    &usecase.AuthService{JWTSecret: secret},
		Catalog: &usecase.CatalogService{Repo: st},
		Checkout: &usecase.CheckoutService{
			Orders: st, Catalog: st, Gateway: gw, Notifier: notes,
			Currency: cfg.Currency, PublicBaseURL: cfg.PublicBaseURL, Log: log.Named("checkout"),
		},
		BookingCheckout: &usecase.BookingCheckoutService{
			Bookings: st, Catalog: st, Gateway: gw, Notifier: notes,
			BookingFee: cfg.BookingFee, Currency: cfg.Currency, PublicBaseURL: cfg.PublicBaseURL, Log: log.Named("bookings"),
		},
		Orders:   &usecase.OrderService{Orders: st, Notifier: notes, Log: log.Named("orders")},
		Bookings: &usecase.BookingService{Bookings: st, Catalog: st, Notifier: notes, Log: log.Named("bookings")},
		Reviews: &usecase.ReviewService{
			Orders: st, Bookings: st, Reviews: st, Catalog: st, Notifier: notes,
			Photos: asset.NewFSWriter(cfg.UploadsDir, cfg.PublicBaseURL), Log: log.Named("reviews"),
		},
		Terminal:      &usecase.TerminalService{Gateway: gw, Orders: st, Pollers: pollers, Currency: cfg.Currency, Log: log.Named("terminal")},
		Reports:       &usecase.ReportService{Orders: st, Bookings: st, Catalog: st, Location: loc, Log: log.Named("reports")},
		Notifications: notes,
	}, nil
}

func serve(cfg config.Config, log *zap.Logger) error {
	if err := ensureDir(cfg.UploadsDir); err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	gw := newGateway(cfg, log.Named("stripe"))
	pollers := terminal.NewManager(gw, terminal.Options{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		Log:         log.Named("poller"),
	})
	defer pollers.Close()

	pub := newPublisher(cfg, log.Named("events"))
	defer pub.Close()

	svc, err := buildServices(cfg, st, gw, pollers, pub, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(svc, server.Options{UploadsDir: cfg.UploadsDir}, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http server starting",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("kafka", cfg.KafkaBrokers != ""),
			zap.Bool("connector", cfg.ConnectorURL != ""))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
