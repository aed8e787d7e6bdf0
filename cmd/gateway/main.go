package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shophub-gateway/internal/client/cartservice"
	"shophub-gateway/internal/client/productservice"
	"shophub-gateway/internal/client/userservice"
	"shophub-gateway/internal/config"
	"shophub-gateway/internal/db"
	"shophub-gateway/internal/domain"
	"shophub-gateway/internal/guestcart"
	"shophub-gateway/internal/httpserver"
	"shophub-gateway/internal/kvstore"
	authsvc "shophub-gateway/internal/service/auth"
	reconcilesvc "shophub-gateway/internal/service/reconcile"
	"shophub-gateway/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[gateway] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	kv, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("open %s store: %v", cfg.StoreBackend, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	cartClient := cartservice.New(cfg.CheckoutURL)
	userClient := userservice.New(cfg.UserServiceURL)
	productClient := productservice.New(cfg.ProductURL)

	guestCart := guestcart.New(kv)
	sessions := session.New(kv)

	reconciler := reconcilesvc.New(cartClient, guestCart, logger)
	reconciler.OnComplete(func(s reconcilesvc.Summary) {
		logger.Printf("cart merge complete for user %s: %d merged, %d failed", s.UserID, s.Merged, s.Failed)
	})

	authService := authsvc.New(userClient, sessions, reconciler, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		AuthSvc:   authService,
		GuestCart: guestCart,
		Products:  productClient,
		Carts:     cartClient,
		StorePing: storePing(kv),
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func openStore(ctx context.Context, cfg config.Config) (kvstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return kvstore.NewMemory(), nil, nil
	case "file":
		store, err := kvstore.NewFile(cfg.StoreDir)
		return store, nil, err
	case "redis":
		store, err := kvstore.NewRedis(ctx, cfg.RedisAddr)
		return store, nil, err
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
	}
}

func storePing(kv kvstore.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := kv.Get(ctx, "readyz-probe")
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}
}
