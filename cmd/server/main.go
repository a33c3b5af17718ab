package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-service/internal/factory"
	"account-service/internal/handler"
	"account-service/internal/util"
)

func main() {
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()
	router := setupRouter(f)

	addr := cfg.GetServerAddress()
	if cfg.Server.EnableTLS {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.TLSPort)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		var err error
		if cfg.Server.EnableTLS {
			util.Info("starting HTTPS server",
				util.String("environment", cfg.Environment),
				util.String("address", server.Addr))
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			util.Warn("starting HTTP server, TLS is disabled",
				util.String("environment", cfg.Environment),
				util.String("address", server.Addr))
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			util.Fatal("server failed", util.ErrorField(err))
		}
	}()

	waitForShutdown(f, server)
}

func setupRouter(f *factory.Factory) http.Handler {
	services := f.ServiceFactory()

	authHandler := handler.NewAuthHandler(services.AuthService(), services.IdentityService(), util.Get())
	userHandler := handler.NewUserHandler(services.UserService(), util.Get())
	adminHandler := handler.NewAdminHandler(services.AdminService(), util.Get())

	return handler.NewRouter(authHandler, userHandler, adminHandler, f.TokenManager(), util.Get())
}

func waitForShutdown(f *factory.Factory, server *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-signalChan
	util.Info("received shutdown signal", util.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		util.Error("failed to shut down server gracefully", util.ErrorField(err))
	}
	f.Close()
}
