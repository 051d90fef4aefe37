package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/config"
	"github.com/iamsmart/masterclass/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP profile store",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		if cfg.JWTSecret == config.DefaultJWTSecret {
			logger.Printf("warning: MASTERCLASS_JWT_SECRET is not set; using the development secret")
		}
		if cfg.AdminPassHash == "" {
			logger.Printf("warning: MASTERCLASS_ADMIN_PASS_HASH is not set; admin login is disabled")
		}
		if cfg.DevLogin {
			logger.Printf("warning: MASTERCLASS_DEV_LOGIN is on; learners can request tokens without a password")
		}

		content, err := loadContent(cfg)
		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		auth := server.NewAuth(cfg.JWTSecret, cfg.AdminUser,
			server.WithAdminPassHash(cfg.AdminPassHash),
			server.WithDevLogin(cfg.DevLogin),
		)
		srv, err := server.New(server.Options{
			Profiles:    st.ProfileRepo(),
			Content:     content,
			Auth:        auth,
			CORSOrigins: cfg.CORSOrigins,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return listen(ctx, &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MASTERCLASS_HTTP_ADDR)")
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func listen(ctx context.Context, hs *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("profile store listening on %s", hs.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
