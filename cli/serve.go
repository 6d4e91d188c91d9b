package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/autotraits-be/api/v1"
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/lib/storage"
	"github.com/autotraits-be/routes"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	gin.SetMode(a.cfg.GinMode)

	if err := a.openDatabase(); err != nil {
		return err
	}
	defer database.Close()

	store, err := storage.Open(ctx, a.cfg)
	if err != nil {
		return err
	}

	measurements := services.NewMeasurementService()
	svc := v1.Services{
		Auth:         services.NewAuthService(a.cfg),
		Plants:       services.NewPlantService(),
		Measurements: measurements,
		Imports:      services.NewImportService(measurements),
		Files:        services.NewFileService(store, a.cfg.SignedURLExpiry, a.cfg.MaxUploadSize),
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           routes.SetupRoutes(a.cfg, a.log, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting",
			zap.String("port", a.cfg.Port),
			zap.String("blob_driver", string(store.Driver())),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
