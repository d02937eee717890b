package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tverdin/carrental/api"
	"github.com/tverdin/carrental/config"
	"github.com/tverdin/carrental/internal/service/users"
)

type Handlers struct {
	Auth     *api.AuthHandler
	Cars     *api.CarHandler
	Bookings *api.BookingHandler
	Payments *api.PaymentHandler
	Feedback *api.FeedbackHandler
	Admin    *api.AdminHandler
	Users    users.UserUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, handlers Handlers, logger zerolog.Logger) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, handlers),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info().Str("address", cfg.HTTP.Address).Msg("http server started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.Uploads.Dir != "" {
		router.Static(cfg.Uploads.BaseURL, cfg.Uploads.Dir)
	}

	root := router.Group("/api")
	handlers.Auth.Register(root.Group("/auth"))
	handlers.Cars.Register(root)

	authed := root.Group("")
	authed.Use(api.Auth(handlers.Users))
	handlers.Auth.RegisterProtected(authed.Group("/auth"))
	handlers.Bookings.Register(authed)
	handlers.Payments.Register(authed)
	handlers.Feedback.Register(authed)

	adminGroup := authed.Group("/admin")
	adminGroup.Use(api.RequireAdmin())
	handlers.Bookings.RegisterAdmin(adminGroup)
	handlers.Payments.RegisterAdmin(adminGroup)
	handlers.Cars.RegisterAdmin(adminGroup)
	handlers.Admin.Register(adminGroup)

	return router
}
