package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IgesAI/AMautomation/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// New はミドルウェアとルートを登録した echo を返す
func New(h Handlers, tokens middleware.TokenParser, log *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(log.WriterLevel(logrus.ErrorLevel))

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	RegisterRoutes(e, h, tokens)
	return e
}

// Run は ctx が終わるまで待ち受け、終わったら shutdownTimeout 以内に止める
func Run(ctx context.Context, e *echo.Echo, port int, shutdownTimeout time.Duration, log *logrus.Logger) error {
	addr := fmt.Sprintf(":%d", port)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "http server")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return <-errCh
}
