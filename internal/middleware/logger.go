package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const CtxRequestIDKey = "request_id"

// RequestLogger はリクエストごとに1行ログを出す。
// X-Request-ID が無ければ振って、レスポンスにも返す。
func RequestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Set(CtxRequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)
			if err != nil {
				// echo のエラーハンドラにレスポンスを書かせてからステータスを読む
				c.Error(err)
			}

			status := c.Response().Status
			entry := log.WithFields(logrus.Fields{
				"status":     status,
				"latency":    time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"request_id": requestID,
			})

			switch {
			case status >= 500:
				entry.Error("server error")
			case status >= 400:
				entry.Warn("client error")
			default:
				entry.Info("request processed")
			}
			return nil
		}
	}
}
