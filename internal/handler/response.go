package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全APIで共通のレスポンス
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// 一覧は件数も返す
func okList(c echo.Context, data interface{}, n int) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &n})
}

func okMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: false, Error: msg})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return fail(c, he.Status, he.Message)
	}

	//500
	c.Logger().Error(err)
	return fail(c, http.StatusInternalServerError, "Internal server error")
}

// bodyのJSONを読む。壊れていれば 400。
func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// 空なら def、数値でなければ 400
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// "2026-11-01" か RFC3339。空文字は nil。
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}
	t = t.UTC()
	return &t, nil
}
