package handler

import (
	"context"
	"net/http"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
)

// DBの疎通確認（*sql.DB の PingContext）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// /summary と /healthz
type SummaryHandler struct {
	uc *usecase.SummaryUsecase
	db Pinger
}

// DI
func NewSummaryHandler(uc *usecase.SummaryUsecase, db Pinger) *SummaryHandler {
	return &SummaryHandler{uc: uc, db: db}
}

func (h *SummaryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/summary", h.summary)
	g.GET("/healthz", h.healthz)
}

func (h *SummaryHandler) summary(c echo.Context) error {
	s, err := h.uc.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, s)
}

func (h *SummaryHandler) healthz(c echo.Context) error {
	if h.db != nil {
		if err := h.db.PingContext(c.Request().Context()); err != nil {
			return fail(c, http.StatusServiceUnavailable, "database unavailable")
		}
	}
	return okMessage(c, "ok")
}
