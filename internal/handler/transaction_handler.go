package handler

import (
	"net/http"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// POST /transactions のリクエストボディ
type TransactionRequest struct {
	ItemID        string           `json:"item_id"`
	Type          string           `json:"type"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PerformedBy   *string          `json:"performed_by"`
	MachineOrArea *string          `json:"machine_or_area"`
	JobReference  *string          `json:"job_reference"`
	Notes         *string          `json:"notes"`
}

// /transactions は現場の端末から使うので認証なし
type TransactionHandler struct {
	uc *usecase.TransactionUsecase
}

// DI
func NewTransactionHandler(uc *usecase.TransactionUsecase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

func (h *TransactionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/transactions", h.list)
	g.POST("/transactions", h.create)
}

func (h *TransactionHandler) create(c echo.Context) error {
	var req TransactionRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateTransactionInput{
		ItemID:        req.ItemID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		PerformedBy:   req.PerformedBy,
		MachineOrArea: req.MachineOrArea,
		JobReference:  req.JobReference,
		Notes:         req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, out)
}

func (h *TransactionHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeError(c, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, err)
	}

	txs, err := h.uc.List(c.Request().Context(), usecase.ListTransactionsInput{
		ItemID:        c.QueryParam("item_id"),
		Type:          c.QueryParam("type"),
		PerformedBy:   c.QueryParam("performed_by"),
		MachineOrArea: c.QueryParam("machine_or_area"),
		JobReference:  c.QueryParam("job_reference"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, txs, len(txs))
}
