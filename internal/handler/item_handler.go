package handler

import (
	"net/http"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// POST / PUT /items のリクエストボディ。数量は数値でも文字列でもよい。
type ItemRequest struct {
	Name            *string          `json:"name"`
	SKU             *string          `json:"sku"`
	CategoryID      *string          `json:"category_id"`
	LocationID      *string          `json:"location_id"`
	SupplierID      *string          `json:"supplier_id"`
	UnitOfMeasure   *string          `json:"unit_of_measure"`
	CurrentQuantity *decimal.Decimal `json:"current_quantity"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity"`
	ExpirationDate  *string          `json:"expiration_date"`
	IsActive        *bool            `json:"is_active"`
	Notes           *string          `json:"notes"`
}

func (r ItemRequest) toInput() (usecase.ItemInput, error) {
	exp, err := parseDate("expiration_date", r.ExpirationDate)
	if err != nil {
		return usecase.ItemInput{}, err
	}
	return usecase.ItemInput{
		Name:            r.Name,
		SKU:             r.SKU,
		CategoryID:      r.CategoryID,
		LocationID:      r.LocationID,
		SupplierID:      r.SupplierID,
		UnitOfMeasure:   r.UnitOfMeasure,
		CurrentQuantity: r.CurrentQuantity,
		MinimumQuantity: r.MinimumQuantity,
		ReorderQuantity: r.ReorderQuantity,
		ExpirationDate:  exp,
		IsActive:        r.IsActive,
		Notes:           r.Notes,
	}, nil
}

// /items
type ItemHandler struct {
	uc *usecase.ItemUsecase
}

// DI
func NewItemHandler(uc *usecase.ItemUsecase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

// 参照は誰でも、変更は admin のみ
func (h *ItemHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("/items", h.list)
	g.GET("/items/:id", h.detail)
	g.POST("/items", h.create, admin)
	g.PUT("/items/:id", h.update, admin)
	g.DELETE("/items/:id", h.delete, admin)
}

func (h *ItemHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeError(c, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, err)
	}

	items, err := h.uc.List(c.Request().Context(), usecase.ListItemsInput{
		Status:     c.QueryParam("status"),
		CategoryID: c.QueryParam("category_id"),
		Search:     c.QueryParam("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, items, len(items))
}

func (h *ItemHandler) detail(c echo.Context) error {
	it, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, it)
}

func (h *ItemHandler) create(c echo.Context) error {
	var req ItemRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	it, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, it)
}

func (h *ItemHandler) update(c echo.Context) error {
	var req ItemRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	it, err := h.uc.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, it)
}

func (h *ItemHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return okMessage(c, "Item deactivated")
}
