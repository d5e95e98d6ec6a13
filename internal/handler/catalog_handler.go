package handler

import (
	"net/http"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

type LocationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type SupplierRequest struct {
	Name                *string `json:"name"`
	ContactEmail        *string `json:"contact_email"`
	Phone               *string `json:"phone"`
	DefaultLeadTimeDays *int    `json:"default_lead_time_days"`
	Notes               *string `json:"notes"`
}

// /categories /locations /suppliers
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

func (h *CatalogHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("/categories", h.listCategories)
	g.GET("/categories/:id", h.getCategory)
	g.POST("/categories", h.createCategory, admin)
	g.PUT("/categories/:id", h.updateCategory, admin)
	g.DELETE("/categories/:id", h.deleteCategory, admin)

	g.GET("/locations", h.listLocations)
	g.GET("/locations/:id", h.getLocation)
	g.POST("/locations", h.createLocation, admin)
	g.PUT("/locations/:id", h.updateLocation, admin)
	g.DELETE("/locations/:id", h.deleteLocation, admin)

	g.GET("/suppliers", h.listSuppliers)
	g.GET("/suppliers/:id", h.getSupplier)
	g.POST("/suppliers", h.createSupplier, admin)
	g.PUT("/suppliers/:id", h.updateSupplier, admin)
	g.DELETE("/suppliers/:id", h.deleteSupplier, admin)
}

// =====================
// categories
// =====================

func (h *CatalogHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, out, len(out))
}

func (h *CatalogHandler) getCategory(c echo.Context) error {
	out, err := h.uc.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateCategory(c.Request().Context(), usecase.CategoryInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, out)
}

func (h *CatalogHandler) updateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateCategory(c.Request().Context(), c.Param("id"), usecase.CategoryInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) deleteCategory(c echo.Context) error {
	if err := h.uc.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return okMessage(c, "Category deleted successfully")
}

// =====================
// locations
// =====================

func (h *CatalogHandler) listLocations(c echo.Context) error {
	out, err := h.uc.ListLocations(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, out, len(out))
}

func (h *CatalogHandler) getLocation(c echo.Context) error {
	out, err := h.uc.GetLocation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) createLocation(c echo.Context) error {
	var req LocationRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateLocation(c.Request().Context(), usecase.LocationInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, out)
}

func (h *CatalogHandler) updateLocation(c echo.Context) error {
	var req LocationRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateLocation(c.Request().Context(), c.Param("id"), usecase.LocationInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) deleteLocation(c echo.Context) error {
	if err := h.uc.DeleteLocation(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return okMessage(c, "Location deleted successfully")
}

// =====================
// suppliers
// =====================

func (h *CatalogHandler) listSuppliers(c echo.Context) error {
	out, err := h.uc.ListSuppliers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, out, len(out))
}

func (h *CatalogHandler) getSupplier(c echo.Context) error {
	out, err := h.uc.GetSupplier(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) createSupplier(c echo.Context) error {
	var req SupplierRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateSupplier(c.Request().Context(), usecase.SupplierInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, out)
}

func (h *CatalogHandler) updateSupplier(c echo.Context) error {
	var req SupplierRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateSupplier(c.Request().Context(), c.Param("id"), usecase.SupplierInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

func (h *CatalogHandler) deleteSupplier(c echo.Context) error {
	if err := h.uc.DeleteSupplier(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return okMessage(c, "Supplier deleted successfully")
}
