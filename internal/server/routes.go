package server

import (
	"github.com/IgesAI/AMautomation/internal/handler"
	"github.com/IgesAI/AMautomation/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers は /api 配下に登録するハンドラ一式
type Handlers struct {
	Admin         *handler.AdminHandler
	Summary       *handler.SummaryHandler
	Items         *handler.ItemHandler
	Transactions  *handler.TransactionHandler
	Catalog       *handler.CatalogHandler
	Notifications *handler.NotificationHandler
}

// RegisterRoutes は /api を作って各ハンドラを登録する
func RegisterRoutes(e *echo.Echo, h Handlers, tokens middleware.TokenParser) {
	api := e.Group("/api")
	admin := middleware.AdminAuth(tokens)

	h.Admin.RegisterRoutes(api)
	h.Summary.RegisterRoutes(api)
	h.Items.RegisterRoutes(api, admin)
	h.Transactions.RegisterRoutes(api)
	h.Catalog.RegisterRoutes(api, admin)
	h.Notifications.RegisterRoutes(api, admin)
}
