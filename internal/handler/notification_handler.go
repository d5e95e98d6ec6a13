package handler

import (
	"net/http"

	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/labstack/echo/v4"
)

type RuleRequest struct {
	ItemID               *string  `json:"item_id"`
	CategoryID           *string  `json:"category_id"`
	Emails               []string `json:"emails"`
	NotifyOnLowStock     *bool    `json:"notify_on_low_stock"`
	NotifyOnOutOfStock   *bool    `json:"notify_on_out_of_stock"`
	NotifyOnExpiringSoon *bool    `json:"notify_on_expiring_soon"`
	ExpiringSoonDays     *int     `json:"expiring_soon_days"`
	IsActive             *bool    `json:"is_active"`
	Priority             *int     `json:"priority"`
}

type testEmailRequest struct {
	Email string `json:"email"`
}

// 未指定なら両方 true
type forceResendRequest struct {
	IncludeLow        *bool `json:"include_low"`
	IncludeOutOfStock *bool `json:"include_out_of_stock"`
}

// /notification-rules と /notifications
type NotificationHandler struct {
	rules  *usecase.NotificationRuleUsecase
	notify *usecase.NotificationUsecase
}

// DI
func NewNotificationHandler(rules *usecase.NotificationRuleUsecase, notify *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{rules: rules, notify: notify}
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("/notification-rules", h.listRules)
	g.POST("/notification-rules", h.createRule, admin)
	g.PUT("/notification-rules/:id", h.updateRule, admin)
	g.DELETE("/notification-rules/:id", h.deleteRule, admin)

	n := g.Group("/notifications", admin)
	n.POST("/check", h.check)
	n.GET("/status", h.status)
	n.POST("/test", h.test)
	n.POST("/force-resend", h.forceResend)
}

func (h *NotificationHandler) listRules(c echo.Context) error {
	out, err := h.rules.List(c.Request().Context(), c.QueryParam("item_id"))
	if err != nil {
		return writeError(c, err)
	}
	return okList(c, out, len(out))
}

// 品目ルールが既にあれば上書きして 200、新規なら 201
func (h *NotificationHandler) createRule(c echo.Context) error {
	var req RuleRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	rule, created, err := h.rules.Create(c.Request().Context(), usecase.RuleInput(req))
	if err != nil {
		return writeError(c, err)
	}
	if created {
		return ok(c, http.StatusCreated, rule)
	}
	return ok(c, http.StatusOK, rule)
}

func (h *NotificationHandler) updateRule(c echo.Context) error {
	var req RuleRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	rule, err := h.rules.Update(c.Request().Context(), c.Param("id"), usecase.RuleInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, rule)
}

func (h *NotificationHandler) deleteRule(c echo.Context) error {
	if err := h.rules.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return okMessage(c, "Notification rule deleted")
}

func (h *NotificationHandler) check(c echo.Context) error {
	res, err := h.notify.Check(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    res,
		Message: "Notification check completed. Any items that changed status will trigger notifications.",
	})
}

func (h *NotificationHandler) status(c echo.Context) error {
	st, err := h.notify.Status(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, st)
}

func (h *NotificationHandler) test(c echo.Context) error {
	var req testEmailRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	msg, err := h.notify.Test(c.Request().Context(), req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return okMessage(c, msg)
}

func (h *NotificationHandler) forceResend(c echo.Context) error {
	var req forceResendRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	includeLow, includeOut := true, true
	if req.IncludeLow != nil {
		includeLow = *req.IncludeLow
	}
	if req.IncludeOutOfStock != nil {
		includeOut = *req.IncludeOutOfStock
	}

	out, err := h.notify.ForceResend(c.Request().Context(), includeLow, includeOut)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: out, Message: out.Message})
}
