package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/IgesAI/AMautomation/internal/middleware"
	auth "github.com/IgesAI/AMautomation/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	loginUC      *auth.AdminLoginUsecase
	tokens       middleware.TokenParser
	tokenTTL     time.Duration // admin_token cookie の有効期限
	cookieSecure bool
	log          *logrus.Logger
}

// DI
func NewAdminHandler(
	loginUC *auth.AdminLoginUsecase,
	tokens middleware.TokenParser,
	tokenTTL time.Duration,
	cookieSecure bool,
	log *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		loginUC:      loginUC,
		tokens:       tokens,
		tokenTTL:     tokenTTL,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

// /admin/login のリクエストボディ
type adminLoginRequest struct {
	Password string `json:"password"`
}

func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/admin/login", h.login)
	g.POST("/admin/logout", h.logout)
	g.GET("/admin/me", h.me)
}

func (h *AdminHandler) login(c echo.Context) error {
	var req adminLoginRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Password == "" {
		return fail(c, http.StatusBadRequest, "Password is required")
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrLoginDisabled):
			h.log.WithField("remote_ip", c.RealIP()).Warn("admin login rejected")
			return fail(c, http.StatusUnauthorized, "Invalid password")
		default:
			h.log.WithError(err).Error("admin login failed")
			return fail(c, http.StatusInternalServerError, "Internal server error")
		}
	}

	h.setTokenCookie(c, out.Token, out.ExpiresAt)
	return okMessage(c, "Login successful")
}

func (h *AdminHandler) logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return okMessage(c, "Logout successful")
}

// ガードの外。トークンが無ければ 401 "Not authenticated"。
func (h *AdminHandler) me(c echo.Context) error {
	raw := middleware.TokenFromRequest(c)
	if raw == "" {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	return ok(c, http.StatusOK, claims)
}

// admin_token をCookieにセット
func (h *AdminHandler) setTokenCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})
}
