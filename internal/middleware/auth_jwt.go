package middleware

import (
	"net/http"
	"strings"

	auth "github.com/IgesAI/AMautomation/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	AdminCookieName = "admin_token"
	CtxAdminKey     = "admin" // auth.AdminClaims
)

// トークンの検証（auth.JWTIssuer）
type TokenParser interface {
	Parse(raw string) (auth.AdminClaims, error)
}

// AdminAuth は admin_token Cookie か Bearer ヘッダのJWTを検証する。
// 通らなければハンドラを呼ばずに 401 を返す。
func AdminAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromRequest(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized - Admin access required"))
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized - Admin access required"))
			}

			//contextへ保存
			c.Set(CtxAdminKey, claims)
			return next(c)
		}
	}
}

// Cookie を優先し、無ければ Authorization: Bearer
func TokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(AdminCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}

	authz := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AdminFromContext はガードが保存した管理者情報を返す
func AdminFromContext(c echo.Context) (auth.AdminClaims, bool) {
	claims, ok := c.Get(CtxAdminKey).(auth.AdminClaims)
	return claims, ok
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Error: msg}
}
