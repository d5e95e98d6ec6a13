package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	AdminSubject = "admin"
	AdminRole    = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// トークンから取り出した管理者情報
type AdminClaims struct {
	Subject   string    `json:"sub"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HS256のJWTを発行・検証する
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// DI
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *JWTIssuer) Issue(now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":  AdminSubject,
		"role": AdminRole,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Parse は署名・期限・role を確認する
func (i *JWTIssuer) Parse(raw string) (AdminClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return AdminClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return AdminClaims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub != AdminSubject || role != AdminRole {
		return AdminClaims{}, ErrInvalidToken
	}

	out := AdminClaims{Subject: sub, Role: role}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}
