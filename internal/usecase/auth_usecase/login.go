package auth

import (
	"context"
	"errors"
	"time"
)

// パスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 管理者パスワードが未設定
var ErrLoginDisabled = errors.New("admin password is not configured")

// 現在の時間
type Clock interface {
	Now() time.Time
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(now time.Time) (token string, expiresAt time.Time, err error)
}

// handlerからusecaseに渡す入力
type LoginInput struct {
	Password string
}

// handlerがCookieに詰める
type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
}

// 管理者は1人（パスワードのbcryptハッシュだけを持つ）
type AdminLoginUsecase struct {
	verifier     PasswordVerifier
	issuer       AccessTokenIssuer
	clock        Clock
	passwordHash string
}

// DI
func NewAdminLoginUsecase(
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
	passwordHash string,
) *AdminLoginUsecase {
	return &AdminLoginUsecase{
		verifier:     verifier,
		issuer:       issuer,
		clock:        clock,
		passwordHash: passwordHash,
	}
}

// ログイン処理を実行する
func (u *AdminLoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	if u.passwordHash == "" {
		return LoginOutput{}, ErrLoginDisabled
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, u.passwordHash); !ok {
		return LoginOutput{}, ErrInvalidCredentials
	}

	//AccessToken発行
	token, exp, err := u.issuer.Issue(u.clock.Now())
	if err != nil {
		return LoginOutput{}, err
	}
	return LoginOutput{Token: token, ExpiresAt: exp}, nil
}
