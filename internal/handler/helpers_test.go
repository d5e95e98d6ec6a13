package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/handler"
	"github.com/IgesAI/AMautomation/internal/infra/cache"
	"github.com/IgesAI/AMautomation/internal/infra/db/dbtest"
	infraRepo "github.com/IgesAI/AMautomation/internal/infra/repository"
	"github.com/IgesAI/AMautomation/internal/notify"
	"github.com/IgesAI/AMautomation/internal/server"
	"github.com/IgesAI/AMautomation/internal/usecase"
	auth "github.com/IgesAI/AMautomation/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminPassword = "s3cret-pass"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Send(ctx context.Context, to []string, subject string, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func (m *MailerMock) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

// API一式（sqlite + redis無効 + mailer mock）
type api struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	mailer *MailerMock
	txuc   *usecase.TransactionUsecase
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	gdb := dbtest.New(t)
	clock := fixedClock{t: time.Now().UTC()}
	rc, err := cache.NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	mailer := &MailerMock{}
	mailer.On("Configured").Return(true)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	items := infraRepo.NewItemGormRepository(gdb)
	categories := infraRepo.NewCategoryGormRepository(gdb)
	locations := infraRepo.NewLocationGormRepository(gdb)
	suppliers := infraRepo.NewSupplierGormRepository(gdb)
	txs := infraRepo.NewTransactionGormRepository(gdb)
	rules := infraRepo.NewNotificationRuleGormRepository(gdb)
	logs := infraRepo.NewNotificationLogGormRepository(gdb)

	notifier := notify.New(notify.Deps{
		Items: items, Rules: rules, Transactions: txs, Logs: logs,
		Mailer: mailer, Locker: rc, Clock: clock, Log: log,
	}, notify.Config{DefaultRecipients: []string{"fallback@lab.io"}, AppURL: "http://inventory.local"})

	hash, err := auth.NewBcryptPasswordHasher(bcrypt.MinCost).Hash(adminPassword)
	require.NoError(t, err)
	issuer := auth.NewJWTIssuer("handler-test-secret", time.Hour)
	loginUC := auth.NewAdminLoginUsecase(auth.NewBcryptPasswordVerifier(), issuer, fixedClock{t: time.Now()}, hash)

	txuc := usecase.NewTransactionUsecase(infraRepo.NewTxManagerGorm(gdb), items, txs, notifier, rc, clock, log)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	h := server.Handlers{
		Admin:        handler.NewAdminHandler(loginUC, issuer, issuer.TTL(), false, log),
		Summary:      handler.NewSummaryHandler(usecase.NewSummaryUsecase(items, txs, rc, clock, log), sqlDB),
		Items:        handler.NewItemHandler(usecase.NewItemUsecase(items, categories, locations, suppliers, rc, clock, log)),
		Transactions: handler.NewTransactionHandler(txuc),
		Catalog:      handler.NewCatalogHandler(usecase.NewCatalogUsecase(categories, locations, suppliers, items, log)),
		Notifications: handler.NewNotificationHandler(
			usecase.NewNotificationRuleUsecase(rules, items, categories, log),
			usecase.NewNotificationUsecase(notifier, rules, logs, config.SMTPConfig{}, []string{"fallback@lab.io"}, log),
		),
	}

	token, _, err := issuer.Issue(time.Now())
	require.NoError(t, err)

	return &api{t: t, e: server.New(h, issuer, log), db: gdb, mailer: mailer, txuc: txuc, token: token}
}

// レスポンスの envelope。data は呼び出し側で読む。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
}

func (a *api) call(method string, path string, body interface{}, asAdmin bool) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if asAdmin {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

func (a *api) count(model interface{}) int64 {
	a.t.Helper()
	var n int64
	require.NoError(a.t, a.db.Model(model).Count(&n).Error)
	return n
}

// 管理APIでカテゴリを作ってIDを返す
func (a *api) createCategory(name string) string {
	a.t.Helper()
	rec, env := a.call(http.MethodPost, "/api/categories", map[string]interface{}{"name": name}, true)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	decodeData(a.t, env, &out)
	return out.ID
}

// 管理APIで品目を作ってIDを返す
func (a *api) createItem(categoryID string, name string, current interface{}, minimum interface{}) string {
	a.t.Helper()
	rec, env := a.call(http.MethodPost, "/api/items", map[string]interface{}{
		"name":             name,
		"category_id":      categoryID,
		"unit_of_measure":  "L",
		"current_quantity": current,
		"minimum_quantity": minimum,
		"reorder_quantity": 10,
	}, true)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	decodeData(a.t, env, &out)
	return out.ID
}
