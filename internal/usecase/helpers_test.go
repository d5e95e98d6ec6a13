package usecase_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/infra/cache"
	"github.com/IgesAI/AMautomation/internal/infra/db/dbtest"
	infraRepo "github.com/IgesAI/AMautomation/internal/infra/repository"
	"github.com/IgesAI/AMautomation/internal/notify"
	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// 共通
// =====================

var testNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
		assert.Equal(t, msg, he.Message)
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func dec(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

// =====================
// Mailer mock
// =====================

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Send(ctx context.Context, to []string, subject string, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func (m *MailerMock) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func newWorkingMailer() *MailerMock {
	m := &MailerMock{}
	m.On("Configured").Return(true)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return m
}

// =====================
// sqlite + miniredis + notify を組み立てる
// =====================

type env struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	cache *cache.RedisCache
	clock fixedClock
	log   *logrus.Logger

	items      *infraRepo.ItemGormRepository
	categories *infraRepo.CategoryGormRepository
	locations  *infraRepo.LocationGormRepository
	suppliers  *infraRepo.SupplierGormRepository
	txs        *infraRepo.TransactionGormRepository
	rules      *infraRepo.NotificationRuleGormRepository
	txm        *infraRepo.TxManagerGorm

	mailer   *MailerMock
	notifier *notify.Notifier
}

func newEnv(t *testing.T, mailer *MailerMock) *env {
	t.Helper()

	gdb := dbtest.New(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := &env{
		db:         gdb,
		mr:         mr,
		cache:      cache.NewRedisCacheFromClient(client),
		clock:      fixedClock{t: testNow},
		log:        quietLogger(),
		items:      infraRepo.NewItemGormRepository(gdb),
		categories: infraRepo.NewCategoryGormRepository(gdb),
		locations:  infraRepo.NewLocationGormRepository(gdb),
		suppliers:  infraRepo.NewSupplierGormRepository(gdb),
		txs:        infraRepo.NewTransactionGormRepository(gdb),
		rules:      infraRepo.NewNotificationRuleGormRepository(gdb),
		txm:        infraRepo.NewTxManagerGorm(gdb),
		mailer:     mailer,
	}
	e.notifier = notify.New(notify.Deps{
		Items:        e.items,
		Rules:        e.rules,
		Transactions: e.txs,
		Logs:         infraRepo.NewNotificationLogGormRepository(gdb),
		Mailer:       mailer,
		Locker:       e.cache,
		Clock:        e.clock,
		Log:          e.log,
	}, notify.Config{
		DefaultRecipients: []string{"fallback@lab.io"},
		SendTimeout:       time.Second,
		AppURL:            "http://inventory.local",
	})
	return e
}

func (e *env) transactionUsecase() *usecase.TransactionUsecase {
	return usecase.NewTransactionUsecase(e.txm, e.items, e.txs, e.notifier, e.cache, e.clock, e.log)
}

func (e *env) itemUsecase() *usecase.ItemUsecase {
	return usecase.NewItemUsecase(e.items, e.categories, e.locations, e.suppliers, e.cache, e.clock, e.log)
}

func (e *env) catalogUsecase() *usecase.CatalogUsecase {
	return usecase.NewCatalogUsecase(e.categories, e.locations, e.suppliers, e.items, e.log)
}

func (e *env) ruleUsecase() *usecase.NotificationRuleUsecase {
	return usecase.NewNotificationRuleUsecase(e.rules, e.items, e.categories, e.log)
}

func (e *env) summaryUsecase() *usecase.SummaryUsecase {
	return usecase.NewSummaryUsecase(e.items, e.txs, e.cache, e.clock, e.log)
}

func (e *env) countLogs(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.NotificationLog{}).Count(&n).Error)
	return n
}
