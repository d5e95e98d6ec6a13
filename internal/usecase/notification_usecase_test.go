package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/infra/db/dbtest"
	infraRepo "github.com/IgesAI/AMautomation/internal/infra/repository"
	"github.com/IgesAI/AMautomation/internal/notify"
	"github.com/IgesAI/AMautomation/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// =====================
// NotificationService mock
// =====================

type NotificationServiceMock struct{ mock.Mock }

func (m *NotificationServiceMock) RunChecks(ctx context.Context) (notify.CheckResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(notify.CheckResult), args.Error(1)
}

func (m *NotificationServiceMock) ForceResend(ctx context.Context, includeLow bool, includeOutOfStock bool) (int, error) {
	args := m.Called(ctx, includeLow, includeOutOfStock)
	return args.Int(0), args.Error(1)
}

func (m *NotificationServiceMock) SendTest(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (e *env) notificationUsecase(svc usecase.NotificationService, smtp config.SMTPConfig) *usecase.NotificationUsecase {
	return usecase.NewNotificationUsecase(svc, e.rules, infraRepo.NewNotificationLogGormRepository(e.db),
		smtp, []string{"fallback@lab.io"}, e.log)
}

func TestNotificationUsecase_Test(t *testing.T) {
	e := newEnv(t, newWorkingMailer())

	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid", notify.ErrInvalidEmail, http.StatusBadRequest, "Valid email address is required"},
		{"not configured", notify.ErrMailerNotConfigured, http.StatusInternalServerError,
			"SMTP not configured. Please set SMTP_HOST, SMTP_USER, SMTP_PASS in environment variables."},
		{"send failure", errors.New("535 auth failed"), http.StatusInternalServerError, "Failed to send test email: 535 auth failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &NotificationServiceMock{}
			svc.On("SendTest", mock.Anything, "tech@lab.io").Return(tc.err)

			_, err := e.notificationUsecase(svc, config.SMTPConfig{}).Test(context.Background(), "tech@lab.io")
			assertHTTPError(t, err, tc.status, tc.msg)
		})
	}

	svc := &NotificationServiceMock{}
	svc.On("SendTest", mock.Anything, "tech@lab.io").Return(nil)
	msg, err := e.notificationUsecase(svc, config.SMTPConfig{}).Test(context.Background(), "tech@lab.io")
	require.NoError(t, err)
	assert.Equal(t, "Test email sent successfully to tech@lab.io", msg)
}

func TestNotificationUsecase_ForceResend(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, newWorkingMailer())

	svc := &NotificationServiceMock{}
	uc := e.notificationUsecase(svc, config.SMTPConfig{})

	_, err := uc.ForceResend(ctx, false, false)
	assertHTTPError(t, err, http.StatusBadRequest, "nothing to resend")
	svc.AssertNotCalled(t, "ForceResend", mock.Anything, mock.Anything, mock.Anything)

	svc.On("ForceResend", mock.Anything, true, false).Return(3, nil).Once()
	out, err := uc.ForceResend(ctx, true, false)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Sent)
	assert.Equal(t, "Sent notifications for 3 item(s)", out.Message)

	svc.On("ForceResend", mock.Anything, true, true).Return(0, errors.New("db down")).Once()
	_, err = uc.ForceResend(ctx, true, true)
	assertHTTPError(t, err, http.StatusInternalServerError, "Failed to resend notifications")
	svc.AssertExpectations(t)
}

func TestNotificationUsecase_CheckFailure(t *testing.T) {
	e := newEnv(t, newWorkingMailer())
	svc := &NotificationServiceMock{}
	svc.On("RunChecks", mock.Anything).Return(notify.CheckResult{}, errors.New("db down"))

	_, err := e.notificationUsecase(svc, config.SMTPConfig{}).Check(context.Background())
	assertHTTPError(t, err, http.StatusInternalServerError, "Failed to run notification check")
}

func TestNotificationUsecase_StatusMasksUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, newWorkingMailer())
	cat := dbtest.Category(t, e.db, "Resin")
	it := dbtest.Item(t, e.db, cat.ID, "Grey Resin", dbtest.ItemOpts{Current: 5, Minimum: 20})

	_, _, err := e.ruleUsecase().Create(ctx, usecase.RuleInput{CategoryID: &cat.ID, Emails: []string{"lead@lab.io"}})
	require.NoError(t, err)

	logs := infraRepo.NewNotificationLogGormRepository(e.db)
	require.NoError(t, logs.Create(ctx, model.NotificationLog{
		ItemID:           it.ID,
		NotificationType: model.NotificationLowStock,
		Recipients:       datatypes.JSONSlice[string]{"lead@lab.io"},
		Subject:          "[AM Inventory] LOW STOCK: Grey Resin",
		SentAt:           testNow,
		Meta:             datatypes.NewJSONType(model.NotificationMeta{EmailSent: true, ItemStatus: model.ItemStatusLow}),
	}))

	smtp := config.SMTPConfig{Host: "smtp.lab.io", Port: 587, User: "bot", Password: "secret", From: "inventory@lab.io"}
	st, err := e.notificationUsecase(&NotificationServiceMock{}, smtp).Status(ctx)
	require.NoError(t, err)

	assert.True(t, st.SMTPConfigured)
	require.NotNil(t, st.SMTPHost)
	assert.Equal(t, "smtp.lab.io", *st.SMTPHost)
	require.NotNil(t, st.SMTPUser)
	assert.Equal(t, "***configured***", *st.SMTPUser)
	assert.Equal(t, []string{"fallback@lab.io"}, st.DefaultRecipients)
	assert.Equal(t, int64(1), st.ActiveRulesCount)
	require.Len(t, st.RecentLogs, 1)
	assert.Equal(t, "Grey Resin", st.RecentLogs[0].ItemName)
	assert.True(t, st.RecentLogs[0].Meta.EmailSent)

	empty, err := e.notificationUsecase(&NotificationServiceMock{}, config.SMTPConfig{}).Status(ctx)
	require.NoError(t, err)
	assert.False(t, empty.SMTPConfigured)
	assert.Nil(t, empty.SMTPHost)
	assert.Nil(t, empty.SMTPUser)
}
