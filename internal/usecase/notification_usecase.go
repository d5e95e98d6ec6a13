package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/notify"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/sirupsen/logrus"
)

const recentLogLimit = 10

// 通知の手動実行と設定確認
type NotificationUsecase struct {
	notifier NotificationService
	rules    repo.NotificationRuleRepository
	logs     repo.NotificationLogRepository
	smtp     config.SMTPConfig
	defaults []string
	log      *logrus.Logger
}

// DI
func NewNotificationUsecase(
	notifier NotificationService,
	rules repo.NotificationRuleRepository,
	logs repo.NotificationLogRepository,
	smtp config.SMTPConfig,
	defaults []string,
	log *logrus.Logger,
) *NotificationUsecase {
	return &NotificationUsecase{
		notifier: notifier,
		rules:    rules,
		logs:     logs,
		smtp:     smtp,
		defaults: defaults,
		log:      orDefaultLogger(log),
	}
}

func (u *NotificationUsecase) Check(ctx context.Context) (notify.CheckResult, error) {
	res, err := u.notifier.RunChecks(ctx)
	if err != nil {
		u.log.WithError(err).Error("notification check failed")
		return res, NewHTTPError(http.StatusInternalServerError, "Failed to run notification check")
	}
	return res, nil
}

type RecentNotification struct {
	ID         string                 `json:"id"`
	ItemID     string                 `json:"item_id"`
	ItemName   string                 `json:"item_name"`
	Type       model.NotificationType `json:"type"`
	Recipients []string               `json:"recipients"`
	Subject    string                 `json:"subject"`
	SentAt     time.Time              `json:"sent_at"`
	Meta       model.NotificationMeta `json:"meta"`
}

type NotificationStatus struct {
	SMTPConfigured    bool                 `json:"smtp_configured"`
	SMTPHost          *string              `json:"smtp_host"`
	SMTPUser          *string              `json:"smtp_user"`
	SMTPFrom          *string              `json:"smtp_from"`
	DefaultRecipients []string             `json:"default_recipients"`
	ActiveRulesCount  int64                `json:"active_rules_count"`
	RecentLogs        []RecentNotification `json:"recent_logs"`
}

// Status はSMTP設定（ユーザー名は伏せる）と直近の通知ログを返す
func (u *NotificationUsecase) Status(ctx context.Context) (NotificationStatus, error) {
	count, err := u.rules.CountActive(ctx)
	if err != nil {
		return NotificationStatus{}, NewHTTPError(http.StatusInternalServerError, "Failed to get notification status")
	}
	logs, err := u.logs.ListRecent(ctx, recentLogLimit)
	if err != nil {
		return NotificationStatus{}, NewHTTPError(http.StatusInternalServerError, "Failed to get notification status")
	}

	out := NotificationStatus{
		SMTPConfigured:    u.smtp.Configured(),
		SMTPHost:          nonEmpty(u.smtp.Host),
		SMTPFrom:          nonEmpty(u.smtp.From),
		DefaultRecipients: append([]string{}, u.defaults...),
		ActiveRulesCount:  count,
		RecentLogs:        make([]RecentNotification, 0, len(logs)),
	}
	if u.smtp.User != "" {
		masked := "***configured***"
		out.SMTPUser = &masked
	}

	for _, l := range logs {
		name := ""
		if l.Item != nil {
			name = l.Item.Name
		}
		out.RecentLogs = append(out.RecentLogs, RecentNotification{
			ID:         l.ID,
			ItemID:     l.ItemID,
			ItemName:   name,
			Type:       l.NotificationType,
			Recipients: []string(l.Recipients),
			Subject:    l.Subject,
			SentAt:     l.SentAt,
			Meta:       l.Meta.Data(),
		})
	}
	return out, nil
}

// Test はテストメールを送り、成功時のメッセージを返す
func (u *NotificationUsecase) Test(ctx context.Context, email string) (string, error) {
	err := u.notifier.SendTest(ctx, email)
	switch {
	case err == nil:
		return "Test email sent successfully to " + email, nil
	case errors.Is(err, notify.ErrInvalidEmail):
		return "", NewHTTPError(http.StatusBadRequest, "Valid email address is required")
	case errors.Is(err, notify.ErrMailerNotConfigured):
		return "", NewHTTPError(http.StatusInternalServerError,
			"SMTP not configured. Please set SMTP_HOST, SMTP_USER, SMTP_PASS in environment variables.")
	default:
		return "", NewHTTPError(http.StatusInternalServerError, "Failed to send test email: "+err.Error())
	}
}

type ForceResendOutput struct {
	Sent    int    `json:"sent"`
	Message string `json:"message"`
}

func (u *NotificationUsecase) ForceResend(ctx context.Context, includeLow bool, includeOutOfStock bool) (ForceResendOutput, error) {
	if !includeLow && !includeOutOfStock {
		return ForceResendOutput{}, NewHTTPError(http.StatusBadRequest, "nothing to resend")
	}
	n, err := u.notifier.ForceResend(ctx, includeLow, includeOutOfStock)
	if err != nil {
		u.log.WithError(err).Error("force resend failed")
		return ForceResendOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to resend notifications")
	}
	return ForceResendOutput{
		Sent:    n,
		Message: fmt.Sprintf("Sent notifications for %d item(s)", n),
	}, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
