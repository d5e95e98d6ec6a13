package handler_test

import (
	"net/http"
	"testing"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRules_CreateThenUpsert(t *testing.T) {
	a := newAPI(t)
	catID := a.createCategory("Resin")
	id := a.createItem(catID, "Grey Resin", 50, 20)

	rec, env := a.call(http.MethodPost, "/api/notification-rules", map[string]interface{}{
		"item_id": id, "category_id": catID, "emails": []string{"a@lab.io"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Must specify either item_id OR category_id, but not both", env.Error)

	rec, env = a.call(http.MethodPost, "/api/notification-rules", map[string]interface{}{
		"item_id": id, "emails": []string{"tech@lab.io"},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first model.NotificationRule
	decodeData(t, env, &first)

	rec, env = a.call(http.MethodPost, "/api/notification-rules", map[string]interface{}{
		"item_id": id, "emails": []string{"lead@lab.io"}, "notify_on_low_stock": false,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second model.NotificationRule
	decodeData(t, env, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.NotifyOnLowStock)

	rec, env = a.call(http.MethodGet, "/api/notification-rules?item_id="+id, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	rec, _ = a.call(http.MethodPut, "/api/notification-rules/"+first.ID, map[string]interface{}{"priority": 5}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.call(http.MethodDelete, "/api/notification-rules/"+first.ID, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env = a.call(http.MethodDelete, "/api/notification-rules/"+first.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Notification rule not found", env.Error)
}

func TestNotifications_CheckStatusTest(t *testing.T) {
	a := newAPI(t)
	catID := a.createCategory("Resin")
	a.createItem(catID, "Grey Resin", 5, 20)

	rec, env := a.call(http.MethodPost, "/api/notifications/check", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, env.Message, "Notification check completed")
	a.mailer.AssertNumberOfCalls(t, "Send", 1)

	rec, env = a.call(http.MethodGet, "/api/notifications/status", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var st struct {
		SMTPConfigured bool `json:"smtp_configured"`
		RecentLogs     []struct {
			ItemName string `json:"item_name"`
		} `json:"recent_logs"`
	}
	decodeData(t, env, &st)
	assert.False(t, st.SMTPConfigured)
	require.Len(t, st.RecentLogs, 1)
	assert.Equal(t, "Grey Resin", st.RecentLogs[0].ItemName)

	rec, env = a.call(http.MethodPost, "/api/notifications/test", map[string]string{"email": "nope"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid email address is required", env.Error)

	rec, env = a.call(http.MethodPost, "/api/notifications/test", map[string]string{"email": "tech@lab.io"}, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test email sent successfully to tech@lab.io", env.Message)
	a.mailer.AssertCalled(t, "Send", mock.Anything, []string{"tech@lab.io"}, mock.Anything, mock.Anything)
}

func TestNotifications_ForceResend(t *testing.T) {
	a := newAPI(t)
	catID := a.createCategory("Resin")
	a.createItem(catID, "Grey Resin", 5, 20)
	a.createItem(catID, "Tough Resin", 0, 20)
	a.createItem(catID, "Clear Resin", 50, 20)

	// 指定なしは両方
	rec, env := a.call(http.MethodPost, "/api/notifications/force-resend", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Sent notifications for 2 item(s)", env.Message)

	rec, env = a.call(http.MethodPost, "/api/notifications/force-resend", map[string]bool{"include_low": false}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sent notifications for 1 item(s)", env.Message)

	rec, env = a.call(http.MethodPost, "/api/notifications/force-resend",
		map[string]bool{"include_low": false, "include_out_of_stock": false}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "nothing to resend", env.Error)
}

func TestSummaryAndHealthz(t *testing.T) {
	a := newAPI(t)
	catID := a.createCategory("Resin")
	a.createItem(catID, "Grey Resin", 5, 20)
	a.createItem(catID, "Clear Resin", 50, 20)

	rec, env := a.call(http.MethodGet, "/api/summary", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var s struct {
		Total int64 `json:"total_items"`
		Low   int64 `json:"low_stock_items"`
	}
	decodeData(t, env, &s)
	assert.Equal(t, int64(2), s.Total)
	assert.Equal(t, int64(1), s.Low)

	rec, env = a.call(http.MethodGet, "/api/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}
