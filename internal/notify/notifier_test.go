package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type harness struct {
	items  *memItems
	rules  *memRules
	logs   *memLogs
	mailer *MailerMock
	locker *fakeLocker
	n      *Notifier
}

func newHarness(mailer *MailerMock, defaults []string, items ...model.Item) *harness {
	h := &harness{
		items:  newMemItems(items...),
		rules:  &memRules{},
		logs:   &memLogs{},
		mailer: mailer,
	}
	h.n = New(Deps{
		Items:        h.items,
		Rules:        h.rules,
		Transactions: &memTxs{txs: map[string][]model.InventoryTransaction{}},
		Logs:         h.logs,
		Mailer:       mailer,
		Clock:        fixedClock{t: testNow},
		Log:          quietLogger(),
	}, Config{DefaultRecipients: defaults, AppURL: "http://inventory.local/", From: "noreply@inventory.local"})
	return h
}

func stock(id string, q, min int64) model.Item {
	return model.Item{
		ID:              id,
		Name:            "Item " + id,
		CategoryID:      "cat-1",
		UnitOfMeasure:   "L",
		CurrentQuantity: decimal.NewFromInt(q),
		MinimumQuantity: decimal.NewFromInt(min),
		IsActive:        true,
	}
}

func TestProcessItem_OutOfStockSendsOnce(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, stock("a", 0, 5))

	d, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationType{model.NotificationOutOfStock}, d.Emit)
	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("a").LastNotifiedStatus)

	// 2回目は no-op
	d, err = h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)
	assert.False(t, d.Changed())

	h.mailer.AssertNumberOfCalls(t, "Send", 1)
	h.mailer.AssertCalled(t, "Send", mock.Anything, []string{"ops@lab.io"}, "[AM Inventory] OUT OF STOCK: Item a", mock.Anything)

	logs := h.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, model.NotificationOutOfStock, logs[0].NotificationType)
	assert.True(t, logs[0].Meta.Data().EmailSent)
	assert.Equal(t, model.ItemStatusOutOfStock, logs[0].Meta.Data().ItemStatus)
	assert.Equal(t, testNow, logs[0].SentAt)
}

func TestProcessItem_RecoveryUpdatesStatusWithoutSending(t *testing.T) {
	it := stock("a", 50, 5)
	it.LastNotifiedStatus = model.ItemStatusLow
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, it)

	d, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)
	assert.True(t, d.Changed())
	assert.Empty(t, d.Emit)

	assert.Equal(t, model.ItemStatusOK, h.items.get("a").LastNotifiedStatus)
	h.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, h.logs.all())
}

func TestProcessItem_LowSubjectCarriesQuantities(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, stock("a", 3, 5))

	_, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)

	h.mailer.AssertCalled(t, "Send", mock.Anything, []string{"ops@lab.io"}, "[AM Inventory] LOW STOCK: Item a (3 L, min 5 L)", mock.Anything)
}

func TestProcessItem_NoRecipientsStillCommits(t *testing.T) {
	h := newHarness(newWorkingMailer(), nil, stock("a", 0, 5))

	_, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)

	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("a").LastNotifiedStatus)
	h.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, h.logs.all())
}

func TestProcessItem_SendFailureIsLoggedNotReturned(t *testing.T) {
	m := &MailerMock{}
	m.On("Configured").Return(true)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	h := newHarness(m, []string{"ops@lab.io"}, stock("a", 0, 5))

	_, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("a").LastNotifiedStatus)

	logs := h.logs.all()
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(logs[0].Subject, "FAILED: "))
	assert.False(t, logs[0].Meta.Data().EmailSent)
	assert.Equal(t, "connection refused", logs[0].Meta.Data().Error)
}

func TestProcessItem_MailerNotConfigured(t *testing.T) {
	m := &MailerMock{}
	m.On("Configured").Return(false)
	h := newHarness(m, []string{"ops@lab.io"}, stock("a", 0, 5))

	_, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)

	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	logs := h.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, ErrMailerNotConfigured.Error(), logs[0].Meta.Data().Error)
}

func TestProcessItem_CommitErrorPropagates(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, stock("a", 0, 5))
	h.items.updateErr = errors.New("db down")

	_, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	assert.ErrorContains(t, err, "db down")
}

func TestCheckLowStock_ContinuesPastFailures(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"},
		stock("a", 1, 5), stock("b", 2, 5), stock("c", 50, 5))
	h.rules.err = errors.New("rules unavailable")

	res, err := h.n.CheckLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 2, Processed: 0, Failed: 2}, res)

	h.rules.err = nil
	res, err = h.n.CheckLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 2, Processed: 2, Failed: 0}, res)
	h.mailer.AssertNumberOfCalls(t, "Send", 2)

	// 通知済みになったので次は対象外
	res, err = h.n.CheckLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)
}

func TestCheckExpiringSoon(t *testing.T) {
	soon := stock("a", 50, 5)
	exp := testNow.AddDate(0, 0, 10)
	soon.ExpirationDate = &exp

	late := stock("b", 50, 5)
	lateExp := testNow.AddDate(0, 0, 45)
	late.ExpirationDate = &lateExp

	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, soon, late)

	res, err := h.n.CheckExpiringSoon(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 1, Processed: 1}, res)
	assert.Equal(t, model.ItemStatusExpiringSoon, h.items.get("a").LastNotifiedStatus)
	h.mailer.AssertCalled(t, "Send", mock.Anything, []string{"ops@lab.io"}, "[AM Inventory] EXPIRING SOON: Item a", mock.Anything)
}

func TestRunChecks_Lock(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, stock("a", 1, 5))
	locker := &fakeLocker{}
	h.n.locker = locker

	locker.held = true
	res, err := h.n.RunChecks(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	h.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	locker.held = false
	res, err = h.n.RunChecks(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.LowStock.Processed)
	assert.Equal(t, 1, locker.unlocked)
	assert.False(t, locker.held)
}

func TestRunChecks_LockErrorStillRuns(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, stock("a", 1, 5))
	h.n.locker = &fakeLocker{err: errors.New("redis down")}

	res, err := h.n.RunChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.LowStock.Processed)
}

func TestRunChecks_QueryErrorReported(t *testing.T) {
	h := newHarness(newWorkingMailer(), nil, stock("a", 1, 5))
	h.items.listErr = errors.New("db down")

	_, err := h.n.RunChecks(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestForceResend_BypassesGuard(t *testing.T) {
	out := stock("a", 0, 5)
	out.LastNotifiedStatus = model.ItemStatusOutOfStock
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"}, out)

	// 通常処理では何も起きない
	d, err := h.n.ProcessItem(context.Background(), h.items.get("a"))
	require.NoError(t, err)
	assert.False(t, d.Changed())
	h.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	n, err := h.n.ForceResend(context.Background(), true, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	h.mailer.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("a").LastNotifiedStatus)
}

func TestForceResend_Flags(t *testing.T) {
	h := newHarness(newWorkingMailer(), []string{"ops@lab.io"},
		stock("out", 0, 5), stock("low", 2, 5), stock("ok", 50, 5))

	n, err := h.n.ForceResend(context.Background(), true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	h.mailer.AssertCalled(t, "Send", mock.Anything, mock.Anything, "[AM Inventory] LOW STOCK: Item low (2 L, min 5 L)", mock.Anything)
	assert.Equal(t, model.ItemStatusLow, h.items.get("low").LastNotifiedStatus)
	assert.Equal(t, model.ItemStatusOK, h.items.get("out").LastNotifiedStatus)

	n, err = h.n.ForceResend(context.Background(), false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("out").LastNotifiedStatus)
}

func TestForceResend_NoRecipientsNotCounted(t *testing.T) {
	h := newHarness(newWorkingMailer(), nil, stock("out", 0, 5))

	n, err := h.n.ForceResend(context.Background(), true, true)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	// 宛先がなくても状態は揃える
	assert.Equal(t, model.ItemStatusOutOfStock, h.items.get("out").LastNotifiedStatus)
}

func TestSendTest(t *testing.T) {
	h := newHarness(newWorkingMailer(), nil)

	assert.ErrorIs(t, h.n.SendTest(context.Background(), "not-an-email"), ErrInvalidEmail)

	require.NoError(t, h.n.SendTest(context.Background(), " tech@lab.io "))
	h.mailer.AssertCalled(t, "Send", mock.Anything, []string{"tech@lab.io"}, testSubject, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "noreply@inventory.local") && strings.Contains(body, "EMAIL TEST SUCCESSFUL")
	}))

	m := &MailerMock{}
	m.On("Configured").Return(false)
	h = newHarness(m, nil)
	assert.ErrorIs(t, h.n.SendTest(context.Background(), "tech@lab.io"), ErrMailerNotConfigured)
}
