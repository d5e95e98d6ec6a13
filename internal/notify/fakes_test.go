package notify

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

var errNotFound = errors.New("not found")

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// =====================
// in-memory stores
// =====================

type memItems struct {
	mu        sync.Mutex
	items     map[string]model.Item
	updateErr error
	listErr   error
	updates   int
}

func newMemItems(items ...model.Item) *memItems {
	m := &memItems{items: map[string]model.Item{}}
	for _, it := range items {
		m.put(it)
	}
	return m
}

func (m *memItems) put(it model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.LastNotifiedStatus == "" {
		it.LastNotifiedStatus = model.ItemStatusOK
	}
	m.items[it.ID] = it
}

func (m *memItems) get(id string) model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memItems) FindByID(ctx context.Context, id string) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, errNotFound
	}
	return it, nil
}

func (m *memItems) UpdateLastNotifiedStatus(ctx context.Context, id string, status model.ItemStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	it, ok := m.items[id]
	if !ok {
		return errNotFound
	}
	it.LastNotifiedStatus = status
	m.items[id] = it
	m.updates++
	return nil
}

func (m *memItems) sorted(keep func(model.Item) bool) []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Item{}
	for _, it := range m.items {
		if it.IsActive && keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memItems) ListActive(ctx context.Context) ([]model.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(model.Item) bool { return true }), nil
}

func (m *memItems) ListExpiringCandidates(ctx context.Context, from time.Time, to time.Time) ([]model.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(it model.Item) bool {
		return it.ExpirationDate != nil &&
			!it.ExpirationDate.Before(from) && it.ExpirationDate.Before(to) &&
			it.LastNotifiedStatus != model.ItemStatusExpiringSoon
	}), nil
}

func (m *memItems) ListLowStockCandidates(ctx context.Context) ([]model.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(it model.Item) bool {
		return it.CurrentQuantity.IsPositive() &&
			it.CurrentQuantity.LessThanOrEqual(it.MinimumQuantity) &&
			it.LastNotifiedStatus != model.ItemStatusLow
	}), nil
}

type memRules struct {
	rules []model.NotificationRule
	err   error
}

func (m *memRules) byPriority(keep func(model.NotificationRule) bool) []model.NotificationRule {
	out := []model.NotificationRule{}
	for _, r := range m.rules {
		if r.IsActive && keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func (m *memRules) ListActiveForItem(ctx context.Context, itemID string) ([]model.NotificationRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byPriority(func(r model.NotificationRule) bool {
		return r.ItemID != nil && *r.ItemID == itemID
	}), nil
}

func (m *memRules) ListActiveCategoryWide(ctx context.Context, categoryID string) ([]model.NotificationRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byPriority(func(r model.NotificationRule) bool {
		return r.ItemID == nil && r.CategoryID != nil && *r.CategoryID == categoryID
	}), nil
}

type memTxs struct {
	txs map[string][]model.InventoryTransaction
}

func (m *memTxs) ListRecentByItem(ctx context.Context, itemID string, limit int) ([]model.InventoryTransaction, error) {
	ts := m.txs[itemID]
	if len(ts) > limit {
		ts = ts[:limit]
	}
	return ts, nil
}

type memLogs struct {
	mu   sync.Mutex
	logs []model.NotificationLog
}

func (m *memLogs) Create(ctx context.Context, log model.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *memLogs) all() []model.NotificationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.NotificationLog{}, m.logs...)
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
// Locker fake
// =====================

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() { l.held = false; l.unlocked++ }, true, nil
}
