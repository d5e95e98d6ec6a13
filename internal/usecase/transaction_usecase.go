package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
	defaultNotifyTimeout    = 30 * time.Second
)

type TransactionUsecase struct {
	tx       repo.TransactionManager
	items    repo.ItemRepository
	txs      repo.TransactionRepository
	notifier ItemProcessor
	cache    Cache
	clock    Clock
	log      *logrus.Logger

	notifyTimeout time.Duration
	// 実行中の通知処理
	wg sync.WaitGroup
}

// DI
func NewTransactionUsecase(
	tx repo.TransactionManager,
	items repo.ItemRepository,
	txs repo.TransactionRepository,
	notifier ItemProcessor,
	cache Cache,
	clock Clock,
	log *logrus.Logger,
) *TransactionUsecase {
	return &TransactionUsecase{
		tx:            tx,
		items:         items,
		txs:           txs,
		notifier:      notifier,
		cache:         cache,
		clock:         orSystemClock(clock),
		log:           orDefaultLogger(log),
		notifyTimeout: defaultNotifyTimeout,
	}
}

// POST /transactions の入力
type CreateTransactionInput struct {
	ItemID        string           `json:"item_id" validate:"notblank"`
	Type          string           `json:"type" validate:"notblank,oneof=ADD_STOCK CONSUME ADJUSTMENT"`
	Quantity      *decimal.Decimal `json:"quantity" validate:"required"`
	PerformedBy   *string          `json:"performed_by"`
	MachineOrArea *string          `json:"machine_or_area"`
	JobReference  *string          `json:"job_reference"`
	Notes         *string          `json:"notes"`
}

type CreateTransactionOutput struct {
	Transaction model.InventoryTransaction `json:"transaction"`
	Item        model.ItemWithStatus       `json:"item"`
}

// Create は数量を動かして履歴を残す（同一トランザクション）。
// コミット後に通知判定を非同期で走らせる。通知の失敗はレスポンスに影響しない。
func (u *TransactionUsecase) Create(ctx context.Context, in CreateTransactionInput) (CreateTransactionOutput, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if err := validateInput(in, map[string]string{"type.oneof": "Invalid transaction type"}); err != nil {
		return CreateTransactionOutput{}, err
	}
	itemID := in.ItemID
	typ := model.TransactionType(in.Type)

	qty := *in.Quantity
	var delta decimal.Decimal
	switch typ {
	case model.TransactionAddStock:
		if !qty.IsPositive() {
			return CreateTransactionOutput{}, NewHTTPError(http.StatusBadRequest, "Quantity must be a positive number")
		}
		delta = qty
	case model.TransactionConsume:
		if !qty.IsPositive() {
			return CreateTransactionOutput{}, NewHTTPError(http.StatusBadRequest, "Quantity must be a positive number")
		}
		delta = qty.Neg()
	case model.TransactionAdjustment:
		// 符号付き
		if qty.IsZero() {
			return CreateTransactionOutput{}, NewHTTPError(http.StatusBadRequest, "Adjustment quantity must not be zero")
		}
		delta = qty
	}

	it, err := u.items.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !it.IsActive) {
		return CreateTransactionOutput{}, NewHTTPError(http.StatusNotFound, "Item not found or inactive")
	}
	if err != nil {
		return CreateTransactionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if it.CurrentQuantity.Add(delta).IsNegative() {
		return CreateTransactionOutput{}, insufficientStock(typ, it.CurrentQuantity, qty)
	}

	record := model.InventoryTransaction{
		ItemID:         itemID,
		Type:           typ,
		QuantityChange: delta,
		PerformedBy:    trimmedOrNil(in.PerformedBy),
		MachineOrArea:  trimmedOrNil(in.MachineOrArea),
		JobReference:   trimmedOrNil(in.JobReference),
		Notes:          trimmedOrNil(in.Notes),
		CreatedAt:      u.clock.Now(),
	}

	var created model.InventoryTransaction
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同時の取引があっても負にならないよう条件付きで更新
		if err := r.Items().ApplyQuantityChange(ctx, itemID, delta); err != nil {
			return err
		}
		t, err := r.Transactions().Create(ctx, record)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	switch {
	case errors.Is(err, repo.ErrInsufficientStock):
		// 事前確認のあとで他の取引が先に減らした
		current := it.CurrentQuantity
		if latest, ferr := u.items.FindByID(ctx, itemID); ferr == nil {
			current = latest.CurrentQuantity
		}
		return CreateTransactionOutput{}, insufficientStock(typ, current, qty)
	case errors.Is(err, repo.ErrNotFound):
		return CreateTransactionOutput{}, NewHTTPError(http.StatusNotFound, "Item not found or inactive")
	case err != nil:
		u.log.WithError(err).WithField("item_id", itemID).Error("create transaction failed")
		return CreateTransactionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated, err := u.items.FindByID(ctx, itemID)
	if err != nil {
		u.log.WithError(err).WithField("item_id", itemID).Error("reload item after transaction failed")
		return CreateTransactionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.WithFields(logrus.Fields{
		"item_id":        itemID,
		"transaction_id": created.ID,
		"type":           typ,
		"change":         delta.String(),
		"quantity":       updated.CurrentQuantity.String(),
	}).Info("transaction recorded")

	invalidateSummary(ctx, u.cache, u.log)
	u.notifyAsync(ctx, updated)

	return CreateTransactionOutput{
		Transaction: created,
		Item:        model.WithStatus(updated, u.clock.Now()),
	}, nil
}

func insufficientStock(typ model.TransactionType, current decimal.Decimal, requested decimal.Decimal) error {
	if typ == model.TransactionAdjustment {
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Adjustment would result in negative stock. Current: %s, Adjustment: %s", current, requested))
	}
	return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
		"Insufficient stock. Current: %s, Requested: %s", current, requested))
}

// リクエストのctxが終わっても通知は続ける
func (u *TransactionUsecase) notifyAsync(ctx context.Context, it model.Item) {
	if u.notifier == nil {
		return
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		entry := u.log.WithField("item_id", it.ID)
		defer func() {
			if r := recover(); r != nil {
				entry.WithField("panic", r).Error("notification panicked")
			}
		}()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.notifyTimeout)
		defer cancel()

		d, err := u.notifier.ProcessItem(nctx, it)
		if err != nil {
			entry.WithError(err).Error("notification check failed")
			return
		}
		if d.Changed() {
			entry.WithFields(logrus.Fields{
				"previous": d.Previous,
				"current":  d.Current,
				"emitted":  len(d.Emit),
			}).Info("item status changed")
		}
	}()
}

// Wait は実行中の通知処理が終わるまで待つ
func (u *TransactionUsecase) Wait() {
	u.wg.Wait()
}

// GET /transactions の入力
type ListTransactionsInput struct {
	ItemID        string
	Type          string
	PerformedBy   string
	MachineOrArea string
	JobReference  string
	Limit         int
	Offset        int
}

func (u *TransactionUsecase) List(ctx context.Context, in ListTransactionsInput) ([]model.InventoryTransaction, error) {
	if in.Limit == 0 {
		in.Limit = defaultTransactionLimit
	}
	if in.Limit < 0 || in.Limit > maxTransactionLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	f := repo.TransactionFilter{
		ItemID:        strings.TrimSpace(in.ItemID),
		PerformedBy:   strings.TrimSpace(in.PerformedBy),
		MachineOrArea: strings.TrimSpace(in.MachineOrArea),
		JobReference:  strings.TrimSpace(in.JobReference),
		Limit:         in.Limit,
		Offset:        in.Offset,
	}
	if s := strings.TrimSpace(in.Type); s != "" {
		typ, ok := model.ParseTransactionType(strings.ToUpper(s))
		if !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "Invalid transaction type")
		}
		f.Type = &typ
	}

	txs, err := u.txs.List(ctx, f)
	if err != nil {
		u.log.WithError(err).Error("list transactions failed")
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return txs, nil
}
