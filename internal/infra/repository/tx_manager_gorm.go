package repository

import (
	"context"

	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	items        repo.ItemRepository
	transactions repo.TransactionRepository
}

func (r *txReposGorm) Items() repo.ItemRepository               { return r.items }
func (r *txReposGorm) Transactions() repo.TransactionRepository { return r.transactions }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			items:        NewItemGormRepository(tx),
			transactions: NewTransactionGormRepository(tx),
		}
		return fn(r)
	})
}
