package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionAddStock   TransactionType = "ADD_STOCK"
	TransactionConsume    TransactionType = "CONSUME"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TransactionAddStock, TransactionConsume, TransactionAdjustment:
		return TransactionType(s), true
	default:
		return "", false
	}
}

// 数量変更の履歴（作成後は変更しない）
type InventoryTransaction struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID         string          `gorm:"type:varchar(36);not null;index" json:"item_id"`
	Type           TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	QuantityChange decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity_change"`
	PerformedBy    *string         `gorm:"type:varchar(255)" json:"performed_by"`
	MachineOrArea  *string         `gorm:"type:varchar(255)" json:"machine_or_area"`
	JobReference   *string         `gorm:"type:varchar(255)" json:"job_reference"`
	Notes          *string         `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
