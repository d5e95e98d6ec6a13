package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 消耗品（在庫管理の対象）
type Item struct {
	ID            string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string  `gorm:"type:varchar(255);not null;index" json:"name"`
	SKU           *string `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	CategoryID    string  `gorm:"type:varchar(36);not null;index" json:"category_id"`
	LocationID    *string `gorm:"type:varchar(36);index" json:"location_id"`
	SupplierID    *string `gorm:"type:varchar(36);index" json:"supplier_id"`
	UnitOfMeasure string  `gorm:"type:varchar(32);not null" json:"unit_of_measure"`

	CurrentQuantity decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"current_quantity"`
	MinimumQuantity decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"minimum_quantity"`
	ReorderQuantity decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"reorder_quantity"`

	ExpirationDate *time.Time `gorm:"index" json:"expiration_date"`
	IsActive       bool       `gorm:"not null;index" json:"is_active"`
	Notes          *string    `gorm:"type:text" json:"notes"`

	// 直近の通知判定時のステータス。通知処理（notify）だけが更新する。
	LastNotifiedStatus ItemStatus `gorm:"type:varchar(20);not null;default:OK;index" json:"last_notified_status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

func (Item) TableName() string {
	return "consumable_items"
}

// 表示用（ステータス付き）
type ItemWithStatus struct {
	Item
	Status ItemStatus `json:"status"`
}

func WithStatus(it Item, now time.Time) ItemWithStatus {
	return ItemWithStatus{Item: it, Status: ComputeStatus(it, now)}
}

func (it Item) CategoryName() string {
	if it.Category == nil {
		return ""
	}
	return it.Category.Name
}

func (it Item) LocationName() string {
	if it.Location == nil {
		return ""
	}
	return it.Location.Name
}

func (it Item) SupplierName() string {
	if it.Supplier == nil {
		return ""
	}
	return it.Supplier.Name
}
