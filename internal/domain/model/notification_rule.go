package model

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultExpiringSoonDays = 30

// 通知ルール。ItemID か CategoryID のどちらか一方だけを持つ。
// 品目ルールは品目ごとに1件（item_id の一意制約。NULL は重複可）。
type NotificationRule struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID     *string `gorm:"type:varchar(36);uniqueIndex" json:"item_id"`
	CategoryID *string `gorm:"type:varchar(36);index" json:"category_id"`

	Emails datatypes.JSONSlice[string] `gorm:"not null" json:"emails"`

	NotifyOnLowStock     bool `gorm:"not null" json:"notify_on_low_stock"`
	NotifyOnOutOfStock   bool `gorm:"not null" json:"notify_on_out_of_stock"`
	NotifyOnExpiringSoon bool `gorm:"not null" json:"notify_on_expiring_soon"`
	// 表示用。EXPIRING_SOON の判定は常に30日の窓を使う
	ExpiringSoonDays     int  `gorm:"not null" json:"expiring_soon_days"`

	IsActive bool `gorm:"not null;index" json:"is_active"`
	Priority int  `gorm:"not null;index" json:"priority"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Item     *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"item,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// Enables はこの通知種別がルールで有効か。
func (r NotificationRule) Enables(t NotificationType) bool {
	switch t {
	case NotificationLowStock:
		return r.NotifyOnLowStock
	case NotificationOutOfStock:
		return r.NotifyOnOutOfStock
	case NotificationExpiringSoon:
		return r.NotifyOnExpiringSoon
	default:
		return false
	}
}
