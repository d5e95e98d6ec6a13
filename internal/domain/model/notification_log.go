package model

import (
	"time"

	"gorm.io/datatypes"
)

// 送信結果のメタ情報
type NotificationMeta struct {
	EmailSent  bool       `json:"email_sent"`
	ItemStatus ItemStatus `json:"item_status"`
	Error      string     `json:"error,omitempty"`
}

// 通知ログ（追記のみ）。
// 「どの品目に」「何を」「誰へ」「結果どうだったか」を残す。
type NotificationLog struct {
	ID               string                               `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID           string                               `gorm:"type:varchar(36);not null;index" json:"item_id"`
	NotificationType NotificationType                     `gorm:"type:varchar(20);not null;index" json:"notification_type"`
	Recipients       datatypes.JSONSlice[string]          `gorm:"not null" json:"recipients"`
	Subject          string                               `gorm:"type:varchar(500);not null" json:"subject"`
	Body             string                               `gorm:"type:text" json:"body"`
	SentAt           time.Time                            `gorm:"not null;index" json:"sent_at"`
	Meta             datatypes.JSONType[NotificationMeta] `json:"meta"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
