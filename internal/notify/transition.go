package notify

import (
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

// Decision は1品目についての判定結果（副作用なし）
type Decision struct {
	ItemID   string
	Previous model.ItemStatus
	Current  model.ItemStatus
	Emit     []model.NotificationType
}

// Changed は前回通知時からステータスが変わったか
func (d Decision) Changed() bool {
	return d.Previous != d.Current
}

// Transition は前回通知ステータス→現在ステータスで送る通知の種類を返す。
//
//	OK|LOW → OUT_OF_STOCK : OUT_OF_STOCK
//	OK → LOW              : LOW_STOCK
//	OK → EXPIRING_SOON    : EXPIRING_SOON
//
// それ以外（回復・同一・LOW→EXPIRING_SOON など）は何も送らない。
func Transition(prev model.ItemStatus, next model.ItemStatus) []model.NotificationType {
	if prev == next {
		return nil
	}
	switch next {
	case model.ItemStatusOutOfStock:
		if prev == model.ItemStatusOK || prev == model.ItemStatusLow {
			return []model.NotificationType{model.NotificationOutOfStock}
		}
	case model.ItemStatusLow:
		if prev == model.ItemStatusOK {
			return []model.NotificationType{model.NotificationLowStock}
		}
	case model.ItemStatusExpiringSoon:
		if prev == model.ItemStatusOK {
			return []model.NotificationType{model.NotificationExpiringSoon}
		}
	}
	return nil
}

// Decide は品目の現在ステータスを計算し、送るべき通知を決める
func Decide(it model.Item, now time.Time) Decision {
	prev := it.LastNotifiedStatus
	if prev == "" {
		prev = model.ItemStatusOK
	}
	cur := model.ComputeStatus(it, now)
	return Decision{
		ItemID:   it.ID,
		Previous: prev,
		Current:  cur,
		Emit:     Transition(prev, cur),
	}
}
