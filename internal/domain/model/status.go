package model

import "time"

// 在庫ステータス（保存値ではなく毎回計算する）
type ItemStatus string

const (
	ItemStatusOK           ItemStatus = "OK"
	ItemStatusLow          ItemStatus = "LOW"
	ItemStatusOutOfStock   ItemStatus = "OUT_OF_STOCK"
	ItemStatusExpiringSoon ItemStatus = "EXPIRING_SOON"
)

// 期限切れ間近とみなす日数（今日を0日目として30日目まで）
const ExpiringSoonWindowDays = 30

func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(s) {
	case ItemStatusOK, ItemStatusLow, ItemStatusOutOfStock, ItemStatusExpiringSoon:
		return ItemStatus(s), true
	default:
		return "", false
	}
}

// 通知の種類
type NotificationType string

const (
	NotificationLowStock     NotificationType = "LOW_STOCK"
	NotificationOutOfStock   NotificationType = "OUT_OF_STOCK"
	NotificationExpiringSoon NotificationType = "EXPIRING_SOON"
)

// ComputeStatus は数量と期限からステータスを決める。上から順に最初に一致したもの。
//
// 期限が過去で数量が十分な品目は OK になる（EXPIRING_SOON の下限が今日のため）。
func ComputeStatus(it Item, now time.Time) ItemStatus {
	if !it.CurrentQuantity.IsPositive() {
		return ItemStatusOutOfStock
	}
	if it.CurrentQuantity.LessThanOrEqual(it.MinimumQuantity) {
		return ItemStatusLow
	}
	if it.ExpirationDate != nil {
		days := DaysUntil(*it.ExpirationDate, now)
		if days >= 0 && days <= ExpiringSoonWindowDays {
			return ItemStatusExpiringSoon
		}
	}
	return ItemStatusOK
}

// DaysUntil は now の日付（now のタイムゾーン）から期限日までの暦日数。
// 期限は UTC の日付として保存しているので、t は UTC の年月日で読む。
func DaysUntil(t time.Time, now time.Time) int {
	t = t.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ExpiringWindow は EXPIRING_SOON に該当する期限の範囲 [from, to) を返す（UTC）。
// SQL の絞り込みを ComputeStatus と一致させるために使う。
func ExpiringWindow(now time.Time) (from time.Time, to time.Time) {
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 0, ExpiringSoonWindowDays+1)
	return from, to
}
