// Package dbtest はテスト用のインメモリsqlite DBとデータ投入ヘルパ。
package dbtest

import (
	"testing"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/infra/db"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New はマイグレーション済みのインメモリDBを返す（テストごとに独立）
func New(t *testing.T) *gorm.DB {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	gdb, err := db.Connect(config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Category(t *testing.T, gdb *gorm.DB, name string) model.Category {
	t.Helper()
	c := model.Category{Name: name}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

// ItemOpts で品目の数量・期限などを指定する
type ItemOpts struct {
	Current    float64
	Minimum    float64
	Expiration *time.Time
	Last       model.ItemStatus
	Inactive   bool
	LocationID *string
	SupplierID *string
}

func Item(t *testing.T, gdb *gorm.DB, categoryID string, name string, o ItemOpts) model.Item {
	t.Helper()
	last := o.Last
	if last == "" {
		last = model.ItemStatusOK
	}
	it := model.Item{
		Name:               name,
		CategoryID:         categoryID,
		LocationID:         o.LocationID,
		SupplierID:         o.SupplierID,
		UnitOfMeasure:      "pcs",
		CurrentQuantity:    decimal.NewFromFloat(o.Current),
		MinimumQuantity:    decimal.NewFromFloat(o.Minimum),
		ReorderQuantity:    decimal.Zero,
		ExpirationDate:     o.Expiration,
		IsActive:           true,
		LastNotifiedStatus: last,
	}
	require.NoError(t, gdb.Create(&it).Error)
	if o.Inactive {
		require.NoError(t, gdb.Model(&model.Item{}).Where("id = ?", it.ID).Update("is_active", false).Error)
		it.IsActive = false
	}
	return it
}

// Reload はDBの最新状態を読み直す
func Reload(t *testing.T, gdb *gorm.DB, id string) model.Item {
	t.Helper()
	var it model.Item
	require.NoError(t, gdb.First(&it, "id = ?", id).Error)
	return it
}

// Day は UTC の日付
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
