package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

type notificationLogGormRepository struct {
	db *gorm.DB
}

func NewNotificationLogGormRepository(db *gorm.DB) repo.NotificationLogRepository {
	return &notificationLogGormRepository{db: db}
}

func (r *notificationLogGormRepository) Create(ctx context.Context, log model.NotificationLog) error {
	if err := r.db.WithContext(ctx).Omit("Item").Create(&log).Error; err != nil {
		return err
	}
	return nil
}

func (r *notificationLogGormRepository) ListRecent(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 10
	}

	//新しい順
	logs := []model.NotificationLog{}
	err := r.db.WithContext(ctx).
		Preload("Item").
		Order("sent_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return []model.NotificationLog{}, err
	}
	return logs, nil
}
