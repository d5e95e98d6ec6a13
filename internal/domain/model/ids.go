package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDが空なら作成時にUUIDを振る

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (it *Item) BeforeCreate(tx *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.LastNotifiedStatus == "" {
		it.LastNotifiedStatus = ItemStatusOK
	}
	return nil
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (r *NotificationRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (l *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
