package model

import "time"

// 品目の分類
type Category struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	SortOrder   *int      `json:"sort_order"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Category) TableName() string {
	return "consumable_categories"
}

// 保管場所
type Location struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 仕入先
type Supplier struct {
	ID                  string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name                string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	ContactEmail        *string   `gorm:"type:varchar(255)" json:"contact_email"`
	Phone               *string   `gorm:"type:varchar(64)" json:"phone"`
	DefaultLeadTimeDays *int      `json:"default_lead_time_days"`
	Notes               *string   `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
