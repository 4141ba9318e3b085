package models

import (
	"time"

	"gorm.io/gorm"
)

// Page is a Markdown-authored page belonging to exactly one user. The slug is
// unique per user, not globally.
type Page struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:ux_pages_user_slug,unique,priority:1" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Slug      string         `gorm:"type:varchar(300);not null;index:ux_pages_user_slug,unique,priority:2" json:"slug" validate:"required,min=1,max=300,subdomain_label"`
	Title     string         `gorm:"type:varchar(300);not null" json:"title" validate:"required,min=1,max=300"`
	Body      string         `gorm:"type:longtext" json:"body"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Page) Validate() error {
	return newValidator().Struct(p)
}
