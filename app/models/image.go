package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxImageBytes is the per-file upload limit (1.1 MB, advertised as 1 MB).
const MaxImageBytes = 1.1 * 1000 * 1000

// Image is an uploaded gallery image. The payload is stored in the database;
// the slug is globally unique and appears in the public raw URL.
type Image struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Name      string         `gorm:"type:varchar(300);not null" json:"name"` // original filename without extension
	Slug      string         `gorm:"type:varchar(300);uniqueIndex;not null" json:"slug"`
	Data      []byte         `gorm:"type:mediumblob;not null" json:"-"`
	Extension string         `gorm:"type:varchar(10);not null" json:"extension"`
	Width     int            `gorm:"type:int;default:0" json:"width"`
	Height    int            `gorm:"type:int;default:0" json:"height"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a short random slug when none is set.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.Slug == "" {
		i.Slug = NewImageSlug()
	}
	return nil
}

// NewImageSlug returns the first 8 characters of a fresh UUID, matching the
// public raw URL format.
func NewImageSlug() string {
	return uuid.New().String()[:8]
}

// NormalizeExtension lowercases ext and folds jpg into jpeg so the stored
// value always matches the served image/<ext> content type.
func NormalizeExtension(ext string) string {
	e := strings.ToLower(strings.TrimSpace(ext))
	if e == "jpg" {
		e = "jpeg"
	}
	return e
}

// Filename returns the slug-based public filename.
func (i *Image) Filename() string {
	return i.Slug + "." + i.Extension
}

// DataAsBase64 renders the payload for inline display.
func (i *Image) DataAsBase64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataSizeMB returns the payload size in megabytes, rounded to two decimals.
func (i *Image) DataSizeMB() float64 {
	mb := float64(len(i.Data)) / (1024 * 1024)
	return float64(int(mb*100+0.5)) / 100
}

// RawURL returns the public raw URL served from the canonical host.
func (i *Image) RawURL(protocol, canonicalHost string) string {
	return fmt.Sprintf("%s//%s/images/raw/%s.%s", protocol, canonicalHost, i.Slug, i.Extension)
}
