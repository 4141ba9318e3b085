package repository

import (
	"github.com/pulsarpub/pulsar/app/models"
	"gorm.io/gorm"
)

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a page repository backed by GORM.
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	if err := r.db.First(&page, id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) GetByUserAndSlug(userID uint, slug string) (*models.Page, error) {
	var page models.Page
	if err := r.db.Where("user_id = ? AND slug = ?", userID, slug).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) ListByUser(userID uint) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&pages).Error
	return pages, err
}

func (r *pageRepository) Update(page *models.Page) error {
	return r.db.Save(page).Error
}

func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Page{}, id).Error
}

func (r *pageRepository) SlugExistsExceptID(userID uint, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Page{}).
		Where("user_id = ? AND slug = ? AND id <> ?", userID, slug, id).
		Count(&count).Error
	return count > 0, err
}
