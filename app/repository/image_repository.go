package repository

import (
	"github.com/pulsarpub/pulsar/app/models"
	"gorm.io/gorm"
)

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates an image repository backed by GORM.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(image *models.Image) error {
	return r.db.Create(image).Error
}

func (r *imageRepository) GetBySlug(slug string) (*models.Image, error) {
	var image models.Image
	if err := r.db.Where("slug = ?", slug).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListByUser(userID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&images).Error
	return images, err
}

func (r *imageRepository) Update(image *models.Image) error {
	return r.db.Save(image).Error
}

func (r *imageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Image{}, id).Error
}

func (r *imageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Count(&count).Error
	return count, err
}

func (r *imageRepository) TotalBytesByUser(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Image{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(LENGTH(data)), 0)").
		Row().Scan(&total)
	return total, err
}
