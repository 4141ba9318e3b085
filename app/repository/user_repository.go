package repository

import (
	"github.com/pulsarpub/pulsar/app/models"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByCustomDomain(domain string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("custom_domain = ?", domain).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateColumns writes only the named columns. Profile handlers use this so a
// stale snapshot can never overwrite the billing fields the subscription
// reconciler owns; there is deliberately no full-row save.
func (r *userRepository) UpdateColumns(user *models.User, columns ...string) error {
	return r.db.Model(user).Select(columns).Updates(user).Error
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) CustomDomainExistsExceptID(domain string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("custom_domain = ? AND id <> ?", domain, id).
		Count(&count).Error
	return count > 0, err
}
