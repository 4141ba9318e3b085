package repository

import (
	"github.com/pulsarpub/pulsar/app/models"
	"gorm.io/gorm"
)

// UserRepository defines user-related database operations, including the
// lookups the tenant resolver depends on.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByCustomDomain(domain string) (*models.User, error)
	UpdateColumns(user *models.User, columns ...string) error
	Count() (int64, error)
	UsernameExists(username string) (bool, error)
	CustomDomainExistsExceptID(domain string, id uint) (bool, error)
}

// PageRepository defines page-related database operations. Slugs are scoped
// per owning user.
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetByUserAndSlug(userID uint, slug string) (*models.Page, error)
	ListByUser(userID uint) ([]models.Page, error)
	Update(page *models.Page) error
	Delete(id uint) error
	SlugExistsExceptID(userID uint, slug string, id uint) (bool, error)
}

// ImageRepository defines image-related database operations.
type ImageRepository interface {
	Create(image *models.Image) error
	GetBySlug(slug string) (*models.Image, error)
	ListByUser(userID uint) ([]models.Image, error)
	Update(image *models.Image) error
	Delete(id uint) error
	Count() (int64, error)
	TotalBytesByUser(userID uint) (int64, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	User  UserRepository
	Page  PageRepository
	Image ImageRepository
}

// NewRepositories creates a new instance of all repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Page:  NewPageRepository(db),
		Image: NewImageRepository(db),
	}
}
