package tenant

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/cache"
)

const (
	cacheKeyUsername     = "tenant:username:"
	cacheKeyCustomDomain = "tenant:domain:"
	cacheTTL             = 60 * time.Second
)

// GormDirectory looks accounts up through the user repository, with a short
// host-to-account-id cache in Redis in front of the indexed queries. Billing
// and profile fields are always read fresh from the database.
type GormDirectory struct {
	users repository.UserRepository
}

// NewGormDirectory builds the production Directory over db.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{users: repository.NewUserRepository(db)}
}

func (d *GormDirectory) ByUsername(username string) (*models.User, error) {
	if user, ok := d.fromCache(cacheKeyUsername + username); ok {
		return user, nil
	}

	user, err := d.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	_ = cache.Set(cacheKeyUsername+username, strconv.FormatUint(uint64(user.ID), 10), cacheTTL)
	return user, nil
}

func (d *GormDirectory) ByCustomDomain(domain string) (*models.User, error) {
	if user, ok := d.fromCache(cacheKeyCustomDomain + domain); ok {
		return user, nil
	}

	user, err := d.users.GetByCustomDomain(domain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	_ = cache.Set(cacheKeyCustomDomain+domain, strconv.FormatUint(uint64(user.ID), 10), cacheTTL)
	return user, nil
}

// fromCache resolves a cached host key to a freshly loaded user. Cache
// failures degrade to a database lookup.
func (d *GormDirectory) fromCache(key string) (*models.User, bool) {
	val, err := cache.Get(key)
	if err != nil {
		return nil, false
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, false
	}
	user, err := d.users.GetByID(uint(id))
	if err != nil {
		return nil, false
	}
	return user, true
}
