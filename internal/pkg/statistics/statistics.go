package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/internal/pkg/cache"
	"github.com/pulsarpub/pulsar/internal/pkg/database"
)

const (
	CacheKeyUsers   = "statistics:users:total"
	CacheKeyPages   = "statistics:pages:total"
	CacheKeyImages  = "statistics:images:total"
	CacheExpiration = 30 * time.Minute
)

// Data holds the public counters shown on the landing page.
type Data struct {
	TotalUsers  int
	TotalPages  int
	TotalImages int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// UpdateCacheIfNeeded refreshes the cached counters when the last refresh is
// older than the update interval.
func UpdateCacheIfNeeded() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	if time.Since(lastCacheUpdate) <= cacheUpdateInterval {
		return
	}

	if err := UpdateStatisticsCache(); err != nil {
		log.Printf("statistics cache refresh failed: %v", err)
		return
	}
	lastCacheUpdate = time.Now()
}

// UpdateStatisticsCache recounts users, pages and images and stores the
// results in the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers, totalPages, totalImages int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Page{}).Count(&totalPages).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Image{}).Count(&totalImages).Error; err != nil {
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyPages, strconv.FormatInt(totalPages, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyImages, strconv.FormatInt(totalImages, 10), CacheExpiration); err != nil {
		return err
	}

	log.Printf("statistics cached: users=%d pages=%d images=%d", totalUsers, totalPages, totalImages)
	return nil
}

// GetStatistics returns the landing page counters from cache, falling back to
// the database per counter on a miss.
func GetStatistics() Data {
	return Data{
		TotalUsers:  cachedCount(CacheKeyUsers, &models.User{}),
		TotalPages:  cachedCount(CacheKeyPages, &models.Page{}),
		TotalImages: cachedCount(CacheKeyImages, &models.Image{}),
	}
}

func cachedCount(key string, model interface{}) int {
	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	var count int64
	if err := database.GetDB().Model(model).Count(&count).Error; err != nil {
		log.Printf("statistics count fallback failed for %s: %v", key, err)
		return 0
	}
	_ = cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration)
	return int(count)
}
