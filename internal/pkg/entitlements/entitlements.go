package entitlements

import "github.com/pulsarpub/pulsar/app/models"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Gallery storage caps per plan, enforced at upload time.
const (
	FreeStorageBytes    int64 = 50 * 1000 * 1000
	PremiumStorageBytes int64 = 500 * 1000 * 1000
)

// PlanFor maps an account to its plan.
func PlanFor(u *models.User) Plan {
	if u != nil && u.IsPremium {
		return PlanPremium
	}
	return PlanFree
}

// StorageLimitBytes returns the total gallery size a plan may hold.
func StorageLimitBytes(plan Plan) int64 {
	if plan == PlanPremium {
		return PremiumStorageBytes
	}
	return FreeStorageBytes
}

// CanStore reports whether an account with usedBytes stored may add another
// addBytes of image data.
func CanStore(u *models.User, usedBytes, addBytes int64) bool {
	return usedBytes+addBytes <= StorageLimitBytes(PlanFor(u))
}
