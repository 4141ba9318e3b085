package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

var resolver *tenant.Resolver

// SetResolver injects the tenant resolver used by TenantMiddleware. Must be
// called before the router is installed.
func SetResolver(r *tenant.Resolver) {
	resolver = r
}

// TenantMiddleware classifies the request host and stores the Resolution in
// locals. Directory errors degrade to Unrecognized so a cache or database
// hiccup cannot leak another tenant's site.
func TenantMiddleware(c *fiber.Ctx) error {
	res := tenant.Resolution{Kind: tenant.KindUnrecognized}
	if resolver != nil {
		var err error
		res, err = resolver.Resolve(c.Hostname())
		if err != nil {
			log.Printf("tenant resolution failed for host %q: %v", c.Hostname(), err)
		}
	}
	c.Locals(usercontext.KeyTenant, res)
	return c.Next()
}

// GetResolution returns the tenant resolution attached by TenantMiddleware.
func GetResolution(c *fiber.Ctx) tenant.Resolution {
	if res, ok := c.Locals(usercontext.KeyTenant).(tenant.Resolution); ok {
		return res
	}
	return tenant.Resolution{Kind: tenant.KindUnrecognized}
}
