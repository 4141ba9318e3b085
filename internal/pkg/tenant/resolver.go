package tenant

import (
	"errors"
	"net"
	"strings"

	"github.com/pulsarpub/pulsar/app/models"
)

// Kind classifies a request host.
type Kind int

const (
	// KindUnrecognized means the host maps to no known site; callers must
	// reject with a client error.
	KindUnrecognized Kind = iota
	// KindCanonical is the platform's own host (landing/marketing surface).
	KindCanonical
	// KindSubdomain is <username>.<canonical-host> for a registered account.
	KindSubdomain
	// KindCustomDomain is an exact match on an account's custom domain.
	KindCustomDomain
)

func (k Kind) String() string {
	switch k {
	case KindCanonical:
		return "canonical"
	case KindSubdomain:
		return "subdomain"
	case KindCustomDomain:
		return "custom_domain"
	default:
		return "unrecognized"
	}
}

// Resolution is the outcome of classifying a Host header. Account is set for
// KindSubdomain and KindCustomDomain only.
type Resolution struct {
	Kind    Kind
	Account *models.User
}

// Directory is the account lookup surface the resolver depends on. Both
// lookups must return ErrNotFound (or a wrapped equivalent) for misses.
type Directory interface {
	ByUsername(username string) (*models.User, error)
	ByCustomDomain(domain string) (*models.User, error)
}

// ErrNotFound is returned by Directory implementations for missing accounts.
var ErrNotFound = errors.New("tenant: account not found")

// Resolver classifies request hosts against the canonical host and the
// registered accounts. Classification order minimizes lookups: canonical
// equality first (no query), then custom domain, then subdomain label.
type Resolver struct {
	canonicalHost   string
	canonicalLabels int
	dir             Directory
}

// NewResolver builds a resolver for canonicalHost. The expected label count
// for subdomain hosts is derived from the canonical host itself rather than
// assuming a fixed two-label apex.
func NewResolver(canonicalHost string, dir Directory) *Resolver {
	canonical := normalizeHost(canonicalHost)
	return &Resolver{
		canonicalHost:   canonical,
		canonicalLabels: len(strings.Split(canonical, ".")),
		dir:             dir,
	}
}

// CanonicalHost returns the configured canonical host.
func (r *Resolver) CanonicalHost() string {
	return r.canonicalHost
}

// Resolve classifies host. It is a pure classification: no side effects, and
// unknown or malformed hosts are never partially matched.
func (r *Resolver) Resolve(host string) (Resolution, error) {
	h := normalizeHost(host)
	if h == "" || r.canonicalHost == "" {
		return Resolution{Kind: KindUnrecognized}, nil
	}

	if h == r.canonicalHost {
		return Resolution{Kind: KindCanonical}, nil
	}

	account, err := r.dir.ByCustomDomain(h)
	if err == nil {
		return Resolution{Kind: KindCustomDomain, Account: account}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Resolution{Kind: KindUnrecognized}, err
	}

	label, ok := r.subdomainLabel(h)
	if !ok {
		return Resolution{Kind: KindUnrecognized}, nil
	}
	account, err = r.dir.ByUsername(label)
	if err == nil {
		return Resolution{Kind: KindSubdomain, Account: account}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Resolution{Kind: KindUnrecognized}, err
	}

	return Resolution{Kind: KindUnrecognized}, nil
}

// subdomainLabel extracts the leading label when host is exactly one label
// deeper than the canonical host and ends in it. Hosts with extra labels
// (a.b.<canonical>) are rejected, not partially matched.
func (r *Resolver) subdomainLabel(host string) (string, bool) {
	if !strings.HasSuffix(host, "."+r.canonicalHost) {
		return "", false
	}
	parts := strings.Split(host, ".")
	if len(parts) != r.canonicalLabels+1 {
		return "", false
	}
	label := parts[0]
	if label == "" {
		return "", false
	}
	return label, true
}

// normalizeHost lowercases the host and strips an optional port.
func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	return strings.TrimSuffix(h, ".")
}
