package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsarpub/pulsar/app/models"
)

type fakeDirectory struct {
	usernames map[string]*models.User
	domains   map[string]*models.User
}

func (d *fakeDirectory) ByUsername(username string) (*models.User, error) {
	if u, ok := d.usernames[username]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (d *fakeDirectory) ByCustomDomain(domain string) (*models.User, error) {
	if u, ok := d.domains[domain]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func newTestResolver() *Resolver {
	hsts := &models.User{ID: 1, Username: "hsts"}
	return NewResolver("pulsar.pub", &fakeDirectory{
		usernames: map[string]*models.User{"hsts": hsts},
		domains:   map[string]*models.User{"hsts.dev": hsts},
	})
}

func TestResolveCanonicalHost(t *testing.T) {
	r := newTestResolver()

	for _, host := range []string{"pulsar.pub", "PULSAR.PUB", "pulsar.pub:443", "pulsar.pub."} {
		res, err := r.Resolve(host)
		require.NoError(t, err, host)
		assert.Equal(t, KindCanonical, res.Kind, host)
		assert.Nil(t, res.Account, host)
	}
}

func TestResolveSubdomain(t *testing.T) {
	r := newTestResolver()

	res, err := r.Resolve("hsts.pulsar.pub")
	require.NoError(t, err)
	assert.Equal(t, KindSubdomain, res.Kind)
	require.NotNil(t, res.Account)
	assert.Equal(t, "hsts", res.Account.Username)
}

func TestResolveSubdomainCaseAndPort(t *testing.T) {
	r := newTestResolver()

	res, err := r.Resolve("HSTS.Pulsar.Pub:8080")
	require.NoError(t, err)
	assert.Equal(t, KindSubdomain, res.Kind)
}

func TestResolveCustomDomain(t *testing.T) {
	r := newTestResolver()

	res, err := r.Resolve("hsts.dev")
	require.NoError(t, err)
	assert.Equal(t, KindCustomDomain, res.Kind)
	require.NotNil(t, res.Account)
	assert.Equal(t, uint(1), res.Account.ID)
}

func TestResolveExtraLabelIsUnrecognized(t *testing.T) {
	r := newTestResolver()

	// one label too deep must not partially match
	res, err := r.Resolve("x.hsts.pulsar.pub")
	require.NoError(t, err)
	assert.Equal(t, KindUnrecognized, res.Kind)
}

func TestResolveUnknownHosts(t *testing.T) {
	r := newTestResolver()

	for _, host := range []string{
		"nobody.pulsar.pub",
		"example.com",
		"pulsarxpub",
		"",
		".pulsar.pub",
	} {
		res, err := r.Resolve(host)
		require.NoError(t, err, host)
		assert.Equal(t, KindUnrecognized, res.Kind, host)
		assert.Nil(t, res.Account, host)
	}
}

func TestResolveDerivesLabelCountFromCanonicalHost(t *testing.T) {
	site := &models.User{ID: 2, Username: "blog"}
	r := NewResolver("sites.internal.example.org", &fakeDirectory{
		usernames: map[string]*models.User{"blog": site},
	})

	res, err := r.Resolve("blog.sites.internal.example.org")
	require.NoError(t, err)
	assert.Equal(t, KindSubdomain, res.Kind)

	res, err = r.Resolve("a.blog.sites.internal.example.org")
	require.NoError(t, err)
	assert.Equal(t, KindUnrecognized, res.Kind)
}

func TestResolveCustomDomainWinsOverSubdomainShape(t *testing.T) {
	// a host shaped like <label>.<canonical> that is also registered as a
	// custom domain resolves as the custom domain
	owner := &models.User{ID: 3, Username: "other"}
	r := NewResolver("pulsar.pub", &fakeDirectory{
		usernames: map[string]*models.User{"claimed": {ID: 4, Username: "claimed"}},
		domains:   map[string]*models.User{"claimed.pulsar.pub": owner},
	})

	res, err := r.Resolve("claimed.pulsar.pub")
	require.NoError(t, err)
	assert.Equal(t, KindCustomDomain, res.Kind)
	assert.Equal(t, uint(3), res.Account.ID)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "canonical", KindCanonical.String())
	assert.Equal(t, "subdomain", KindSubdomain.String())
	assert.Equal(t, "custom_domain", KindCustomDomain.String())
	assert.Equal(t, "unrecognized", KindUnrecognized.String())
}
