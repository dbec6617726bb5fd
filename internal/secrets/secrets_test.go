package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingFetcher struct {
	values map[string]string
	calls  int
}

func (c *countingFetcher) fetch(_ context.Context, name string) (string, error) {
	c.calls++
	v, ok := c.values[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceVault, ResolveSource(SourceVault, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_Environment(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)

	t.Setenv("TRACKER_TEST_SECRET", "value")

	v, err := p.GetSecret(context.Background(), "TRACKER_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = p.GetSecret(context.Background(), "TRACKER_MISSING_SECRET")
	assert.Error(t, err)

	t.Setenv("TRACKER_OVERRIDE", "override")
	v, err = p.GetSecretOrEnv(context.Background(), "unused", "TRACKER_OVERRIDE")
	require.NoError(t, err)
	assert.Equal(t, "override", v)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestVaultClient_Cache(t *testing.T) {
	f := &countingFetcher{values: map[string]string{"jwt-signing-secret": "s3cret"}}

	t.Run("cached reads hit the vault once", func(t *testing.T) {
		v := newVaultClient(f, &VaultConfig{CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())
		for i := 0; i < 3; i++ {
			got, err := v.GetSecret(context.Background(), "jwt-signing-secret")
			require.NoError(t, err)
			assert.Equal(t, "s3cret", got)
		}
		assert.Equal(t, 1, f.calls)

		v.ClearCache()
		_, err := v.GetSecret(context.Background(), "jwt-signing-secret")
		require.NoError(t, err)
		assert.Equal(t, 2, f.calls)
	})

	t.Run("missing secret is an error", func(t *testing.T) {
		v := newVaultClient(f, &VaultConfig{}, zap.NewNop())
		_, err := v.GetSecret(context.Background(), "nope")
		assert.Error(t, err)
	})
}
