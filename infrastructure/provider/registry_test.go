package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umarhashmi9/gitsync/domain"
	"github.com/umarhashmi9/gitsync/infrastructure/provider"
	testdoubles "github.com/umarhashmi9/gitsync/test"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should build a provider through its registered factory", func(t *testing.T) {
		t.Parallel()

		// given
		registry := provider.NewRegistry()
		var receivedToken string
		registry.Register("spy", func(token string) domain.Provider {
			receivedToken = token
			return &testdoubles.SpyProvider{ProviderName: "spy"}
		})

		// when
		p, err := registry.Get("spy", "secret-token")

		// then
		require.NoError(t, err)
		assert.Equal(t, "spy", p.Name())
		assert.Equal(t, "secret-token", receivedToken)
	})

	t.Run("should fail for an unknown provider type", func(t *testing.T) {
		t.Parallel()

		// given
		registry := provider.NewRegistry()

		// when
		p, err := registry.Get("bitbucket", "token")

		// then
		require.Error(t, err)
		assert.Nil(t, p)
		assert.Contains(t, err.Error(), "bitbucket")
	})

	t.Run("should list descriptors sorted by name without a token", func(t *testing.T) {
		t.Parallel()

		// given
		registry := provider.NewRegistry()
		registry.Register("gitlab", func(string) domain.Provider {
			return &testdoubles.SpyProvider{
				Desc: domain.RemoteProviderDescriptor{Name: "gitlab", Title: "GitLab"},
			}
		})
		registry.Register("github", func(string) domain.Provider {
			return &testdoubles.SpyProvider{
				Desc: domain.RemoteProviderDescriptor{Name: "github", Title: "GitHub"},
			}
		})

		// when
		descriptors := registry.Descriptors()

		// then
		require.Len(t, descriptors, 2)
		assert.Equal(t, "github", descriptors[0].Name)
		assert.Equal(t, "gitlab", descriptors[1].Name)
	})

	t.Run("should list registered names", func(t *testing.T) {
		t.Parallel()

		// given
		registry := provider.NewRegistry()
		registry.Register("github", func(string) domain.Provider { return nil })
		registry.Register("gitlab", func(string) domain.Provider { return nil })

		// when
		names := registry.Names()

		// then
		assert.ElementsMatch(t, []string{"github", "gitlab"}, names)
	})
}
