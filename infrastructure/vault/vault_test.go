package vault_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umarhashmi9/gitsync/domain"
	"github.com/umarhashmi9/gitsync/infrastructure/vault"
)

func readyVault(t *testing.T) (*vault.Vault, *vault.MemStore) {
	t.Helper()
	store := vault.NewMemStore()
	v := vault.New(store)
	require.NoError(t, v.EnsureEncryption())
	return v, store
}

func TestEnsureEncryption(t *testing.T) {
	t.Parallel()

	t.Run("should generate and persist a 32-byte master key", func(t *testing.T) {
		t.Parallel()

		// given
		store := vault.NewMemStore()
		v := vault.New(store)

		// when
		err := v.EnsureEncryption()

		// then
		require.NoError(t, err)
		encoded, ok, getErr := store.Get("masterKey")
		require.NoError(t, getErr)
		require.True(t, ok)

		key, decodeErr := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, decodeErr)
		assert.Len(t, key, 32)
	})

	t.Run("should reuse the persisted master key across instances", func(t *testing.T) {
		t.Parallel()

		// given
		store := vault.NewMemStore()
		first := vault.New(store)
		require.NoError(t, first.EnsureEncryption())
		blob, err := first.Encrypt("secret text")
		require.NoError(t, err)

		// when
		second := vault.New(store)
		require.NoError(t, second.EnsureEncryption())
		plain, err := second.Decrypt(blob)

		// then
		require.NoError(t, err)
		assert.Equal(t, "secret text", plain)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		t.Parallel()

		// given
		store := vault.NewMemStore()
		v := vault.New(store)
		require.NoError(t, v.EnsureEncryption())
		keyBefore, _, _ := store.Get("masterKey")

		// when
		require.NoError(t, v.EnsureEncryption())

		// then
		keyAfter, _, _ := store.Get("masterKey")
		assert.Equal(t, keyBefore, keyAfter)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	t.Run("should round-trip arbitrary strings", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)
		inputs := []string{
			"ghp_abc123",
			"",
			"with\x00nul",
			"unicode: héllo wörld ✓",
		}

		for _, input := range inputs {
			// when
			blob, err := v.Encrypt(input)
			require.NoError(t, err)
			plain, err := v.Decrypt(blob)

			// then
			require.NoError(t, err)
			assert.Equal(t, input, plain)
		}
	})

	t.Run("should use a fresh nonce per encryption", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)

		// when
		first, err := v.Encrypt("same text")
		require.NoError(t, err)
		second, err := v.Encrypt("same text")
		require.NoError(t, err)

		// then
		assert.NotEqual(t, first, second)
	})

	t.Run("should reject tampered ciphertext", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)
		blob, err := v.Encrypt("secret")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0x01
		tampered := base64.StdEncoding.EncodeToString(raw)

		// when
		_, err = v.Decrypt(tampered)

		// then
		require.ErrorIs(t, err, vault.ErrDecrypt)
	})

	t.Run("should reject blobs shorter than a nonce", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)

		// when
		_, err := v.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))

		// then
		require.ErrorIs(t, err, vault.ErrDecrypt)
	})

	t.Run("should fail before initialization", func(t *testing.T) {
		t.Parallel()

		// given
		v := vault.New(vault.NewMemStore())

		// when
		_, encErr := v.Encrypt("x")
		_, decErr := v.Decrypt("x")
		saveErr := v.Save("github.com", domain.Credential{})
		_, lookupErr := v.Lookup("github.com", "github")

		// then
		assert.ErrorIs(t, encErr, vault.ErrNotInitialized)
		assert.ErrorIs(t, decErr, vault.ErrNotInitialized)
		assert.ErrorIs(t, saveErr, vault.ErrNotInitialized)
		assert.ErrorIs(t, lookupErr, vault.ErrNotInitialized)
	})
}

func TestSaveAndLookup(t *testing.T) {
	t.Parallel()

	t.Run("should round-trip a credential under the domain key", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)
		cred := domain.Credential{Username: "octocat", Secret: "ghp_token"}

		// when
		require.NoError(t, v.Save("github.com", cred))
		got, err := v.Lookup("github.com", "github")

		// then
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, cred, *got)
	})

	t.Run("should report no credential for an unknown domain", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)

		// when
		got, err := v.Lookup("gitlab.com", "gitlab")

		// then
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("should delete a corrupt entry instead of wedging", func(t *testing.T) {
		t.Parallel()

		// given
		v, store := readyVault(t)
		require.NoError(t, store.Set("github.com", "not-a-valid-blob"))

		// when
		got, err := v.Lookup("github.com", "github")

		// then
		require.NoError(t, err)
		assert.Nil(t, got)
		_, ok, _ := store.Get("github.com")
		assert.False(t, ok)
	})

	t.Run("should remove a credential idempotently", func(t *testing.T) {
		t.Parallel()

		// given
		v, _ := readyVault(t)
		require.NoError(t, v.Save("github.com", domain.Credential{Username: "u", Secret: "s"}))

		// when
		require.NoError(t, v.Remove("github.com"))
		require.NoError(t, v.Remove("github.com"))

		// then
		got, err := v.Lookup("github.com", "github")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestLegacyMigration(t *testing.T) {
	t.Parallel()

	legacyKeys := []string{
		"githubUsername", "githubToken", "githubAccessToken",
		"githubAuth", "githubCredentials", "github_username", "github_token",
	}

	t.Run("should migrate legacy entries to the domain key", func(t *testing.T) {
		t.Parallel()

		// given
		v, store := readyVault(t)
		userBlob, err := v.Encrypt("octocat")
		require.NoError(t, err)
		tokenBlob, err := v.Encrypt("ghp_legacy")
		require.NoError(t, err)
		require.NoError(t, store.Set("githubUsername", userBlob))
		require.NoError(t, store.Set("githubToken", tokenBlob))
		require.NoError(t, store.Set("githubAccessToken", "stale"))

		// when
		got, err := v.Lookup("github.com", "github")

		// then
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "octocat", got.Username)
		assert.Equal(t, "ghp_legacy", got.Secret)

		for _, key := range legacyKeys {
			_, ok, _ := store.Get(key)
			assert.False(t, ok, key)
		}

		migrated, err := v.Lookup("github.com", "github")
		require.NoError(t, err)
		require.NotNil(t, migrated)
		assert.Equal(t, "octocat", migrated.Username)
	})

	t.Run("should discard undecryptable legacy entries", func(t *testing.T) {
		t.Parallel()

		// given
		v, store := readyVault(t)
		require.NoError(t, store.Set("githubUsername", "garbage"))
		require.NoError(t, store.Set("githubToken", "garbage"))

		// when
		got, err := v.Lookup("github.com", "github")

		// then
		require.NoError(t, err)
		assert.Nil(t, got)
		for _, key := range legacyKeys {
			_, ok, _ := store.Get(key)
			assert.False(t, ok, key)
		}
	})

	t.Run("should clean up when only one legacy half exists", func(t *testing.T) {
		t.Parallel()

		// given
		v, store := readyVault(t)
		blob, err := v.Encrypt("octocat")
		require.NoError(t, err)
		require.NoError(t, store.Set("githubUsername", blob))

		// when
		got, err := v.Lookup("github.com", "github")

		// then
		require.NoError(t, err)
		assert.Nil(t, got)
		_, ok, _ := store.Get("githubUsername")
		assert.False(t, ok)
	})
}
