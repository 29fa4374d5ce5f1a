// Package vault encrypts hosting-provider credentials at rest and migrates
// legacy plaintext-adjacent storage to the current encrypted format.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/umarhashmi9/gitsync/domain"
)

const (
	masterKeyName = "masterKey"
	keySize       = 32
	nonceSize     = 12
)

var (
	// ErrNotInitialized is returned when a vault operation runs before
	// EnsureEncryption.
	ErrNotInitialized = errors.New("master key not initialized")

	// ErrDecrypt is returned when a stored blob fails authenticated
	// decryption. Callers treat it as a corrupt or invalid credential,
	// never as something to retry.
	ErrDecrypt = errors.New("credential decryption failed")
)

// legacyKeySuffixes are every historical per-provider key name. The first
// two held encrypted username/token values in the old cookie scheme; the
// rest are cleanup-only alternates that may linger from even older builds.
var legacyKeySuffixes = []string{
	"Username",
	"Token",
	"AccessToken",
	"Auth",
	"Credentials",
	"_username",
	"_token",
}

// storedCredential is the JSON wire form of a credential inside an
// encrypted blob.
type storedCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Vault owns the master key lifecycle and the encrypted credential entries,
// one per provider domain. Reads are safe concurrently; writes to the store
// are serialized.
type Vault struct {
	store Store
	mu    sync.Mutex
	aead  cipher.AEAD
}

// New creates a vault over the given store. The vault is unusable until
// EnsureEncryption has run.
func New(store Store) *Vault {
	return &Vault{store: store}
}

// EnsureEncryption transitions the vault to Ready: it loads the persisted
// master key, or generates and persists 32 fresh random bytes, then derives
// the AEAD used by every encrypt/decrypt. Idempotent.
func (v *Vault) EnsureEncryption() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.aead != nil {
		return nil
	}

	encoded, ok, err := v.store.Get(masterKeyName)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}

	var key []byte
	if ok {
		key, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("failed to decode master key: %w", err)
		}
	} else {
		key = make([]byte, keySize)
		if _, err = rand.Read(key); err != nil {
			return fmt.Errorf("failed to generate master key: %w", err)
		}
		if err = v.store.Set(masterKeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
			return fmt.Errorf("failed to persist master key: %w", err)
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create AEAD: %w", err)
	}

	v.aead = aead
	return nil
}

// Encrypt authenticated-encrypts text under a fresh 12-byte nonce and
// returns base64(nonce || ciphertext || tag). The nonce is never reused.
func (v *Vault) Encrypt(text string) (string, error) {
	if v.aead == nil {
		return "", ErrNotInitialized
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt splits the decoded blob into the 12-byte nonce and the remainder
// and opens it. Any authentication failure surfaces as ErrDecrypt.
func (v *Vault) Decrypt(blob string) (string, error) {
	if v.aead == nil {
		return "", ErrNotInitialized
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecrypt)
	}
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}

	plain, err := v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plain), nil
}

// Save JSON-encodes the credential, encrypts it, and stores it under the
// domain key. One encrypted blob per domain.
func (v *Vault) Save(domainKey string, cred domain.Credential) error {
	if v.aead == nil {
		return ErrNotInitialized
	}

	payload, err := json.Marshal(storedCredential{
		Username: cred.Username,
		Password: cred.Secret,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	blob, err := v.Encrypt(string(payload))
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err = v.store.Set(domainKey, blob); err != nil {
		return fmt.Errorf("failed to store credential for %q: %w", domainKey, err)
	}
	return nil
}

// Remove deletes the credential stored under the domain key. Idempotent.
func (v *Vault) Remove(domainKey string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Delete(domainKey)
}

// Lookup reads the credential for a domain. When no domain-keyed entry
// exists it attempts a one-way migration from the legacy per-provider
// cookie names: a successful legacy decrypt is re-encrypted under the
// domain key and every legacy key is deleted; a failed legacy decrypt
// deletes the stale keys and reports no credential. A corrupt domain-keyed
// blob is deleted so it cannot wedge future attempts.
func (v *Vault) Lookup(domainKey, providerName string) (*domain.Credential, error) {
	if v.aead == nil {
		return nil, ErrNotInitialized
	}

	blob, ok, err := v.store.Get(domainKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential for %q: %w", domainKey, err)
	}
	if ok {
		plain, decErr := v.Decrypt(blob)
		if decErr != nil {
			logger.Warnf("Removing corrupt credential entry for %q: %v", domainKey, decErr)
			_ = v.Remove(domainKey)
			return nil, nil
		}

		var stored storedCredential
		if jsonErr := json.Unmarshal([]byte(plain), &stored); jsonErr != nil {
			logger.Warnf("Removing malformed credential entry for %q: %v", domainKey, jsonErr)
			_ = v.Remove(domainKey)
			return nil, nil
		}
		return &domain.Credential{Username: stored.Username, Secret: stored.Password}, nil
	}

	return v.migrateLegacy(domainKey, providerName)
}

// migrateLegacy recovers a credential from the old ${provider}Username /
// ${provider}Token entries, then removes every legacy key regardless of the
// outcome.
func (v *Vault) migrateLegacy(domainKey, providerName string) (*domain.Credential, error) {
	userBlob, userOK, err := v.store.Get(providerName + "Username")
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy username for %q: %w", providerName, err)
	}
	tokenBlob, tokenOK, err := v.store.Get(providerName + "Token")
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy token for %q: %w", providerName, err)
	}

	if !userOK || !tokenOK {
		v.deleteLegacyKeys(providerName)
		return nil, nil
	}

	username, userErr := v.Decrypt(userBlob)
	secret, tokenErr := v.Decrypt(tokenBlob)
	if userErr != nil || tokenErr != nil {
		logger.Warnf("Discarding undecryptable legacy credentials for %q", providerName)
		v.deleteLegacyKeys(providerName)
		return nil, nil
	}

	cred := domain.Credential{Username: username, Secret: secret}
	if err = v.Save(domainKey, cred); err != nil {
		return nil, err
	}
	v.deleteLegacyKeys(providerName)

	logger.Infof("Migrated legacy credentials for %q to domain key %q", providerName, domainKey)
	return &cred, nil
}

func (v *Vault) deleteLegacyKeys(providerName string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, suffix := range legacyKeySuffixes {
		_ = v.store.Delete(providerName + suffix)
	}
}
