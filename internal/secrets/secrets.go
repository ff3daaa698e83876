package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrNotFound is returned when a provider has no usable credential. Adapters
// surface it as an auth failure scoped to that provider only.
var ErrNotFound = errors.New("credential not found")

// Credential carries whatever a provider's auth scheme needs. Unused fields
// stay empty.
type Credential struct {
	Username string
	Password string
	AgencyID string
	APIKey   string
}

// Source is a read-only credential collaborator.
type Source interface {
	Credential(providerID string) (Credential, error)
}

// EnvSource reads credentials from PROVIDER_<NAME>_{USERNAME,PASSWORD,
// AGENCY_ID,API_KEY} environment variables, caching lookups.
type EnvSource struct {
	mu    sync.RWMutex
	cache map[string]Credential
}

func NewEnvSource() *EnvSource {
	return &EnvSource{cache: make(map[string]Credential)}
}

func (s *EnvSource) Credential(providerID string) (Credential, error) {
	s.mu.RLock()
	if c, ok := s.cache[providerID]; ok {
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	prefix := "PROVIDER_" + strings.ToUpper(providerID) + "_"
	c := Credential{
		Username: os.Getenv(prefix + "USERNAME"),
		Password: os.Getenv(prefix + "PASSWORD"),
		AgencyID: os.Getenv(prefix + "AGENCY_ID"),
		APIKey:   os.Getenv(prefix + "API_KEY"),
	}
	if c.Username == "" && c.Password == "" && c.AgencyID == "" && c.APIKey == "" {
		return Credential{}, fmt.Errorf("%w for provider %s", ErrNotFound, providerID)
	}

	s.mu.Lock()
	s.cache[providerID] = c
	s.mu.Unlock()
	return c, nil
}

// StaticSource serves fixed credentials, used in tests.
type StaticSource map[string]Credential

func (s StaticSource) Credential(providerID string) (Credential, error) {
	c, ok := s[providerID]
	if !ok {
		return Credential{}, fmt.Errorf("%w for provider %s", ErrNotFound, providerID)
	}
	return c, nil
}
