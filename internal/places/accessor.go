package places

import (
	"os"
	"strings"
	"sync"
)

// Factory builds a Searcher for the given API key.
type Factory func(apiKey string) (Searcher, error)

// Accessor hands out a single provider client, created on first use from the credential
// found in the environment. It is safe for concurrent use.
type Accessor struct {
	envKey    string
	factory   Factory
	lookupEnv func(string) (string, bool)

	mu     sync.Mutex
	client Searcher
}

// NewAccessor constructs an accessor reading envKey (CredentialEnv when empty).
func NewAccessor(envKey string, factory Factory) *Accessor {
	if envKey == "" {
		envKey = CredentialEnv
	}
	return &Accessor{envKey: envKey, factory: factory, lookupEnv: os.LookupEnv}
}

// Client returns the cached client, building it on the first successful call.
// A missing credential yields a *ConfigurationError and leaves the accessor uninitialised.
func (a *Accessor) Client() (Searcher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	apiKey, ok := a.lookupEnv(a.envKey)
	if !ok || strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{Key: a.envKey}
	}

	client, err := a.factory(apiKey)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}
