package toolkit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEnvironment is returned when the requested environment name
	// is not present in the profile mapping. Never defaulted silently.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrNoAPIKey is returned when no API key can be resolved from the
	// secret source, neither per-environment nor generic.
	ErrNoAPIKey = errors.New("no api key resolved")
)

// EnvironmentProfile names a deployment target and its URLs.
type EnvironmentProfile struct {
	Name           string `json:"name" yaml:"name"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	KeyGenerateURL string `json:"key_generate_url" yaml:"key_generate_url"`
}

// genericKeyVar is the fallback secret name when no environment-specific
// key variable is set.
const genericKeyVar = "API_KEY"

// BuiltinProfiles returns the known deployment targets. Callers that need
// different URLs inject their own mapping via WithProfiles.
func BuiltinProfiles() map[string]EnvironmentProfile {
	return map[string]EnvironmentProfile{
		"staging": {
			Name:           "staging",
			BaseURL:        "https://api.staging.gridserve.io",
			KeyGenerateURL: "https://api.staging.gridserve.io/v1/auth/keys",
		},
		"production": {
			Name:           "production",
			BaseURL:        "https://api.gridserve.io",
			KeyGenerateURL: "https://api.gridserve.io/v1/auth/keys",
		},
	}
}

// Resolver maps an environment name to an AuthContext: profile URLs from an
// injected (or built-in) mapping, API key from a SecretSource.
type Resolver struct {
	profiles map[string]EnvironmentProfile
	secrets  SecretSource
}

type ResolverOption func(*Resolver)

// WithProfiles replaces the built-in environment mapping for URL lookup.
// API-key resolution still goes through the secret source.
func WithProfiles(profiles map[string]EnvironmentProfile) ResolverOption {
	return func(r *Resolver) {
		if len(profiles) > 0 {
			r.profiles = profiles
		}
	}
}

// WithSecretSource replaces the process-environment secret lookup, e.g. for
// tests or a future secret-store backend.
func WithSecretSource(src SecretSource) ResolverOption {
	return func(r *Resolver) {
		if src != nil {
			r.secrets = src
		}
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		profiles: BuiltinProfiles(),
		secrets:  EnvSecretSource{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the AuthContext for the named environment. The returned
// context always carries a non-empty API key; resolution fails otherwise.
func (r *Resolver) Resolve(env string) (*AuthContext, error) {
	name := strings.ToLower(strings.TrimSpace(env))
	profile, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}

	key := r.lookupKey(name)
	if key == "" {
		return nil, fmt.Errorf("%w for environment %q (set %s or %s)",
			ErrNoAPIKey, name, keyVarFor(name), genericKeyVar)
	}

	return &AuthContext{Environment: profile, APIKey: key}, nil
}

func (r *Resolver) lookupKey(env string) string {
	if key, ok := r.secrets.Lookup(keyVarFor(env)); ok && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	if key, ok := r.secrets.Lookup(genericKeyVar); ok && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

func keyVarFor(env string) string {
	return strings.ToUpper(env) + "_API_KEY"
}

// AuthContext is the resolved credentials for one test run. Owned by the
// run that created it; not mutated after construction.
type AuthContext struct {
	Environment EnvironmentProfile
	APIKey      string
}

// Headers builds the authenticated header set. Caller-supplied extras are
// merged last and win on conflict.
func (a *AuthContext) Headers(extra map[string]string) map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "application/json",
		"Authorization": "Bearer " + a.APIKey,
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}
