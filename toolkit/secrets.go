package toolkit

import "os"

// SecretSource reads a named secret. The only implementation shipped here
// reads process environment variables; keeping the seam explicit lets a
// secret-store lookup replace it without touching call sites.
type SecretSource interface {
	Lookup(name string) (string, bool)
}

// EnvSecretSource resolves secrets from environment variables.
type EnvSecretSource struct{}

func (EnvSecretSource) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapSecretSource resolves secrets from a fixed map. Test use mostly.
type MapSecretSource map[string]string

func (m MapSecretSource) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
