package toolkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// GeneratedKey is the result of a key-generation call. Info is populated
// when the minted key is JWT-shaped.
type GeneratedKey struct {
	Key  string
	Info *KeyInfo
}

// KeyInfo is the subset of claims surfaced from a JWT-shaped API key. The
// signature is never verified here; the platform owns the signing secret and
// we only report what the token says about itself.
type KeyInfo struct {
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}

// GenerateKey mints a fresh API key via the environment's key-generation
// endpoint, authenticating with the already-resolved key.
func GenerateKey(ctx context.Context, auth *AuthContext, timeout time.Duration, label string, logger *zap.Logger) (GeneratedKey, error) {
	target := auth.Environment.KeyGenerateURL
	if target == "" {
		return GeneratedKey{}, fmt.Errorf("environment %q has no key_generate_url", auth.Environment.Name)
	}

	payload, err := json.Marshal(map[string]string{"label": label})
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("marshal keygen payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("build keygen request: %w", err)
	}
	for k, v := range auth.Headers(nil) {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("keygen request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("read keygen response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return GeneratedKey{}, fmt.Errorf("keygen failed with status=%d body=%s", resp.StatusCode, truncate(raw, 300))
	}

	var body struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return GeneratedKey{}, fmt.Errorf("decode keygen response: %w", err)
	}
	if strings.TrimSpace(body.Key) == "" {
		return GeneratedKey{}, fmt.Errorf("keygen response contains no key")
	}

	out := GeneratedKey{Key: body.Key}
	if info, ok := InspectKey(body.Key); ok {
		out.Info = &info
		logger.Info("key generated",
			zap.String("environment", auth.Environment.Name),
			zap.String("subject", info.Subject),
			zap.Time("expires_at", info.ExpiresAt))
	} else {
		logger.Info("key generated", zap.String("environment", auth.Environment.Name))
	}
	return out, nil
}

// InspectKey parses a JWT-shaped API key without verifying its signature
// and reports subject and expiry. Returns false for opaque keys.
func InspectKey(key string) (KeyInfo, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(key, jwt.MapClaims{})
	if err != nil {
		return KeyInfo{}, false
	}

	var info KeyInfo
	if sub, err := token.Claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
		info.Expired = exp.Time.Before(time.Now())
	}
	return info, true
}

func truncate(raw []byte, maxLen int) string {
	if len(raw) <= maxLen {
		return string(raw)
	}
	return string(raw[:maxLen]) + "..."
}
