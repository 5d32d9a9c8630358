package mockapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type generateKeyRequest struct {
	Label string `json:"label"`
}

// handleGenerateKey mints a JWT-shaped API key. Minted keys authenticate
// against this server for as long as they are unexpired.
func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req generateKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	label := req.Label
	if label == "" {
		label = "unnamed"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": label,
		"iat": now.Unix(),
		"exp": now.Add(30 * 24 * time.Hour).Unix(),
		"iss": "gridserve-mock",
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to sign key")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"object": "api_key",
		"key":    signed,
		"label":  label,
	})
}

func (s *Server) validMintedKey(token string) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.signingKey, nil
	})
	return err == nil && parsed.Valid
}
