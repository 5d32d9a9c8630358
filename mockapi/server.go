// Package mockapi is a self-contained stand-in for the inference platform.
// It implements the endpoints the conformance suites exercise with the same
// status codes and response shapes, so suites and unit tests run without a
// live environment.
package mockapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

type Server struct {
	apiKey     string
	signingKey []byte

	mu             sync.Mutex
	credits        float64
	paymentMethods map[string]paymentMethod
	checkouts      map[string]checkoutSession // by idempotency key
}

// New builds a mock platform accepting the given bearer key. Keys minted by
// the key-generation endpoint are also accepted.
func New(apiKey string) *Server {
	return &Server{
		apiKey:         apiKey,
		signingKey:     []byte("mock-signing-key"),
		credits:        42.5,
		paymentMethods: make(map[string]paymentMethod),
		checkouts:      make(map[string]checkoutSession),
	}
}

// Handler wires up the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/v1/chat/completions", s.handleChatCompletions)
		r.Post("/v1/embeddings", s.handleEmbeddings)
		r.Post("/v1/images/generations", s.handleImageGenerations)
		r.Get("/v1/models", s.handleListModels)

		r.Get("/v1/billing/credits", s.handleCredits)
		r.Post("/v1/billing/checkout", s.handleCheckout)
		r.Post("/v1/billing/promo/apply", s.handlePromoApply)
		r.Get("/v1/billing/payment-methods", s.handleListPaymentMethods)
		r.Post("/v1/billing/payment-methods", s.handleAddPaymentMethod)
		r.Delete("/v1/billing/payment-methods/{id}", s.handleDeletePaymentMethod)

		r.Post("/v1/auth/keys", s.handleGenerateKey)
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "authentication_error", "missing bearer token")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "authentication_error", "malformed authorization header")
			return
		}
		if token != s.apiKey && !s.validMintedKey(token) {
			writeError(w, http.StatusUnauthorized, "authentication_error", "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorBody mirrors the platform's error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Message: message, Type: errType}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeBody rejects missing or invalid JSON bodies with a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "request body is not valid JSON")
		return false
	}
	return true
}
