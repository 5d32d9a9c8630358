package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// promoCodes maps known codes to percent-off. Expired codes are tracked
// separately so they fail with a distinct message.
var promoCodes = map[string]int{
	"WELCOME10": 10,
	"TEAM25":    25,
}

var expiredPromoCodes = map[string]bool{
	"LAUNCH50": true,
}

type paymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Last4 string `json:"last4"`
}

type checkoutSession struct {
	ID         string  `json:"id"`
	Object     string  `json:"object"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	PercentOff int     `json:"percent_off"`
	Status     string  `json:"status"`
	URL        string  `json:"url"`
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	credits := s.credits
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"object":   "credit_balance",
		"credits":  credits,
		"currency": "usd",
	})
}

type checkoutRequest struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	PromoCode string  `json:"promo_code"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "amount must be positive")
		return
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}
	if currency != "usd" && currency != "eur" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "unsupported currency")
		return
	}

	percentOff := 0
	if req.PromoCode != "" {
		if expiredPromoCodes[req.PromoCode] {
			writeError(w, http.StatusBadRequest, "promo_expired", "promo code has expired")
			return
		}
		var ok bool
		percentOff, ok = promoCodes[req.PromoCode]
		if !ok {
			writeError(w, http.StatusBadRequest, "promo_invalid", "unknown promo code")
			return
		}
	}

	idempotencyKey := r.Header.Get("X-Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if existing, ok := s.checkouts[idempotencyKey]; ok {
			writeJSON(w, http.StatusOK, existing)
			return
		}
	}

	session := checkoutSession{
		ID:         "cs_" + uuid.NewString(),
		Object:     "checkout.session",
		Amount:     req.Amount,
		Currency:   currency,
		PercentOff: percentOff,
		Status:     "open",
		URL:        "https://billing.gridserve.io/checkout/" + uuid.NewString(),
	}
	if idempotencyKey != "" {
		s.checkouts[idempotencyKey] = session
	}

	writeJSON(w, http.StatusCreated, session)
}

type promoApplyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handlePromoApply(w http.ResponseWriter, r *http.Request) {
	var req promoApplyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "code is required")
		return
	}
	if expiredPromoCodes[req.Code] {
		writeError(w, http.StatusGone, "promo_expired", "promo code has expired")
		return
	}
	percentOff, ok := promoCodes[req.Code]
	if !ok {
		writeError(w, http.StatusNotFound, "promo_invalid", "unknown promo code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code":        req.Code,
		"percent_off": percentOff,
		"valid":       true,
	})
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := make([]any, 0, len(s.paymentMethods))
	for _, pm := range s.paymentMethods {
		data = append(data, pm)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

type addPaymentMethodRequest struct {
	Type string `json:"type"`
	Card struct {
		Number   string `json:"number"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	} `json:"card"`
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req addPaymentMethodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type != "card" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "only card payment methods are supported")
		return
	}
	number := strings.ReplaceAll(req.Card.Number, " ", "")
	if len(number) < 12 || len(number) > 19 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "card number length is invalid")
		return
	}
	if req.Card.ExpMonth < 1 || req.Card.ExpMonth > 12 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "exp_month must be 1-12")
		return
	}

	pm := paymentMethod{
		ID:    "pm_" + uuid.NewString(),
		Type:  "card",
		Last4: number[len(number)-4:],
	}

	s.mu.Lock()
	s.paymentMethods[pm.ID] = pm
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, pm)
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.paymentMethods[id]
	if ok {
		delete(s.paymentMethods, id)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such payment method")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
