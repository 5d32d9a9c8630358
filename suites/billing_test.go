package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
)

var _ = Describe("Billing", func() {
	Context("When reading the credit balance", func() {
		It("returns the current balance", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodGet, "/v1/billing/credits", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["object"]).To(Equal("credit_balance"))
			Expect(resp["credits"]).To(BeNumerically(">=", 0))
			Expect(resp["currency"]).To(Equal("usd"))
		})
	})

	Context("When creating checkout sessions", func() {
		It("creates a session for a valid top-up", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout",
				map[string]any{"amount": 50.0, "currency": "usd"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusCreated))
			Expect(resp["object"]).To(Equal("checkout.session"))
			Expect(resp["id"]).To(HavePrefix("cs_"))
			Expect(resp["status"]).To(Equal("open"))
			Expect(resp["url"]).NotTo(BeEmpty())
		})

		It("applies a valid promo code to the session", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout",
				map[string]any{"amount": 100.0, "promo_code": "TEAM25"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusCreated))
			Expect(resp["percent_off"]).To(BeNumerically("==", 25))
		})

		It("rejects a non-positive amount", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout",
				map[string]any{"amount": 0}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects an expired promo code", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout",
				map[string]any{"amount": 20.0, "promo_code": "LAUNCH50"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))

			detail, ok := resp["error"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(detail["type"]).To(Equal("promo_expired"))
		})

		It("replays the same session for a repeated idempotency key", func() {
			// Given: two identical checkout requests sharing one key
			// Then: the second answers 200 with the first session, not a new one
			key := uuid.NewString()
			headers := map[string]string{"X-Idempotency-Key": key}
			body := map[string]any{"amount": 10.0}

			first, resp1, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout", body, headers)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(http.StatusCreated))

			second, resp2, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/checkout", body, headers)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(http.StatusOK))
			Expect(resp2["id"]).To(Equal(resp1["id"]))
		})
	})

	Context("When validating promo codes", func() {
		It("reports percent-off for a live code", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/promo/apply",
				map[string]any{"code": "WELCOME10"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["valid"]).To(Equal(true))
			Expect(resp["percent_off"]).To(BeNumerically("==", 10))
		})

		It("answers 410 for an expired code", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/promo/apply",
				map[string]any{"code": "LAUNCH50"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusGone))
		})

		It("answers 404 for an unknown code", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/promo/apply",
				map[string]any{"code": "NOPE99"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Context("When managing payment methods", func() {
		cardBody := func(number string) map[string]any {
			return map[string]any{
				"type": "card",
				"card": map[string]any{"number": number, "exp_month": 12, "exp_year": 2030},
			}
		}

		It("adds, lists and removes a card", func() {
			status, added, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/payment-methods",
				cardBody("4242424242424242"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusCreated))
			Expect(added["id"]).To(HavePrefix("pm_"))
			Expect(added["last4"]).To(Equal("4242"))

			id := added["id"].(string)

			status, listed, err := client.DoJSON(ctx, http.MethodGet, "/v1/billing/payment-methods", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(listed["data"]).NotTo(BeEmpty())

			status, _, err = client.Do(ctx, http.MethodDelete, "/v1/billing/payment-methods/"+id, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNoContent))

			status, _, err = client.Do(ctx, http.MethodDelete, "/v1/billing/payment-methods/"+id, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("rejects an invalid card number", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/payment-methods",
				cardBody("1234"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects unsupported payment method types", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/billing/payment-methods",
				map[string]any{"type": "wire"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})
})
