package suites

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"infercheck/toolkit"
)

var _ = Describe("Authentication", func() {
	Context("When credentials are missing or wrong", func() {
		It("rejects requests without an Authorization header", func() {
			// an empty header value strips the resolved credential
			status, resp, err := client.DoJSON(ctx, http.MethodGet, "/v1/models", nil,
				map[string]string{"Authorization": ""})
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(resp).To(HaveKey("error"))
		})

		It("rejects requests with a bogus bearer token", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodGet, "/v1/models", nil,
				map[string]string{"Authorization": "Bearer not-a-real-key"})
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(resp).To(HaveKey("error"))
		})

		It("rejects a malformed Authorization scheme", func() {
			status, _, err := client.DoJSON(ctx, http.MethodGet, "/v1/models", nil,
				map[string]string{"Authorization": "Basic abc123"})
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
		})
	})

	Context("When minting API keys", func() {
		It("mints a key that can authenticate further requests", func() {
			// Given: a resolved environment with a key-generation URL
			// When: I request a fresh key under a label
			// Then: the minted key carries the label and authenticates
			generated, err := toolkit.GenerateKey(ctx, auth, 10*time.Second, "conformance-suite", zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(generated.Key).NotTo(BeEmpty())

			if generated.Info != nil {
				Expect(generated.Info.Subject).To(Equal("conformance-suite"))
				Expect(generated.Info.Expired).To(BeFalse())
			}

			status, resp, err := client.DoJSON(ctx, http.MethodGet, "/v1/models", nil,
				map[string]string{"Authorization": "Bearer " + generated.Key})
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["object"]).To(Equal("list"))
		})
	})
})
