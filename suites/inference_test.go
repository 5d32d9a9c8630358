package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func chatBody(model, content string) map[string]any {
	return map[string]any{
		"model": model,
		"messages": []any{
			map[string]any{"role": "user", "content": content},
		},
	}
}

var _ = Describe("Text Generation", func() {
	Context("When requesting chat completions", func() {
		It("returns a completion for a valid request", func() {
			// Given: a known text model and a non-empty message list
			// When: I POST to /v1/chat/completions
			// Then: the platform answers 200 with a completion envelope
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				chatBody("gs-text-small", "Say hello."), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["object"]).To(Equal("chat.completion"))
			Expect(resp["model"]).To(Equal("gs-text-small"))

			choices, ok := resp["choices"].([]any)
			Expect(ok).To(BeTrue())
			Expect(choices).NotTo(BeEmpty())

			usage, ok := resp["usage"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(usage["total_tokens"]).To(BeNumerically(">", 0))
		})

		It("rejects an unknown model with 404", func() {
			// Given: a model name the catalog does not carry
			// Then: the platform answers 404 with an error envelope
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				chatBody("gs-nonexistent", "hi"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(resp).To(HaveKey("error"))
		})

		It("rejects a request without a model", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				map[string]any{"messages": []any{map[string]any{"role": "user", "content": "hi"}}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects an empty message list", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				map[string]any{"model": "gs-text-small", "messages": []any{}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Context("When sending image content", func() {
		imageMessage := []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "What is in this picture?"},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": "https://example.com/cat.png"}},
				},
			},
		}

		It("accepts image parts on a vision model", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				map[string]any{"model": "gs-vision-8b", "messages": imageMessage}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["object"]).To(Equal("chat.completion"))
		})

		It("rejects image parts on a text-only model", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/chat/completions",
				map[string]any{"model": "gs-text-small", "messages": imageMessage}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKey("error"))
		})
	})
})

var _ = Describe("Embeddings", func() {
	Context("When requesting embeddings", func() {
		It("returns one vector per input", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/embeddings",
				map[string]any{"model": "gs-embed-v2", "input": []any{"alpha", "beta"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp["object"]).To(Equal("list"))

			data, ok := resp["data"].([]any)
			Expect(ok).To(BeTrue())
			Expect(data).To(HaveLen(2))

			first, ok := data[0].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(first["object"]).To(Equal("embedding"))
			Expect(first["embedding"]).NotTo(BeEmpty())
		})

		It("rejects a non-embedding model", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/embeddings",
				map[string]any{"model": "gs-text-small", "input": []any{"alpha"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("Image Generation", func() {
	Context("When generating images", func() {
		It("returns the requested number of images", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/images/generations",
				map[string]any{"model": "gs-diffusion-xl", "prompt": "a lighthouse at dusk", "n": 2, "size": "512x512"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))

			data, ok := resp["data"].([]any)
			Expect(ok).To(BeTrue())
			Expect(data).To(HaveLen(2))
		})

		It("rejects a missing prompt", func() {
			status, _, err := client.DoJSON(ctx, http.MethodPost, "/v1/images/generations",
				map[string]any{"model": "gs-diffusion-xl"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unsupported size", func() {
			status, resp, err := client.DoJSON(ctx, http.MethodPost, "/v1/images/generations",
				map[string]any{"model": "gs-diffusion-xl", "prompt": "x", "size": "42x42"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKey("error"))
		})
	})
})

var _ = Describe("Model Catalog", func() {
	It("lists the available models", func() {
		status, resp, err := client.DoJSON(ctx, http.MethodGet, "/v1/models", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(resp["object"]).To(Equal("list"))

		data, ok := resp["data"].([]any)
		Expect(ok).To(BeTrue())
		Expect(data).NotTo(BeEmpty())
	})
})
