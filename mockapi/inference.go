package mockapi

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type modelInfo struct {
	ID     string
	Vision bool
	Embed  bool
	Image  bool
}

// catalog lists the models the platform serves. Vision input is only valid
// on models flagged for it.
var catalog = []modelInfo{
	{ID: "gs-text-small"},
	{ID: "gs-text-large"},
	{ID: "gs-vision-8b", Vision: true},
	{ID: "gs-embed-v2", Embed: true},
	{ID: "gs-diffusion-xl", Image: true},
}

func lookupModel(id string) (modelInfo, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return modelInfo{}, false
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or content-part array
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	model, ok := lookupModel(req.Model)
	if !ok {
		writeError(w, http.StatusNotFound, "model_not_found", fmt.Sprintf("model %q does not exist", req.Model))
		return
	}
	if model.Embed || model.Image {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("model %q does not support chat completions", req.Model))
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "messages must not be empty")
		return
	}
	if req.MaxTokens < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "max_tokens must not be negative")
		return
	}
	if hasImageContent(req.Messages) && !model.Vision {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("model %q does not accept image input", req.Model))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      "chatcmpl-" + uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []any{
			map[string]any{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "This is a mock completion.",
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     7,
			"completion_tokens": 6,
			"total_tokens":      13,
		},
	})
}

func hasImageContent(messages []chatMessage) bool {
	for _, m := range messages {
		parts, ok := m.Content.([]any)
		if !ok {
			continue
		}
		for _, p := range parts {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if part["type"] == "image_url" {
				return true
			}
		}
	}
	return false
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or string array
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	model, ok := lookupModel(req.Model)
	if !ok {
		writeError(w, http.StatusNotFound, "model_not_found", fmt.Sprintf("model %q does not exist", req.Model))
		return
	}
	if !model.Embed {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("model %q is not an embedding model", req.Model))
		return
	}

	inputs := 1
	if list, ok := req.Input.([]any); ok {
		inputs = len(list)
	}
	if req.Input == nil || inputs == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "input is required")
		return
	}

	data := make([]any, 0, inputs)
	for i := 0; i < inputs; i++ {
		data = append(data, map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": []float64{0.01, -0.02, 0.03, -0.04, 0.05, -0.06, 0.07, -0.08},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"model":  req.Model,
		"data":   data,
		"usage": map[string]any{
			"prompt_tokens": 4 * inputs,
			"total_tokens":  4 * inputs,
		},
	})
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

var allowedImageSizes = map[string]bool{
	"":          true, // defaults to 1024x1024
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
}

func (s *Server) handleImageGenerations(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "prompt is required")
		return
	}
	if req.Model != "" {
		model, ok := lookupModel(req.Model)
		if !ok {
			writeError(w, http.StatusNotFound, "model_not_found", fmt.Sprintf("model %q does not exist", req.Model))
			return
		}
		if !model.Image {
			writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("model %q cannot generate images", req.Model))
			return
		}
	}
	if !allowedImageSizes[req.Size] {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("size %q is not supported", req.Size))
		return
	}

	n := req.N
	if n <= 0 {
		n = 1
	}
	data := make([]any, 0, n)
	for i := 0; i < n; i++ {
		data = append(data, map[string]any{
			"b64_json": base64.StdEncoding.EncodeToString([]byte("mock-image-bytes")),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"created": time.Now().Unix(),
		"data":    data,
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	data := make([]any, 0, len(catalog))
	for _, m := range catalog {
		data = append(data, map[string]any{
			"id":       m.ID,
			"object":   "model",
			"owned_by": "gridserve",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}
