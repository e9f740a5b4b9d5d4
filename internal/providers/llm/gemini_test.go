package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"server/internal/domain"
)

func TestGeminiCompleteParsesUsageMetadata(t *testing.T) {
	client, err := NewGeminiClient(GeminiOptions{
		APIKey: "dummy",
		Model:  "gemini-1.5-flash",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if !strings.Contains(r.URL.Path, "gemini-1.5-flash:generateContent") {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "dummy" {
				t.Fatal("api key header missing")
			}
			return jsonResponse(http.StatusOK, `{
				"candidates": [{"content": {"role": "model", "parts": [{"text": "## Risk Assessment\n"}, {"text": "Low."}]}}],
				"usageMetadata": {"promptTokenCount": 90, "candidatesTokenCount": 310, "totalTokenCount": 400}
			}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient returned error: %v", err)
	}
	res, err := client.Complete(context.Background(), Request{Instruction: "write the risk assessment", Temperature: 0.4})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.Usage.PromptTokens != 90 || res.Usage.CompletionTokens != 310 || res.Usage.TotalTokens != 400 {
		t.Fatalf("usage = %+v", res.Usage)
	}
	if !strings.Contains(res.Content, "Risk Assessment") || !strings.Contains(res.Content, "Low.") {
		t.Fatalf("content = %q", res.Content)
	}
}

func TestGeminiCompleteWrapsProviderFailure(t *testing.T) {
	client, err := NewGeminiClient(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Instruction: "anything"}); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want wrapped ErrProviderFailure", err)
	}
}

func TestGeminiCompleteRejectsNoCandidates(t *testing.T) {
	client, err := NewGeminiClient(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates": []}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Instruction: "anything"}); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want wrapped ErrProviderFailure", err)
	}
}
