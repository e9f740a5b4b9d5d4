package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"server/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAICompleteParsesUsage(t *testing.T) {
	var captured openAIChatRequest
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		Model:  "gpt-4o-mini",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(r.Body)
			if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&captured); err != nil {
				t.Fatalf("decode captured request: %v", err)
			}
			return jsonResponse(http.StatusOK, `{
				"choices": [{"message": {"content": "## Market Analysis\nSteady growth."}}],
				"usage": {"prompt_tokens": 120, "completion_tokens": 480, "total_tokens": 600}
			}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	res, err := client.Complete(context.Background(), Request{Instruction: "write the market analysis", Temperature: 0.4, MaxTokens: 2048})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.Usage.PromptTokens != 120 || res.Usage.CompletionTokens != 480 || res.Usage.TotalTokens != 600 {
		t.Fatalf("usage = %+v", res.Usage)
	}
	if !strings.Contains(res.Content, "Market Analysis") {
		t.Fatalf("content = %q", res.Content)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("request model = %q", captured.Model)
	}
	if captured.MaxTokens != 2048 {
		t.Fatalf("request max_tokens = %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[1].Content != "write the market analysis" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
}

func TestOpenAICompleteWrapsProviderFailure(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusServiceUnavailable, `{"error": {"message": "overloaded", "type": "server_error"}}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{Instruction: "anything"})
	if err == nil {
		t.Fatal("Complete returned nil, want error")
	}
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error %v does not wrap ErrProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("error %v missing api message", err)
	}
}

func TestOpenAICompleteRejectsEmptyContent(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices": [{"message": {"content": "  "}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Instruction: "anything"}); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want wrapped ErrProviderFailure", err)
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		input  string
		model  string
		reason string
	}{
		{"empty defaults silently", "", defaultOpenAIModel, ""},
		{"canonical passes through", "gpt-4o-mini", "gpt-4o-mini", ""},
		{"alias resolves", "gpt4omini", "gpt-4o-mini", "alias"},
		{"unknown defaults", "gpt-9-ultra", defaultOpenAIModel, "defaulted"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model, reason := normalizeOpenAIModel(tc.input)
			if model != tc.model {
				t.Fatalf("model = %q, want %q", model, tc.model)
			}
			if reason != tc.reason {
				t.Fatalf("reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}
