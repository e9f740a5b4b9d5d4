package patents

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"server/internal/providers/llm"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type stubLLM struct {
	content string
	err     error
}

func (s stubLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content}, nil
}

func (s stubLLM) Model() string { return "stub" }

func jsonBody(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSearchParsesRecords(t *testing.T) {
	var queried string
	client := NewClient(Options{
		APIKey: "dummy",
		Limit:  5,
		LLM:    stubLLM{content: "solid state battery drone"},
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			queried = r.URL.Query().Get("q")
			if r.URL.Query().Get("engine") != "google_patents" {
				t.Fatalf("engine = %q", r.URL.Query().Get("engine"))
			}
			return jsonBody(http.StatusOK, `{
				"organic_results": [
					{"publication_number": "US1234567B2", "title": "Solid state cell", "assignee": "Acme Energy", "inventor": "J. Doe", "grant_status": "granted", "grant_date": "2021-04-10", "patent_link": "https://patents.example/US1234567B2"},
					{"patent_id": "US7654321A1", "title": "Drone power module", "filing_date": "2023-01-02"},
					{"title": "missing identifier, skipped"}
				]
			}`), nil
		})},
	})

	records := client.Search(context.Background(), "a solid state battery pack for consumer drones")
	if queried != "solid state battery drone" {
		t.Fatalf("derived query = %q", queried)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].PublicationNumber != "US1234567B2" || records[0].Assignee != "Acme Energy" {
		t.Fatalf("record[0] = %+v", records[0])
	}
	if records[1].Status != "pending" || records[1].Date != "2023-01-02" {
		t.Fatalf("record[1] = %+v", records[1])
	}
}

func TestSearchSwallowsBackendErrors(t *testing.T) {
	cases := []struct {
		name      string
		transport roundTripFunc
	}{
		{"network error", func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		}},
		{"error status", func(r *http.Request) (*http.Response, error) {
			return jsonBody(http.StatusTooManyRequests, `{"error": "rate limited"}`), nil
		}},
		{"malformed body", func(r *http.Request) (*http.Response, error) {
			return jsonBody(http.StatusOK, `{"organic_results": "not-a-list"`), nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(Options{
				APIKey:     "dummy",
				LLM:        stubLLM{content: "query"},
				HTTPClient: &http.Client{Transport: tc.transport},
			})
			if records := client.Search(context.Background(), "any idea at all"); records != nil {
				t.Fatalf("records = %+v, want nil", records)
			}
		})
	}
}

func TestSearchSkipsWithoutAPIKey(t *testing.T) {
	client := NewClient(Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatal("no request expected without api key")
			return nil, nil
		})},
	})
	if records := client.Search(context.Background(), "any idea at all"); records != nil {
		t.Fatalf("records = %+v, want nil", records)
	}
}

func TestDeriveQueryFallsBackToIdea(t *testing.T) {
	client := NewClient(Options{APIKey: "dummy", LLM: stubLLM{err: errors.New("backend down")}})
	query := client.deriveQuery(context.Background(), "  a compostable casing for drones  ")
	if query != "a compostable casing for drones" {
		t.Fatalf("query = %q", query)
	}
}
