package patents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/providers/llm"
)

// Record is one patent fact as returned by the structured search backend.
type Record struct {
	PublicationNumber string `json:"publication_number"`
	Title             string `json:"title"`
	Assignee          string `json:"assignee"`
	Inventor          string `json:"inventor"`
	Status            string `json:"status"`
	Date              string `json:"date"`
	Link              string `json:"link"`
}

type Options struct {
	APIKey     string
	BaseURL    string
	Limit      int
	HTTPClient *http.Client
	LLM        llm.Client
	Logger     zerolog.Logger
}

// Client retrieves patent records related to an idea. Enrichment is strictly
// best effort: every failure degrades to an empty result set and is only
// logged, never surfaced to the pipeline.
type Client struct {
	apiKey  string
	baseURL string
	limit   int
	client  *http.Client
	llm     llm.Client
	logger  zerolog.Logger
}

const (
	patentsDefaultTimeout = 20 * time.Second
	defaultResultLimit    = 8
	maxQueryRunes         = 120
)

type searchResponse struct {
	OrganicResults []struct {
		PublicationNumber string `json:"publication_number"`
		PatentID          string `json:"patent_id"`
		Title             string `json:"title"`
		Assignee          string `json:"assignee"`
		Inventor          string `json:"inventor"`
		GrantStatus       string `json:"grant_status"`
		FilingDate        string `json:"filing_date"`
		GrantDate         string `json:"grant_date"`
		PatentLink        string `json:"patent_link"`
	} `json:"organic_results"`
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: patentsDefaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultResultLimit
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		limit:   limit,
		client:  client,
		llm:     opts.LLM,
		logger:  opts.Logger,
	}
}

// Search derives a compact query from the idea and fetches related patent
// records. It returns nil on any failure.
func (c *Client) Search(ctx context.Context, topic string) []Record {
	if c.apiKey == "" {
		c.logger.Debug().Msg("patents: api key missing, skipping enrichment")
		return nil
	}
	query := c.deriveQuery(ctx, topic)
	if query == "" {
		return nil
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		c.logger.Warn().Err(err).Msg("patents: invalid base url")
		return nil
	}
	q := endpoint.Query()
	q.Set("engine", "google_patents")
	q.Set("q", query)
	q.Set("num", strconv.Itoa(c.limit))
	q.Set("api_key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("patents: build request failed")
		return nil
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("patents: search request failed")
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("patents: search returned error status")
		return nil
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn().Err(err).Msg("patents: malformed search response")
		return nil
	}

	records := make([]Record, 0, len(out.OrganicResults))
	for _, item := range out.OrganicResults {
		number := firstNonEmpty(item.PublicationNumber, item.PatentID)
		if number == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}
		status := item.GrantStatus
		date := firstNonEmpty(item.GrantDate, item.FilingDate)
		if status == "" {
			if item.GrantDate != "" {
				status = "granted"
			} else {
				status = "pending"
			}
		}
		records = append(records, Record{
			PublicationNumber: number,
			Title:             strings.TrimSpace(item.Title),
			Assignee:          strings.TrimSpace(item.Assignee),
			Inventor:          strings.TrimSpace(item.Inventor),
			Status:            status,
			Date:              date,
			Link:              item.PatentLink,
		})
		if len(records) >= c.limit {
			break
		}
	}
	c.logger.Debug().Str("query", query).Int("records", len(records)).Msg("patents: enrichment fetched")
	return records
}

// deriveQuery asks the generative backend for a short keyword query. On any
// failure it falls back to a truncated form of the raw idea.
func (c *Client) deriveQuery(ctx context.Context, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	fallback := truncateRunes(topic, maxQueryRunes)
	if c.llm == nil {
		return fallback
	}
	instruction := fmt.Sprintf(
		"Condense the following product idea into a patent search query of at most 6 keywords. Respond with the keywords only, no punctuation.\n\nIdea: %s",
		topic,
	)
	res, err := c.llm.Complete(ctx, llm.Request{Instruction: instruction, Temperature: 0.2, MaxTokens: 64})
	if err != nil {
		c.logger.Warn().Err(err).Msg("patents: query derivation failed, using raw idea")
		return fallback
	}
	query := strings.Join(strings.Fields(res.Content), " ")
	if query == "" {
		return fallback
	}
	return truncateRunes(query, maxQueryRunes)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
