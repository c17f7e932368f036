package stages

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkforge/contentflow/internal/config"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

const serpAPIEndpoint = "https://serpapi.com/search"

// ResearchQuery is a single search request within a research step.
type ResearchQuery struct {
	QueryText     string   `json:"query_text"`
	MaxResults    int      `json:"max_results"`
	TargetDomains []string `json:"target_domains"`
}

// ResearchInput names the content being researched and the query to run.
type ResearchInput struct {
	ContentID       string        `json:"content_id"`
	Query           ResearchQuery `json:"query"`
	ValidateSources bool          `json:"validate_sources"`
}

// SearchResult is one hit returned by the search backend.
type SearchResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// ResearchStage runs web searches through SerpAPI and summarizes the hits.
// Without an API key it falls back to deterministic mock results, and repeat
// queries are served from an in-process TTL cache.
type ResearchStage struct {
	apiKey string
	client *http.Client
	cache  *resultCache
	logger Logger
}

func NewResearchStage(cfg *config.Settings, logger Logger) *ResearchStage {
	cache, err := newResultCache(int64(cfg.Research.CacheSize), time.Duration(cfg.Research.CacheTTL)*time.Second)
	if err != nil {
		// A broken cache only costs repeat lookups.
		logger.Errorf("research cache disabled: %v", err)
		cache = nil
	}
	return &ResearchStage{
		apiKey: cfg.Research.SerpAPIKey,
		client: &http.Client{Timeout: time.Duration(cfg.Research.Timeout) * time.Second},
		cache:  cache,
		logger: logger,
	}
}

func (s *ResearchStage) Type() models.StepType {
	return models.ResearchStepType
}

func (s *ResearchStage) Validate(input map[string]interface{}) error {
	var in ResearchInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid research input")
	}
	if strings.TrimSpace(in.Query.QueryText) == "" {
		return errors.New("query.query_text is required")
	}
	if in.Query.MaxResults < 0 {
		return errors.New("query.max_results must not be negative")
	}
	return nil
}

func (s *ResearchStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in ResearchInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid research input")
	}
	if strings.TrimSpace(in.Query.QueryText) == "" {
		return nil, errors.New("query.query_text is required")
	}
	if in.Query.MaxResults <= 0 {
		in.Query.MaxResults = 5
	}

	key := cacheKey(in)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debugf("Research cache hit for %s", in.ContentID)
			return cached, nil
		}
	}

	var (
		results []SearchResult
		source  string
		err     error
	)
	if s.apiKey != "" {
		results, err = s.search(ctx, in.Query)
		source = "serpapi"
		if err != nil {
			return nil, err
		}
	} else {
		results = mockResults(in.Query)
		source = "mock"
	}
	if len(in.Query.TargetDomains) > 0 {
		results = filterDomains(results, in.Query.TargetDomains)
	}

	out := map[string]interface{}{
		"content_id":       in.ContentID,
		"query_id":         "query_" + uuid.New().String()[:8],
		"query_text":       in.Query.QueryText,
		"total_results":    len(results),
		"search_results":   results,
		"research_summary": summarize(results),
		"key_insights":     keyInsights(results),
		"source":           source,
	}
	if s.cache != nil {
		s.cache.Set(key, out)
	}
	return out, nil
}

func (s *ResearchStage) search(ctx context.Context, q ResearchQuery) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q.QueryText)
	params.Set("num", strconv.Itoa(q.MaxResults))
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building search request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("search API returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		OrganicResults []struct {
			Title    string `json:"title"`
			Link     string `json:"link"`
			Snippet  string `json:"snippet"`
			Position int    `json:"position"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding search response")
	}

	results := make([]SearchResult, 0, len(payload.OrganicResults))
	for _, r := range payload.OrganicResults {
		results = append(results, SearchResult{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Position: r.Position,
		})
		if len(results) == q.MaxResults {
			break
		}
	}
	return results, nil
}

// mockResults produces deterministic placeholder hits so workflows remain
// runnable without search credentials.
func mockResults(q ResearchQuery) []SearchResult {
	n := q.MaxResults
	if n > 5 {
		n = 5
	}
	results := make([]SearchResult, 0, n)
	for i := 1; i <= n; i++ {
		results = append(results, SearchResult{
			Title:    fmt.Sprintf("Result %d for %q", i, q.QueryText),
			URL:      fmt.Sprintf("https://example.com/research/%d", i),
			Snippet:  fmt.Sprintf("Overview %d covering %s with background, context and supporting data.", i, q.QueryText),
			Position: i,
		})
	}
	return results
}

func filterDomains(results []SearchResult, domains []string) []SearchResult {
	out := results[:0]
	for _, r := range results {
		u, err := url.Parse(r.URL)
		if err != nil {
			continue
		}
		for _, d := range domains {
			if strings.HasSuffix(u.Hostname(), d) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func summarize(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	snippets := make([]string, 0, 3)
	for _, r := range results {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
		if len(snippets) == 3 {
			break
		}
	}
	return strings.Join(snippets, " ")
}

func keyInsights(results []SearchResult) []string {
	insights := make([]string, 0, len(results))
	for _, r := range results {
		sents := splitSentences(r.Snippet)
		if len(sents) > 0 {
			insights = append(insights, sents[0])
		}
		if len(insights) == 5 {
			break
		}
	}
	return insights
}

func cacheKey(in ResearchInput) string {
	raw, _ := json.Marshal(in.Query)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%x", in.ContentID, sum[:8])
}
