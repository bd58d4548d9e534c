// Package insights queries a Google search proxy (serper.dev) for web
// context about a product: general results, reviews and news.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"amazon-analyzer/utils"
)

const DefaultBaseURL = "https://google.serper.dev"

// requestsPerSecond caps outgoing queries; a burst of the same size is allowed.
const requestsPerSecond = 5

// Search types understood by the API.
const (
	TypeSearch = "search"
	TypeNews   = "news"
)

type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position,omitempty"`
}

type NewsResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// SearchResponse keeps the parts of a response this package reads.
type SearchResponse struct {
	Organic []OrganicResult `json:"organic,omitempty"`
	News    []NewsResult    `json:"news,omitempty"`
}

// ProductInsights is the raw output of the three product searches.
type ProductInsights struct {
	General *SearchResponse `json:"general"`
	Reviews *SearchResponse `json:"reviews"`
	News    *SearchResponse `json:"news"`
}

type Comparison struct {
	Query    string          `json:"query"`
	Results  *SearchResponse `json:"results"`
	Keywords []Keyword       `json:"keywords"`
}

type Client struct {
	http   *resty.Client
	logger *utils.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty)
// authenticated with apiKey.
func NewClient(apiKey, baseURL string, logger *utils.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("X-API-KEY", apiKey)
	client.SetHeader("Content-Type", "application/json")

	limiter := rate.NewLimiter(requestsPerSecond, requestsPerSecond)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{http: client, logger: logger}
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// Search runs one query against the given search type endpoint.
func (c *Client) Search(ctx context.Context, query, searchType string, num int) (*SearchResponse, error) {
	if searchType == "" {
		searchType = TypeSearch
	}

	c.logger.Info("[insights] Sending %s request: %s", searchType, query)

	var out SearchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{Q: query, Num: num}).
		SetResult(&out).
		Post("/" + searchType)
	if err != nil {
		c.logger.Error("[insights] Request failed: %v", err)
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	if res.IsError() {
		c.logger.Error("[insights] Request failed: %s", res.Status())
		return nil, fmt.Errorf("failed to fetch search results: %s", res.Status())
	}
	return &out, nil
}

// ProductInsights performs the general, review-site and news searches for
// product.
func (c *Client) ProductInsights(ctx context.Context, product string, num int) (*ProductInsights, error) {
	general, err := c.Search(ctx, product, TypeSearch, num)
	if err != nil {
		return nil, err
	}

	reviews, err := c.Search(ctx, product+" reviews site:reddit.com OR site:trustpilot.com", TypeSearch, num)
	if err != nil {
		return nil, err
	}

	news, err := c.Search(ctx, product+" news", TypeNews, num)
	if err != nil {
		return nil, err
	}

	return &ProductInsights{General: general, Reviews: reviews, News: news}, nil
}

// CompareProducts searches "a vs b" and tags each organic result with a
// keyword sentiment.
func (c *Client) CompareProducts(ctx context.Context, a, b string) (*Comparison, error) {
	query := a + " vs " + b
	results, err := c.Search(ctx, query, TypeSearch, 20)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Query:    query,
		Results:  results,
		Keywords: ExtractSentimentKeywords(results),
	}, nil
}
