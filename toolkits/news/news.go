// Package news provides the fetch_news tool backed by newsapi.org.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/skosovsky/toolrelay"
)

// DefaultBaseURL is the newsapi.org v2 endpoint.
const DefaultBaseURL = "https://newsapi.org/v2"

// Config configures the news tool. BaseURL and HTTPClient default to
// DefaultBaseURL and a pooled cleanhttp client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Args are the keyword arguments of fetch_news.
type Args struct {
	Topic string `json:"topic" description:"Subject to search news articles for"`
}

// New returns the fetch_news tool.
func New(cfg Config) (toolrelay.Tool, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("news: API key is required")
	}
	c := &client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = cleanhttp.DefaultPooledClient()
	}
	return toolrelay.NewTool("fetch_news", "Retrieves the latest news for a given topic.", c.headline)
}

type client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type everythingResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// headline returns the title of the first article matching the topic.
func (c *client) headline(ctx context.Context, args Args) (string, error) {
	q := url.Values{}
	q.Set("q", args.Topic)
	q.Set("apiKey", c.apiKey)
	reqURL := c.baseURL + "/everything?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("news: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("news: API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var data everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("news: parse response: %w", err)
	}
	if data.Status == "error" {
		return "", fmt.Errorf("news: %s", data.Message)
	}
	if len(data.Articles) == 0 {
		return "", fmt.Errorf("news: no articles for %q", args.Topic)
	}
	return data.Articles[0].Title, nil
}
