// Package reddit reads public subreddit listings and per-thread comment
// counts from Reddit's JSON endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"animethreads/internal/services"
	"animethreads/internal/snapshot"
)

const (
	defaultBaseURL     = "https://www.reddit.com"
	defaultUserAgent   = "animethreads/dev"
	defaultHTTPTimeout = 10 * time.Second
	maxPageSize        = 100
)

// Config describes the Reddit client configuration.
type Config struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	// Limiter paces every request; nil disables pacing.
	Limiter *rate.Limiter
}

// Client wraps the public Reddit JSON API.
type Client struct {
	baseURL   *url.URL
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("reddit: parse base url: %w", err)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      client,
		limiter:   cfg.Limiter,
	}, nil
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string   `json:"kind"`
			Data linkData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type linkData struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Score         int             `json:"score"`
	NumComments   int             `json:"num_comments"`
	CreatedUTC    *snapshot.Epoch `json:"created_utc"`
	Author        string          `json:"author"`
	Permalink     string          `json:"permalink"`
	URL           string          `json:"url"`
	IsSelf        bool            `json:"is_self"`
	LinkFlairText string          `json:"link_flair_text"`
}

func (d linkData) post() snapshot.Post {
	author := d.Author
	if author == "[deleted]" {
		author = ""
	}
	return snapshot.Post{
		ID:          d.ID,
		Title:       d.Title,
		Score:       d.Score,
		NumComments: d.NumComments,
		CreatedUTC:  d.CreatedUTC,
		Author:      author,
		Permalink:   d.Permalink,
		URL:         d.URL,
		IsSelf:      d.IsSelf,
		Flair:       d.LinkFlairText,
	}
}

// Listing pages through /r/<subreddit>/<listing>.json until limit posts are
// collected or the listing ends. The top listing is restricted to the past day.
func (c *Client) Listing(ctx context.Context, subreddit, listing string, limit int) ([]snapshot.Post, error) {
	if c == nil {
		return nil, errors.New("reddit: client is nil")
	}
	if limit <= 0 {
		return nil, nil
	}
	endpoint := c.baseURL.JoinPath("r", subreddit, listing+".json")
	posts := make([]snapshot.Post, 0, min(limit, 1000))
	after := ""
	for len(posts) < limit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(min(maxPageSize, limit-len(posts))))
		params.Set("raw_json", "1")
		if listing == "top" {
			params.Set("t", "day")
		}
		if after != "" {
			params.Set("after", after)
		}
		endpoint.RawQuery = params.Encode()

		var payload listingResponse
		if err := c.getJSON(ctx, "listing", endpoint.String(), &payload); err != nil {
			return posts, err
		}
		for _, child := range payload.Data.Children {
			if child.Kind != "" && child.Kind != "t3" {
				continue
			}
			posts = append(posts, child.Data.post())
			if len(posts) >= limit {
				break
			}
		}
		after = payload.Data.After
		if after == "" || len(payload.Data.Children) == 0 {
			break
		}
	}
	return posts, nil
}

// CommentCount returns the current comment count of a thread identified by
// its URL, permalink or bare id.
func (c *Client) CommentCount(ctx context.Context, thread string) (int, error) {
	if c == nil {
		return 0, errors.New("reddit: client is nil")
	}
	id, err := PostIDFromURL(thread)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "reddit", "comment count", thread, err)
	}
	endpoint := c.baseURL.JoinPath("comments", id+".json")
	endpoint.RawQuery = url.Values{"raw_json": {"1"}, "limit": {"1"}}.Encode()

	var payload []listingResponse
	if err := c.getJSON(ctx, "comment count", endpoint.String(), &payload); err != nil {
		return 0, err
	}
	if len(payload) == 0 || len(payload[0].Data.Children) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "reddit", "comment count", "thread "+id+" has no data", nil)
	}
	return payload[0].Data.Children[0].Data.NumComments, nil
}

// PostIDFromURL extracts the submission id from a thread URL or permalink.
// Values without a /comments/ segment are treated as bare ids.
func PostIDFromURL(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("empty thread reference")
	}
	if _, rest, ok := strings.Cut(value, "/comments/"); ok {
		id, _, _ := strings.Cut(rest, "/")
		id, _, _ = strings.Cut(id, "?")
		if id == "" {
			return "", fmt.Errorf("no post id in %q", value)
		}
		return id, nil
	}
	if strings.ContainsAny(value, "/?#") {
		return "", fmt.Errorf("no post id in %q", value)
	}
	return strings.TrimPrefix(value, "t3_"), nil
}

func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("reddit: build %s request: %w", operation, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "reddit", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(operation, resp.Status, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "reddit", operation, "decode response", err)
	}
	return nil
}

func statusError(operation, status string, code int, body string) error {
	message := status
	if body != "" {
		message = status + ": " + body
	}
	switch {
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "reddit", operation, message, nil)
	case code == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "reddit", operation, message, nil)
	case code >= 500:
		return services.Wrap(services.ErrTransient, "reddit", operation, message, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "reddit", operation, message, nil)
	}
}
