// Package anilist fetches seasonal anime catalogs from the AniList GraphQL API.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"animethreads/internal/catalog"
	"animethreads/internal/logging"
	"animethreads/internal/season"
	"animethreads/internal/services"
)

const (
	defaultBaseURL     = "https://graphql.anilist.co"
	defaultUserAgent   = "animethreads/dev"
	defaultHTTPTimeout = 15 * time.Second
	defaultPerPage     = 50
	maxPages           = 40
)

const seasonQuery = `query ($season: MediaSeason, $seasonYear: Int, $page: Int, $perPage: Int, $formats: [MediaFormat]) {
  Page(page: $page, perPage: $perPage) {
    pageInfo { hasNextPage }
    media(season: $season, seasonYear: $seasonYear, type: ANIME, format_in: $formats, sort: POPULARITY_DESC) {
      id
      title { romaji english native }
    }
  }
}`

// Config describes the AniList client configuration.
type Config struct {
	BaseURL    string
	UserAgent  string
	Formats    []string
	PerPage    int
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *slog.Logger
}

// Client wraps the AniList GraphQL endpoint.
type Client struct {
	baseURL   *url.URL
	userAgent string
	formats   []string
	perPage   int
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("anilist: parse base url: %w", err)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		formats:   append([]string(nil), cfg.Formats...),
		perPage:   perPage,
		http:      client,
		limiter:   cfg.Limiter,
		logger:    logging.NewComponentLogger(cfg.Logger, "anilist"),
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []struct {
				ID    int           `json:"id"`
				Title catalog.Title `json:"title"`
			} `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Season returns every catalog entry broadcast in the given period, stamped
// with the period's season and year.
func (c *Client) Season(ctx context.Context, period season.Period) ([]catalog.Entry, error) {
	if c == nil {
		return nil, errors.New("anilist: client is nil")
	}
	if !period.Season.Valid() {
		return nil, services.Wrap(services.ErrValidation, "anilist", "season", "invalid period "+period.String(), nil)
	}
	var entries []catalog.Entry
	for page := 1; page <= maxPages; page++ {
		variables := map[string]any{
			"season":     period.Season.String(),
			"seasonYear": period.Year,
			"page":       page,
			"perPage":    c.perPage,
		}
		if len(c.formats) > 0 {
			variables["formats"] = c.formats
		}
		var payload pageResponse
		if err := c.post(ctx, graphQLRequest{Query: seasonQuery, Variables: variables}, &payload); err != nil {
			return entries, err
		}
		media := payload.Data.Page.Media
		for _, item := range media {
			entries = append(entries, catalog.Entry{
				ID:         item.ID,
				Romaji:     strings.TrimSpace(item.Title.Romaji),
				English:    strings.TrimSpace(item.Title.English),
				Native:     strings.TrimSpace(item.Title.Native),
				Season:     period.Season.String(),
				SeasonYear: period.Year,
			})
		}
		c.logger.Debug("anilist page fetched",
			logging.Season(period.Key()),
			logging.Int("page", page),
			logging.Int("media", len(media)),
		)
		if !payload.Data.Page.PageInfo.HasNextPage || len(media) < c.perPage {
			break
		}
	}
	return entries, nil
}

// Catalog fetches each period in order and returns the union of entries,
// keeping the first occurrence of every id.
func (c *Client) Catalog(ctx context.Context, periods ...season.Period) ([]catalog.Entry, error) {
	seen := make(map[int]struct{})
	var out []catalog.Entry
	for _, period := range periods {
		entries, err := c.Season(ctx, period)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if _, ok := seen[entry.ID]; ok {
				continue
			}
			seen[entry.ID] = struct{}{}
			out = append(out, entry)
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, body graphQLRequest, out *pageResponse) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("anilist: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("anilist: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "anilist", "query", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := strings.TrimSpace(resp.Status + ": " + strings.TrimSpace(string(data)))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrRateLimited, "anilist", "query", message, nil)
		case resp.StatusCode >= 500:
			return services.Wrap(services.ErrTransient, "anilist", "query", message, nil)
		default:
			return services.Wrap(services.ErrExternalTool, "anilist", "query", message, nil)
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "anilist", "query", "decode response", err)
	}
	if len(out.Errors) > 0 {
		messages := make([]string, 0, len(out.Errors))
		for _, gqlErr := range out.Errors {
			messages = append(messages, gqlErr.Message)
		}
		return services.Wrap(services.ErrExternalTool, "anilist", "query", strings.Join(messages, "; "), nil)
	}
	return nil
}
