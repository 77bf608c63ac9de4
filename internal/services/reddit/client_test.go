package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"animethreads/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL, UserAgent: "animethreads-test/1.0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestListingPagesWithAfter(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/anime/top.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("t"); got != "day" {
			t.Errorf("expected t=day, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "animethreads-test/1.0" {
			t.Errorf("unexpected user agent %q", got)
		}
		after := r.URL.Query().Get("after")
		pages = append(pages, after)
		w.Header().Set("Content-Type", "application/json")
		switch after {
		case "":
			fmt.Fprint(w, `{"data":{"after":"t3_b","children":[
				{"kind":"t3","data":{"id":"a","title":"Show - Episode 1 discussion","num_comments":10,"created_utc":1735689600.0,"author":"[deleted]","permalink":"/r/anime/comments/a/x/"}},
				{"kind":"t3","data":{"id":"b","title":"Other","num_comments":2,"created_utc":1735689700}}]}}`)
		case "t3_b":
			fmt.Fprint(w, `{"data":{"after":null,"children":[
				{"kind":"t3","data":{"id":"c","title":"Third","num_comments":3}}]}}`)
		default:
			t.Errorf("unexpected after %q", after)
		}
	})

	posts, err := client.Listing(context.Background(), "anime", "top", 50)
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(posts) != 3 || len(pages) != 2 {
		t.Fatalf("expected 3 posts over 2 pages, got %d posts over %v", len(posts), pages)
	}
	first := posts[0]
	if first.ID != "a" || first.NumComments != 10 || first.Author != "" {
		t.Fatalf("unexpected first post %+v", first)
	}
	if first.CreatedUTC == nil || int64(*first.CreatedUTC) != 1735689600 {
		t.Fatalf("unexpected created_utc %v", first.CreatedUTC)
	}
	if first.Link() != "https://reddit.com/r/anime/comments/a/x/" {
		t.Fatalf("unexpected link %q", first.Link())
	}
}

func TestListingStopsAtLimit(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("expected limit=2, got %q", got)
		}
		fmt.Fprint(w, `{"data":{"after":"t3_z","children":[
			{"kind":"t3","data":{"id":"a"}},{"kind":"t3","data":{"id":"b"}},{"kind":"t3","data":{"id":"c"}}]}}`)
	})
	posts, err := client.Listing(context.Background(), "anime", "new", 2)
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(posts) != 2 || calls != 1 {
		t.Fatalf("expected 2 posts in one call, got %d in %d", len(posts), calls)
	}
}

func TestCommentCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comments/abc123.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"data":{"children":[{"kind":"t3","data":{"id":"abc123","num_comments":456}}]}},{"data":{"children":[]}}]`)
	})
	for _, ref := range []string{
		"https://reddit.com/r/anime/comments/abc123/show_episode_3/",
		"/r/anime/comments/abc123/",
		"abc123",
		"t3_abc123",
	} {
		count, err := client.CommentCount(context.Background(), ref)
		if err != nil {
			t.Fatalf("CommentCount(%q): %v", ref, err)
		}
		if count != 456 {
			t.Fatalf("CommentCount(%q) = %d", ref, count)
		}
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, services.ErrRateLimited},
		{http.StatusTooManyRequests, services.ErrRateLimited},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusBadGateway, services.ErrTransient},
		{http.StatusBadRequest, services.ErrExternalTool},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := client.CommentCount(context.Background(), "abc")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Fatalf("expected body in error, got %v", err)
			}
		})
	}
}

func TestPostIDFromURL(t *testing.T) {
	tests := []struct{ input, want string }{
		{input: "https://www.reddit.com/r/anime/comments/1abcd/title/", want: "1abcd"},
		{input: "https://reddit.com/comments/xyz?context=3", want: "xyz"},
		{input: "t3_qq", want: "qq"},
	}
	for _, tt := range tests {
		got, err := PostIDFromURL(tt.input)
		if err != nil || got != tt.want {
			t.Fatalf("PostIDFromURL(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "https://reddit.com/r/anime/", "https://reddit.com/comments/"} {
		if _, err := PostIDFromURL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
