package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"animethreads/internal/archive"
	"animethreads/internal/services"
)

const checkTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArchiveLock verifies that no other run currently holds the archive lock.
func CheckArchiveLock(dir string) Result {
	const name = "Archive lock"
	lock, err := archive.AcquireLock(dir)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return Result{Name: name, Detail: "held by another run"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if err := lock.Release(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("release failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckAniList sends a trivial GraphQL query to verify the catalog endpoint.
func CheckAniList(ctx context.Context, baseURL, userAgent string) Result {
	const name = "AniList"
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	body := strings.NewReader(`{"query":"{ SiteStatistics { anime(perPage: 1) { pageInfo { total } } } }"}`)
	return probe(ctx, name, http.MethodPost, base, userAgent, body)
}

// CheckReddit fetches the subreddit's about document to verify the listing
// endpoint and that the user agent is not being refused.
func CheckReddit(ctx context.Context, baseURL, subreddit, userAgent string) Result {
	const name = "Reddit"
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Host == "" {
		return Result{Name: name, Detail: "invalid url"}
	}
	endpoint := base.JoinPath("r", subreddit, "about.json")
	return probe(ctx, name, http.MethodGet, endpoint.String(), userAgent, nil)
}

func probe(ctx context.Context, name, method, endpoint, userAgent string, body io.Reader) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, method, endpoint, body)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	if strings.TrimSpace(userAgent) != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: checkTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return Result{Name: name, Detail: fmt.Sprintf("throttled or blocked (%d); check the user agent", resp.StatusCode)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status (%d)", resp.StatusCode)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (unreachable)"
	}
	return err.Error()
}
