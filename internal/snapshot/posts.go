package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"animethreads/internal/fileutil"
	"animethreads/internal/services"
)

// RedditBaseURL prefixes relative permalinks.
const RedditBaseURL = "https://reddit.com"

// Post is one Reddit submission as captured in the post snapshot.
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	CreatedUTC  *Epoch `json:"created_utc,omitempty"`
	Author      string `json:"author,omitempty"`
	Permalink   string `json:"permalink,omitempty"`
	URL         string `json:"url,omitempty"`
	IsSelf      bool   `json:"is_self"`
	Flair       string `json:"flair,omitempty"`
}

// Link returns the canonical thread URL: the permalink made absolute when
// present, else the submission URL.
func (p Post) Link() string {
	permalink := strings.TrimSpace(p.Permalink)
	switch {
	case strings.HasPrefix(permalink, "http://"), strings.HasPrefix(permalink, "https://"):
		return permalink
	case permalink != "":
		if !strings.HasPrefix(permalink, "/") {
			permalink = "/" + permalink
		}
		return RedditBaseURL + permalink
	default:
		return strings.TrimSpace(p.URL)
	}
}

// Counts summarizes how many posts each listing contributed.
type Counts map[string]int

// PostSnapshot is the envelope written by fetch-posts.
type PostSnapshot struct {
	SnapshotAt      string `json:"snapshot_at"`
	SourceSubreddit string `json:"source_subreddit"`
	Counts          Counts `json:"counts"`
	Posts           []Post `json:"posts"`
}

// ParsePosts decodes either a bare list of posts or an object carrying a
// "posts" list.
func ParsePosts(data []byte) ([]Post, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", "empty post snapshot", nil)
	}
	switch trimmed[0] {
	case '[':
		var posts []Post
		if err := json.Unmarshal(trimmed, &posts); err != nil {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", "invalid post list", err)
		}
		return posts, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", "invalid post envelope", err)
		}
		raw, ok := envelope["posts"]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", `post envelope has no "posts" field`, nil)
		}
		var posts []Post
		if err := json.Unmarshal(raw, &posts); err != nil {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", "invalid posts field", err)
		}
		return posts, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "snapshot", "parse posts", "post snapshot must be a list or an object with posts", nil)
	}
}

// LoadPosts reads and parses the post snapshot at path.
func LoadPosts(path string) ([]Post, error) {
	data, err := readRequired(path, "post snapshot")
	if err != nil {
		return nil, err
	}
	return ParsePosts(data)
}

// SavePosts writes a post snapshot atomically.
func SavePosts(path string, snap PostSnapshot) error {
	if snap.Posts == nil {
		snap.Posts = []Post{}
	}
	if err := fileutil.WriteJSONAtomic(path, snap); err != nil {
		return fmt.Errorf("save post snapshot: %w", err)
	}
	return nil
}

// MergeUnique concatenates listings keeping the first occurrence of each id.
func MergeUnique(listings ...[]Post) []Post {
	seen := make(map[string]struct{})
	merged := make([]Post, 0)
	for _, listing := range listings {
		for _, post := range listing {
			if post.ID == "" {
				continue
			}
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			merged = append(merged, post)
		}
	}
	return merged
}

func readRequired(path, label string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "snapshot", "read", label+" not found: "+path, nil)
		}
		return nil, services.Wrap(services.ErrValidation, "snapshot", "read", "read "+label, err)
	}
	return data, nil
}
