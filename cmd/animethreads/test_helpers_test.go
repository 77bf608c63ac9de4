package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"animethreads/internal/config"
	"animethreads/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *httptest.Server
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ANIMETHREADS_USER_AGENT", "")
	t.Setenv("REDDIT_USER_AGENT", "")

	server := httptest.NewServer(newFakeUpstream(t))
	t.Cleanup(server.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithAniListURL(server.URL + "/graphql"),
		testsupport.WithRedditURL(server.URL),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(homeDir, ".config", "animethreads", "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, server: server}
}

// newFakeUpstream serves a one-show AniList catalog for whatever season is
// requested first, the Reddit listings and about page, and a comment count
// endpoint.
func newFakeUpstream(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	var (
		mu          sync.Mutex
		firstSeason string
	)
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode graphql request: %v", err)
		}
		requested, _ := req.Variables["season"].(string)
		mu.Lock()
		if firstSeason == "" {
			firstSeason = requested
		}
		isFirst := requested == firstSeason
		mu.Unlock()
		media := `[]`
		if isFirst {
			media = `[{"id":1,"title":{"romaji":"Sousou no Frieren","english":"Frieren: Beyond Journey's End","native":"葬送のフリーレン"}}]`
		}
		fmt.Fprintf(w, `{"data":{"Page":{"pageInfo":{"hasNextPage":false},"media":%s}}}`, media)
	})
	listing := func(children string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"data":{"after":null,"children":[%s]}}`, children)
		}
	}
	frieren := `{"kind":"t3","data":{"id":"abc","title":"Sousou no Frieren - Episode 3 discussion","num_comments":120,"created_utc":1735689600.0,"permalink":"/r/anime/comments/abc/sousou_no_frieren_episode_3/"}}`
	meme := `{"kind":"t3","data":{"id":"zzz","title":"Weekly meme thread","num_comments":4,"permalink":"/r/anime/comments/zzz/weekly/"}}`
	mux.HandleFunc("/r/anime/hot.json", listing(frieren))
	mux.HandleFunc("/r/anime/new.json", listing(frieren+","+meme))
	mux.HandleFunc("/r/anime/top.json", listing(""))
	mux.HandleFunc("/r/anime/about.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind":"t5","data":{"display_name":"anime"}}`)
	})
	mux.HandleFunc("/comments/abc.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"data":{"children":[{"kind":"t3","data":{"id":"abc","num_comments":321}}]}}]`)
	})
	return mux
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
