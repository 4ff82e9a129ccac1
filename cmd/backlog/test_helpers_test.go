package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"backlog/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	inputPath   string
	outputPath  string
	cachePath   string
	llmCalls    atomic.Int32
	lookupCalls atomic.Int32
}

const testCatalog = `Growl,Mega Drive,,,,,,Backlog
Doom,PC,,,,,,Playing
Doom,pc,1999,,,,,Duplicate
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	env := &cliTestEnv{}

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.llmCalls.Add(1)
		content := `{"genres": {"Growl": "Beat 'em up", "Doom": "Shooter"}}`
		writeTestJSON(w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
			"usage":   map[string]any{"prompt_tokens": 200, "completion_tokens": 20, "total_tokens": 220},
		})
	}))
	t.Cleanup(llmServer.Close)

	lookupServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.lookupCalls.Add(1)
		if r.URL.Path != "/api/search" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			SearchTerms []string `json:"searchTerms"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		query := strings.ToLower(strings.Join(body.SearchTerms, " "))
		var data []map[string]any
		switch query {
		case "growl":
			data = []map[string]any{
				{"game_id": 4150, "game_name": "Growl", "comp_main": 5040, "release_world": 1991, "review_score": 65},
			}
		case "doom":
			data = []map[string]any{
				{"game_id": 2708, "game_name": "Doom", "comp_main": 25668, "release_world": 1993, "review_score": 88},
				{"game_id": 2709, "game_name": "Doom II", "comp_main": 30000, "release_world": 1994, "review_score": 85},
			}
		}
		writeTestJSON(w, map[string]any{"count": len(data), "data": data})
	}))
	t.Cleanup(lookupServer.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithLookupURL(lookupServer.URL),
		testsupport.WithLLMURL(llmServer.URL),
		testsupport.WithCatalog(testCatalog),
	)
	env.baseDir = testsupport.BaseDir(cfg)
	env.inputPath = cfg.Paths.Input
	env.outputPath = filepath.Join(env.baseDir, "backlog_enriched.csv")
	env.cachePath = cfg.Paths.Cache
	env.configPath = testsupport.WriteConfigFile(t, cfg)
	return env
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
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

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
