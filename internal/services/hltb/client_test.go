package hltb_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backlog/internal/services"
	"backlog/internal/services/hltb"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := hltb.New("  ", "ua"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "backlog/test" {
			t.Errorf("User-Agent = %q", got)
		}
		var body struct {
			SearchType  string   `json:"searchType"`
			SearchTerms []string `json:"searchTerms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.SearchType != "games" || strings.Join(body.SearchTerms, " ") != "Deception III Dark Delusion" {
			t.Errorf("unexpected body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2,"data":[
			{"game_id":2377,"game_name":"Deception III: Dark Delusion","comp_main":64800,"release_world":1999,"review_score":74},
			{"game_id":9999,"game_name":"Deception IV","comp_main":0,"release_world":0,"review_score":0}
		]}`))
	}))
	t.Cleanup(server.Close)

	client, err := hltb.New(server.URL+"/", "backlog/test")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results, err := client.Search(context.Background(), "Deception III: Dark Delusion")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results))
	}
	first := results[0]
	if first.ExternalID != "2377" || first.Similarity != 1 || first.ReleaseYear != 1999 || first.ReviewScore != 74 {
		t.Fatalf("unexpected first candidate: %+v", first)
	}
	if first.MainHours != 18 {
		t.Fatalf("expected 18 hours, got %v", first.MainHours)
	}
	if results[1].HasDuration() {
		t.Fatal("zero comp_main should report no duration")
	}
	if results[1].Similarity >= 1 {
		t.Fatalf("second candidate similarity = %v", results[1].Similarity)
	}
}

func TestSearchUsesAliasWhenCloser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"game_id":1,"game_name":"Thrill Kill (Unreleased)","game_alias":"Thrill Kill","comp_main":3600}]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := hltb.New(server.URL, "")
	results, err := client.Search(context.Background(), "Thrill Kill")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].Similarity != 1 {
		t.Fatalf("expected alias match, got %+v", results)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":0,"data":[]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := hltb.New(server.URL, "")
	results, err := client.Search(context.Background(), "Nothing Here")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no candidates, got %d", len(results))
	}
}

func TestSearchHTTPErrorIsTagged(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusInternalServerError, services.ErrTransient},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusForbidden, services.ErrConfiguration},
		{http.StatusNotFound, services.ErrRejected},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))
		client, _ := hltb.New(server.URL, "")
		_, err := client.Search(context.Background(), "Growl")
		server.Close()
		if !errors.Is(err, tt.marker) {
			t.Errorf("status %d: error = %v, want marker %v", tt.status, err, tt.marker)
		}
	}
}

func TestSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	t.Cleanup(server.Close)

	client, _ := hltb.New(server.URL, "")
	if _, err := client.Search(context.Background(), "Growl"); !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client, _ := hltb.New("https://example.com", "")
	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client, _ := hltb.New(server.URL, "")
	if _, err := client.Search(ctx, "Growl"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
