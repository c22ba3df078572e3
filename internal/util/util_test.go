package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3129", "internal.local, .corp")

	tests := []struct {
		target string
		want   string
	}{
		{"http://example.com/a", "http://proxy:3128"},
		{"https://example.com/a", "http://secure-proxy:3129"},
		{"https://api.internal.local/x", ""},
		{"http://build.corp/x", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := proxy(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("proxy(%s) error: %v", tt.target, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.target, gotStr, tt.want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: CheckMate\nDisallow: /news/private\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rc := NewRobotsChecker("CheckMate/0.1 (+https://github.com/ppiankov/checkmate)", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, server.URL+"/news/private/1")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("expected private path to be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}

	allowed, _, _ = rc.CanFetch(ctx, server.URL+"/news/public")
	if !allowed {
		t.Error("expected public path to be allowed")
	}

	if robotsHits.Load() != 1 {
		t.Errorf("expected robots.txt to be cached, fetched %d times", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rc := NewRobotsChecker("CheckMate", 5*time.Second)
	allowed, _, err := rc.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil || !allowed {
		t.Errorf("expected allow on 404, got %v, %v", allowed, err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("CheckMate/0.1 (+https://x)"); got != "CheckMate" {
		t.Errorf("got %q", got)
	}
}
