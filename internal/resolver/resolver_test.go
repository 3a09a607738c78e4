package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/streamgate/streamgate/internal/platforms"
)

// registryWithShortHost builds a registry treating the test server's host as
// a shortener.
func registryWithShortHost(t *testing.T, serverURL string) *platforms.Registry {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatal(err)
	}
	cfg := platforms.Defaults()
	cfg.ShortURLHosts = append(cfg.ShortURLHosts, u.Hostname())
	return platforms.NewRegistry(cfg)
}

func TestResolveFollowsRedirectAndCleansTracking(t *testing.T) {
	var target string
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	})
	mux.HandleFunc("/video/123", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	target = srv.URL + "/video/123?utm_source=share&fbclid=abc&id=42"

	r := New(registryWithShortHost(t, srv.URL), 5*time.Second)
	got := r.Resolve(context.Background(), srv.URL+"/short")

	if strings.Contains(got, "utm_source") || strings.Contains(got, "fbclid") {
		t.Errorf("Resolve() kept tracking params: %q", got)
	}
	if !strings.Contains(got, "/video/123") || !strings.Contains(got, "id=42") {
		t.Errorf("Resolve() = %q, want expanded URL with content params", got)
	}
}

func TestResolveNonShortenerPassthrough(t *testing.T) {
	r := New(platforms.NewRegistry(platforms.Defaults()), time.Second)
	in := "https://video.cdn.example/x.mp4?sig=1"
	if got := r.Resolve(context.Background(), in); got != in {
		t.Errorf("Resolve() = %q, want passthrough %q", got, in)
	}
}

func TestResolveFailureKeepsOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := srv.URL + "/short"
	reg := registryWithShortHost(t, srv.URL)
	srv.Close() // now unreachable

	r := New(reg, 500*time.Millisecond)
	if got := r.Resolve(context.Background(), u); got != u {
		t.Errorf("Resolve() = %q, want original on failure", got)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/s/")
		http.Redirect(w, r, "/full/"+id, http.StatusMovedPermanently)
	})
	mux.HandleFunc("/full/", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := New(registryWithShortHost(t, srv.URL), 5*time.Second)

	urls := make([]string, 20)
	for i := range urls {
		if i%3 == 0 {
			urls[i] = fmt.Sprintf("%s/s/%d", srv.URL, i)
		} else {
			urls[i] = fmt.Sprintf("https://video.cdn.example/%d.mp4", i)
		}
	}

	got := r.ResolveAll(context.Background(), urls)
	if len(got) != len(urls) {
		t.Fatalf("ResolveAll() returned %d urls, want %d", len(got), len(urls))
	}
	for i := range urls {
		if i%3 == 0 {
			want := fmt.Sprintf("%s/full/%d", srv.URL, i)
			if got[i] != want {
				t.Errorf("ResolveAll()[%d] = %q, want %q", i, got[i], want)
			}
		} else if got[i] != urls[i] {
			t.Errorf("ResolveAll()[%d] = %q, want passthrough %q", i, got[i], urls[i])
		}
	}
}

func TestCleanTracking(t *testing.T) {
	r := New(platforms.NewRegistry(platforms.Defaults()), time.Second)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"strips utm params",
			"https://example.com/v?utm_source=x&utm_medium=y&v=1",
			"https://example.com/v?v=1",
		},
		{
			"no query untouched",
			"https://example.com/v",
			"https://example.com/v",
		},
		{
			"drops fragment",
			"https://example.com/v?gclid=z#t=30",
			"https://example.com/v",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CleanTracking(tt.in); got != tt.want {
				t.Errorf("CleanTracking(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
