package imagestore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		switch r.URL.Path {
		case "/images/fig 1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"src":"https://cdn.example/fig1.png","title":"Figure 1"}`))
		case "/images/busy":
			w.Header().Set("Retry-After", "7")
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case "/images/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/images/forbidden":
			http.Error(w, "no", http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	defer c.Close()
	ctx := context.Background()

	img, err := c.Lookup(ctx, "fig 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img == nil || img.Src != "https://cdn.example/fig1.png" || img.Title != "Figure 1" {
		t.Errorf("unexpected image %+v", img)
	}

	img, err = c.Lookup(ctx, "missing")
	if err != nil || img != nil {
		t.Errorf("expected (nil, nil) for missing image, got %+v, %v", img, err)
	}

	for id, wantDelay := range map[string]time.Duration{"busy": 7 * time.Second, "broken": 0} {
		_, err = c.Lookup(ctx, id)
		var retryErr *RetryableError
		if !errors.As(err, &retryErr) {
			t.Errorf("%s: expected retryable error, got %v", id, err)
			continue
		}
		if retryErr.RetryAfter != wantDelay {
			t.Errorf("%s: expected retry after %v, got %v", id, wantDelay, retryErr.RetryAfter)
		}
	}

	_, err = c.Lookup(ctx, "forbidden")
	var retryErr *RetryableError
	if err == nil || errors.As(err, &retryErr) {
		t.Errorf("expected permanent error, got %v", err)
	}
}
