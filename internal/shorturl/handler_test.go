package shorturl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

/***************
 * Mocks
 ***************/

// mockService implements the Service interface for handler testing.
type mockService struct {
	addURLsFunc     func(ctx context.Context, requests []AddURLRequest) ([]URL, error)
	getURLsFunc     func(ctx context.Context, filter Filter) ([]URL, error)
	deleteURLFunc   func(ctx context.Context, filter Filter) (URL, error)
	markURLGoneFunc func(ctx context.Context, filter Filter) (URL, error)
	clickURLFunc    func(ctx context.Context, filter Filter, clientInfo string) (URL, error)
	pingFunc        func(ctx context.Context) error
}

func (m *mockService) AddURLs(ctx context.Context, requests []AddURLRequest) ([]URL, error) {
	if m.addURLsFunc != nil {
		return m.addURLsFunc(ctx, requests)
	}
	return nil, nil
}

func (m *mockService) GetURLs(ctx context.Context, filter Filter) ([]URL, error) {
	if m.getURLsFunc != nil {
		return m.getURLsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockService) DeleteURL(ctx context.Context, filter Filter) (URL, error) {
	if m.deleteURLFunc != nil {
		return m.deleteURLFunc(ctx, filter)
	}
	return URL{}, errx.E("service.DeleteURL", errx.NotFound, errors.New("not found"))
}

func (m *mockService) MarkURLGone(ctx context.Context, filter Filter) (URL, error) {
	if m.markURLGoneFunc != nil {
		return m.markURLGoneFunc(ctx, filter)
	}
	return URL{}, errx.E("service.MarkURLGone", errx.NotFound, errors.New("not found"))
}

func (m *mockService) ClickURL(ctx context.Context, filter Filter, clientInfo string) (URL, error) {
	if m.clickURLFunc != nil {
		return m.clickURLFunc(ctx, filter, clientInfo)
	}
	return URL{}, errx.E("service.ClickURL", errx.NotFound, errors.New("not found"))
}

func (m *mockService) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockService) Stats() ServiceStats {
	return ServiceStats{
		StartedAt:   time.Date(2025, 6, 16, 13, 0, 0, 0, time.UTC),
		CurrentTime: time.Date(2025, 6, 16, 13, 57, 0, 0, time.UTC),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestMux(svc Service) *http.ServeMux {
	h := NewHandler(HandlerConfig{Service: svc, Logger: quietLogger()})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /urls", h.AddURLs)
	mux.HandleFunc("DELETE /urls/{id}", h.DeleteURL)
	mux.HandleFunc("GET /urls/short-url/{short...}", h.ClickByShortURL)
	mux.HandleFunc("GET /urls/full-url/{url...}", h.ClickByFullURL)
	mux.HandleFunc("GET /urls/{id}", h.ClickByID)
	mux.HandleFunc("GET /statuses/all", h.StatusAll)
	mux.HandleFunc("GET /statuses/{id}", h.StatusByID)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /db/ping", h.PingDatabase)
	return mux
}

/***************
 * AddURLs
 ***************/

func TestHandler_AddURLs(t *testing.T) {
	t.Run("creates a batch and returns 201", func(t *testing.T) {
		svc := &mockService{
			addURLsFunc: func(ctx context.Context, requests []AddURLRequest) ([]URL, error) {
				if len(requests) != 2 {
					t.Fatalf("got %d requests, want 2", len(requests))
				}
				if requests[1].Visibility != VisibilityPrivate {
					t.Errorf("request 1 visibility = %q, want private", requests[1].Visibility)
				}
				return []URL{
					{ID: 1, URL: requests[0].URL, ShortURL: "https://clck.ru/a"},
					{ID: 2, URL: requests[1].URL, ShortURL: "https://clck.ru/b"},
				}, nil
			},
		}

		body := `[{"url":"https://example.com/a"},{"url":"https://example.com/b","visibility":"private","shortener":"clckru"}]`
		req := httptest.NewRequest(http.MethodPost, "/urls", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}

		var created []URL
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if len(created) != 2 || created[0].ID != 1 {
			t.Errorf("unexpected response body: %s", rec.Body.String())
		}
	})

	t.Run("rejects malformed JSON with 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/urls", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("maps Service errors to 409", func(t *testing.T) {
		svc := &mockService{
			addURLsFunc: func(ctx context.Context, requests []AddURLRequest) ([]URL, error) {
				return nil, errx.E("service.AddURLs", errx.Service, errors.New("duplicate alias"))
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/urls", strings.NewReader(`[{"url":"https://example.com"}]`))
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

/***************
 * DeleteURL
 ***************/

func TestHandler_DeleteURL(t *testing.T) {
	t.Run("hard delete returns 410 with the removed row", func(t *testing.T) {
		svc := &mockService{
			deleteURLFunc: func(ctx context.Context, filter Filter) (URL, error) {
				if filter.ID == nil || *filter.ID != 42 {
					t.Errorf("filter.ID = %v, want 42", filter.ID)
				}
				return URL{ID: 42, URL: "https://example.com"}, nil
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/urls/42", nil)
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusGone {
			t.Fatalf("status = %d, want 410", rec.Code)
		}
	})

	t.Run("mark_gone soft-deletes and returns 200", func(t *testing.T) {
		var markCalled bool
		svc := &mockService{
			markURLGoneFunc: func(ctx context.Context, filter Filter) (URL, error) {
				markCalled = true
				return URL{ID: 42, IsGone: true}, nil
			},
			deleteURLFunc: func(ctx context.Context, filter Filter) (URL, error) {
				t.Fatal("DeleteURL should not be called with mark_gone=true")
				return URL{}, nil
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/urls/42?mark_gone=true", nil)
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !markCalled {
			t.Error("MarkURLGone was not called")
		}

		var updated URL
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if !updated.IsGone {
			t.Error("response row is not marked gone")
		}
	})

	t.Run("non-integer id returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/urls/abc", nil)
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing row returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/urls/7", nil)
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

/***************
 * Clicks
 ***************/

func TestHandler_Click(t *testing.T) {
	t.Run("click by id redirects with 307 and Location", func(t *testing.T) {
		svc := &mockService{
			clickURLFunc: func(ctx context.Context, filter Filter, clientInfo string) (URL, error) {
				if filter.ID == nil || *filter.ID != 1 {
					t.Errorf("filter.ID = %v, want 1", filter.ID)
				}
				if !strings.HasPrefix(clientInfo, "<address=") {
					t.Errorf("clientInfo = %q, want address descriptor", clientInfo)
				}
				info := clientInfo
				now := time.Now()
				return URL{ID: 1, URL: "https://example.com", NClicks: 3, ClientInfo: &info, ClickedAt: &now}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/urls/1", nil)
		req.Header.Set("User-Agent", "curl/8.0")
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want 307", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "https://example.com" {
			t.Errorf("Location = %q, want the canonical url", got)
		}
	})

	t.Run("click by short url passes the alias through", func(t *testing.T) {
		svc := &mockService{
			clickURLFunc: func(ctx context.Context, filter Filter, clientInfo string) (URL, error) {
				if filter.ShortURL == nil || *filter.ShortURL != "https://clck.ru/xyz" {
					t.Errorf("filter.ShortURL = %v, want https://clck.ru/xyz", filter.ShortURL)
				}
				return URL{ID: 1, URL: "https://example.com"}, nil
			},
		}

		// The mux collapses the double slash in the embedded scheme.
		req := httptest.NewRequest(http.MethodGet, "/urls/short-url/https:/clck.ru/xyz", nil)
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want 307", rec.Code)
		}
	})

	t.Run("unknown alias returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/urls/short-url/nope", nil)
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

/***************
 * Statuses, stats, ping
 ***************/

func TestHandler_Status(t *testing.T) {
	t.Run("status all queries with an empty filter", func(t *testing.T) {
		svc := &mockService{
			getURLsFunc: func(ctx context.Context, filter Filter) ([]URL, error) {
				if !filter.IsEmpty() {
					t.Error("StatusAll should query with an empty filter")
				}
				return []URL{{ID: 1}, {ID: 2}}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/statuses/all", nil)
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("no matches answers an empty JSON array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/statuses/99", nil)
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("body = %q, want []", got)
		}
	})
}

func TestHandler_Stats(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	newTestMux(&mockService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats ServiceStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if stats.StartedAt.IsZero() || stats.CurrentTime.IsZero() {
		t.Error("stats times should be populated")
	}
}

func TestHandler_PingDatabase(t *testing.T) {
	t.Run("healthy database answers pong", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/db/ping", nil)
		rec := httptest.NewRecorder()
		newTestMux(&mockService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "pong") {
			t.Errorf("body = %q, want pong", rec.Body.String())
		}
	})

	t.Run("unreachable database answers 503", func(t *testing.T) {
		svc := &mockService{
			pingFunc: func(ctx context.Context) error {
				return errx.E("service.Ping", errx.Unavailable, errors.New("connection refused"))
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/db/ping", nil)
		rec := httptest.NewRecorder()
		newTestMux(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}

/***************
 * Helpers
 ***************/

func TestRestoreScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https:/example.com/page", "https://example.com/page"},
		{"http:/example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"no-scheme-here", "no-scheme-here"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := restoreScheme(tt.in); got != tt.want {
				t.Errorf("restoreScheme(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
