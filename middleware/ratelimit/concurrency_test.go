package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConcurrencyMiddleware_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	h := ConcurrencyMiddleware(ConcurrencyOptions{Max: 0})(next)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/search.json", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}

func TestConcurrencyMiddleware_BusyReturns503WithRetryAfter(t *testing.T) {
	hold := make(chan struct{})
	entered := make(chan struct{}, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-hold
		w.WriteHeader(http.StatusOK)
	})

	var busyInUse int64 = -1
	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:            1,
		AcquireTimeout: 20 * time.Millisecond,
		OnBusy: func(r *http.Request, inUse int64) {
			busyInUse = inUse
		},
	})(next)

	first := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/search.json", nil))
		first <- w.Code
	}()

	select {
	case <-entered:
	case <-time.After(500 * time.Millisecond):
		close(hold)
		t.Fatalf("first search never started")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/search.json", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != BusyRetryAfter {
		t.Fatalf("expected Retry-After %q, got %q", BusyRetryAfter, got)
	}
	if busyInUse != 1 {
		t.Fatalf("expected OnBusy to see 1 slot in use, got %d", busyInUse)
	}

	close(hold)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("expected first search 200, got %d", code)
	}

	// vaga devolvida: próxima busca passa (hold já fechado)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/search.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected slot to be free again, got %d", w.Code)
	}
}
