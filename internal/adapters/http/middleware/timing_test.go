package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymbooking/internal/adapters/http/perf"
)

func TestTimingMiddleware_RecordsRoutePattern(t *testing.T) {
	collector := perf.NewCollector(100)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/classes/{id}/book", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := Timing(collector, 0)(mux)

	for _, id := range []string{"yoga-2026-03-10-0700", "spin-2026-03-10-0800"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/classes/"+id+"/book", nil))
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rr.Code)
		}
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths = %+v, want one row for the pattern", snap.SlowestPaths)
	}
	if got := snap.SlowestPaths[0]; got.Path != "POST /api/classes/{id}/book" || got.Count != 2 {
		t.Errorf("row = %+v", got)
	}
}

func TestTimingMiddleware_FallsBackToPath(t *testing.T) {
	collector := perf.NewCollector(1)
	handler := Timing(collector, 0)(http.NotFoundHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /missing" {
		t.Errorf("SlowestPaths = %+v", snap.SlowestPaths)
	}
}

func TestTimingMiddleware_NilCollector(t *testing.T) {
	handler := Timing(nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/me", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// A panicking handler still releases its statusWriter and records the entry.
func TestTimingMiddleware_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate, got nil")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/panic", nil))
}

func TestTimingMiddleware_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(100)

	handler503 := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler503.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/fail", nil))

	handler200 := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler200.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/ok", nil))

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if snap.Unavailable != 1 {
		t.Errorf("Unavailable = %d, want 1 (pool must not leak 503)", snap.Unavailable)
	}
}

func BenchmarkTimingMiddleware_Parallel(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/classes", nil))
		}
	})
}
