package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAll_successAndFailure(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	results := All(context.Background(), []string{ok.URL, bad.URL}, Options{
		Concurrency: 4,
		Timeout:     2 * time.Second,
		Retries:     2,
		RetryDelay:  time.Millisecond,
	})

	r := results[ok.URL]
	if !r.Success || r.Latency < 0 {
		t.Errorf("ok result = %+v", r)
	}
	if r.Attempts != 1 {
		t.Errorf("ok Attempts = %d; want 1 (success stops the retry loop)", r.Attempts)
	}

	r = results[bad.URL]
	if r.Success {
		t.Errorf("bad result = %+v; want failure", r)
	}
	if r.Attempts != 1 {
		t.Errorf("404 Attempts = %d; want 1 (client errors are not retried)", r.Attempts)
	}
	if r.Err == "" {
		t.Error("failed result carries no error")
	}
}

func TestAll_retriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	results := All(context.Background(), []string{srv.URL}, Options{
		Retries:    2,
		RetryDelay: time.Millisecond,
	})
	r := results[srv.URL]
	if !r.Success {
		t.Fatalf("result = %+v; want eventual success", r)
	}
	if r.Attempts != 3 {
		t.Errorf("Attempts = %d; want 3", r.Attempts)
	}
}

func TestAll_headFallsBackToGet(t *testing.T) {
	var sawGet int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		atomic.StoreInt32(&sawGet, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	results := All(context.Background(), []string{srv.URL}, Options{})
	r := results[srv.URL]
	if !r.Success {
		t.Fatalf("result = %+v; want success via GET fallback", r)
	}
	if atomic.LoadInt32(&sawGet) != 1 {
		t.Error("server never saw the GET fallback")
	}
}

func TestAll_nonHTTPSchemePassesThrough(t *testing.T) {
	results := All(context.Background(), []string{"rtsp://10.0.0.1/ch1"}, Options{})
	r := results["rtsp://10.0.0.1/ch1"]
	if !r.Success || r.Latency != 0 {
		t.Errorf("rtsp result = %+v; want success with zero latency", r)
	}
}

func TestAll_boundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = srv.URL + "/" + string(rune('a'+i))
	}
	All(context.Background(), urls, Options{Concurrency: 3})

	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Errorf("peak in-flight = %d; want ≤ 3", p)
	}
}

func TestAll_hostConcurrencyCap(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	// All URLs share one host: the per-host cap, not the global gate,
	// must bound in-flight requests.
	urls := make([]string, 10)
	for i := range urls {
		urls[i] = srv.URL + "/" + string(rune('a'+i))
	}
	All(context.Background(), urls, Options{Concurrency: 8, HostConcurrency: 2})

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak in-flight = %d; want ≤ 2 (per-host cap)", p)
	}
}
