// Package probe measures reachability and latency of candidate stream URLs.
//
// Every URL is probed once per attempt: a lightweight HEAD first, falling
// back to a GET whose body is closed as soon as status and headers arrive.
// Latency is wall clock from request start to first status. Probing runs
// under a weighted semaphore so at most Concurrency requests are in flight,
// with a per-host cap underneath it and an optional rate limiter pacing
// attempt launches.
package probe

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/streamcat/stream-catalog/internal/httpclient"
)

// Result is the outcome of testing one URL. Created once per URL per run,
// immutable afterwards. Success implies a non-negative Latency.
type Result struct {
	URL      string
	Latency  time.Duration
	Success  bool
	Err      string
	Attempts int
}

// LatencyMs returns the measured latency in milliseconds.
func (r Result) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// Options tunes a probing run. Zero values get safe defaults.
type Options struct {
	Concurrency      int           // max in-flight probes; default 20
	HostConcurrency  int           // max in-flight probes per host; default 4
	Timeout          time.Duration // per-attempt hard timeout; default 8s
	Retries          int           // extra attempts after the first; default 1
	RetryDelay       time.Duration // base inter-retry delay, grows linearly; default 1s
	ProgressInterval time.Duration // progress log cadence; 0 disables
	RatePerSecond    float64       // attempt launch pacing; 0 = unlimited
	Client           *http.Client  // nil = shared default with Timeout

	hostSem *httpclient.HostSemaphore // built per run from HostConcurrency
}

func (o *Options) applyDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = 20
	}
	if o.HostConcurrency <= 0 {
		o.HostConcurrency = 4
	}
	if o.Timeout <= 0 {
		o.Timeout = 8 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Client == nil {
		o.Client = httpclient.WithTimeout(o.Timeout)
	}
	o.hostSem = httpclient.NewHostSemaphore(o.HostConcurrency)
}

// All probes every URL in urls (assumed deduplicated) and returns one Result
// per URL. The result map is written only by the collecting goroutine; the
// workers communicate over a channel.
func All(ctx context.Context, urls []string, opts Options) map[string]Result {
	opts.applyDefaults()

	results := make(map[string]Result, len(urls))
	if len(urls) == 0 {
		return results
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	out := make(chan Result, opts.Concurrency)
	done := make(chan struct{})
	go func() {
		defer close(done)
		collected := 0
		var ticker *time.Ticker
		var tick <-chan time.Time
		if opts.ProgressInterval > 0 {
			ticker = time.NewTicker(opts.ProgressInterval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for collected < len(urls) {
			select {
			case r := <-out:
				results[r.URL] = r
				collected++
			case <-tick:
				log.Printf("probe: %d/%d (%.1f%%)", collected, len(urls),
					float64(collected*100)/float64(len(urls)))
			}
		}
	}()

	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				out <- Result{URL: u, Err: err.Error(), Attempts: 0}
				return
			}
			defer sem.Release(1)
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					out <- Result{URL: u, Err: err.Error(), Attempts: 0}
					return
				}
			}
			out <- probeWithRetry(ctx, u, opts)
		}(u)
	}
	wg.Wait()
	<-done
	return results
}

// probeWithRetry loops attempts with a linearly-increasing delay until one
// succeeds or the retry budget is spent.
func probeWithRetry(ctx context.Context, u string, opts Options) Result {
	res := Result{URL: u}

	parsed, err := url.Parse(u)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		// Non-HTTP transports cannot be header-probed; pass them through
		// as reachable with no latency measurement.
		res.Success = true
		return res
	}

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		res.Attempts = attempt + 1
		latency, err := attemptOnce(ctx, u, opts)
		if err == nil {
			res.Success = true
			res.Latency = latency
			res.Err = ""
			return res
		}
		res.Err = err.Error()
		if !retryable(err) {
			return res
		}
		if attempt < opts.Retries {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(opts.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}
	return res
}

// attemptOnce issues one probe. HEAD when the server supports it, otherwise
// a GET closed right after the status line and headers.
func attemptOnce(ctx context.Context, u string, opts Options) (time.Duration, error) {
	release := opts.hostSem.Acquire(u)
	defer release()

	actx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	latency, err := doAttempt(actx, http.MethodHead, u, opts.Client)
	if err == nil {
		return latency, nil
	}
	if se, ok := err.(statusError); ok && !headUnsupported(int(se)) {
		return 0, err
	}

	// HEAD rejected or transport-level failure: one streamed GET, aborted
	// after headers, timed from its own start.
	return doAttempt(actx, http.MethodGet, u, opts.Client)
}

func doAttempt(ctx context.Context, method, u string, client *http.Client) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, statusError(resp.StatusCode)
	}
	return latency, nil
}

// headUnsupported reports statuses that mean "try GET instead" rather than
// "this stream is down".
func headUnsupported(code int) bool {
	switch code {
	case http.StatusMethodNotAllowed, http.StatusNotImplemented, http.StatusForbidden:
		return true
	}
	return false
}

// retryable reports whether an attempt error is worth another try. Client
// errors other than 429 are final; transport errors and 5xx are not.
func retryable(err error) bool {
	if se, ok := err.(statusError); ok {
		code := int(se)
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

type statusError int

func (e statusError) Error() string {
	return "unexpected status: " + http.StatusText(int(e))
}
