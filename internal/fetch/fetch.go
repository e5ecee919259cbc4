// Package fetch resolves a source reference to document text.
//
// Each source is tried against a bounded candidate list (original address,
// mirror-domain substitutions, proxy-prefixed forms) with escalating
// per-attempt timeouts. The first candidate returning a success status and
// a non-empty decodable body wins; a source with no working candidate is a
// partial failure the caller skips, never a fatal one.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/streamcat/stream-catalog/internal/httpclient"
)

// ErrAllCandidatesFailed is returned when no mirror or proxy candidate for a
// source yielded a usable body.
var ErrAllCandidatesFailed = errors.New("fetch: all candidates failed")

// attemptTimeouts escalate per candidate; the last value applies to every
// remaining candidate.
var attemptTimeouts = []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}

// maxBodySize bounds a single source document. Playlists are small; a
// multi-hundred-MB response is a misbehaving endpoint, not a playlist.
const maxBodySize = 32 << 20

// Fetcher retrieves source documents. Zero value is not usable; use New.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher. client may be nil to use the shared default.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = httpclient.Default()
	}
	return &Fetcher{client: client}
}

// Fetch resolves src to document text. It tries Candidates(src) in order
// and returns the first decodable non-empty body.
func (f *Fetcher) Fetch(ctx context.Context, src string) (string, error) {
	cands := Candidates(src)
	for i, cand := range cands {
		text, err := f.fetchOne(ctx, cand, timeoutFor(i))
		if err != nil {
			log.Printf("fetch[%s]: candidate %d/%d %s: %v", shortRef(src), i+1, len(cands), cand, err)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", ErrAllCandidatesFailed, src)
}

// timeoutFor returns the per-attempt timeout for candidate i. The ladder
// escalates per candidate and its last rung covers every remaining one.
func timeoutFor(i int) time.Duration {
	if i >= len(attemptTimeouts) {
		i = len(attemptTimeouts) - 1
	}
	return attemptTimeouts[i]
}

func (f *Fetcher) fetchOne(ctx context.Context, u string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)
	req.Header.Set("Accept", "*/*")
	// Mirror and proxy frontends compress aggressively; ask for what we can
	// decode ourselves so the transport doesn't have to guess.
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", err
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", errors.New("empty body")
	}
	return string(raw), nil
}

// decodeBody unwraps Content-Encoding and converts the byte stream to UTF-8
// using the response's declared or sniffed charset.
func decodeBody(resp *http.Response) (io.Reader, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(r)
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		r = gz
	}
	// The charset reader consumes a preview of r before deciding, so a
	// failure here cannot fall back to the raw reader; the candidate
	// fails and the next one is tried.
	decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("charset: %w", err)
	}
	return decoded, nil
}

// shortRef trims a source reference for log lines.
func shortRef(src string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(src, "https://"), "http://")
	if i := strings.IndexByte(s, '/'); i > 0 {
		return s[:i]
	}
	return s
}
