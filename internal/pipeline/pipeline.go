// Package pipeline runs the full aggregation pass: fetch sources, parse and
// merge records, match against the reference catalog, probe candidate
// streams, then assemble and write the output catalog.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/streamcat/stream-catalog/internal/assemble"
	"github.com/streamcat/stream-catalog/internal/config"
	"github.com/streamcat/stream-catalog/internal/fetch"
	"github.com/streamcat/stream-catalog/internal/httpclient"
	"github.com/streamcat/stream-catalog/internal/match"
	"github.com/streamcat/stream-catalog/internal/metrics"
	"github.com/streamcat/stream-catalog/internal/playlist"
	"github.com/streamcat/stream-catalog/internal/probe"
	"github.com/streamcat/stream-catalog/internal/registry"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Sources       int
	SourcesFailed int
	Records       int
	Duplicates    int
	Wanted        int
	Unmatched     int
	Probed        int
	ProbesOK      int
	Entries       int
	Elapsed       time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("sources=%d (failed=%d) records=%d dupes=%d wanted=%d unmatched=%d probed=%d ok=%d entries=%d elapsed=%s",
		s.Sources, s.SourcesFailed, s.Records, s.Duplicates, s.Wanted, s.Unmatched,
		s.Probed, s.ProbesOK, s.Entries, s.Elapsed.Round(time.Millisecond))
}

// Run executes one full aggregation pass. Configuration problems (no
// sources, unreadable reference catalog) fail before any network work;
// individual source failures are tolerated as long as at least one source
// yields records.
func Run(ctx context.Context, cfg *config.Config) (Stats, error) {
	start := time.Now()
	var st Stats

	cat, err := match.LoadCatalog(cfg.TemplatePath)
	if err != nil {
		return st, fmt.Errorf("load reference catalog: %w", err)
	}
	st.Wanted = cat.Len()

	sources, err := cfg.Sources()
	if err != nil {
		return st, err
	}
	st.Sources = len(sources)

	metrics.Serve(cfg.MetricsAddr)

	reg := Aggregate(ctx, sources, &st)
	if reg.Len() == 0 {
		return st, fmt.Errorf("no channel records from %d sources", len(sources))
	}

	matcher := match.NewMatcher(reg, cfg.FuzzyCutoff)
	matched := matcher.MatchAll(cat)
	st.Unmatched = len(matcher.Unmatched)

	var results map[string]probe.Result
	if cfg.ProbeEnabled {
		urls := candidateURLs(matched)
		st.Probed = len(urls)
		log.Printf("pipeline: probing %d candidate streams", len(urls))
		results = probe.All(ctx, urls, probe.Options{
			Concurrency:      cfg.ProbeConcurrency,
			HostConcurrency:  cfg.ProbeHostConcurrency,
			Timeout:          cfg.ProbeTimeout,
			Retries:          cfg.ProbeRetries,
			RatePerSecond:    cfg.ProbeRate,
			ProgressInterval: cfg.ProgressInterval,
		})
		for _, r := range results {
			if r.Success {
				st.ProbesOK++
				metrics.Probes.WithLabelValues("ok").Inc()
				metrics.ProbeDuration.Observe(r.Latency.Seconds())
			} else {
				metrics.Probes.WithLabelValues("failed").Inc()
			}
		}
	}

	out := assemble.Build(matched, results, assemble.Options{
		Blacklist:  cfg.Blacklist,
		MaxLatency: cfg.MaxLatency,
		PreferIPv6: cfg.PreferIPv6,
		Probed:     cfg.ProbeEnabled,
	})
	st.Entries = out.Len()
	metrics.EntriesWritten.Add(float64(st.Entries))

	if err := writeOutputs(out, cfg); err != nil {
		return st, err
	}

	st.Elapsed = time.Since(start)
	log.Printf("pipeline: done: %s", st)
	return st, nil
}

// Aggregate fetches every source and merges the parsed records into one
// registry. A failed source is logged and skipped.
func Aggregate(ctx context.Context, sources []string, st *Stats) *registry.Registry {
	fetcher := fetch.New(httpclient.Default())
	reg := registry.New()
	for _, src := range sources {
		body, err := fetcher.Fetch(ctx, src)
		if err != nil {
			st.SourcesFailed++
			metrics.SourcesFetched.WithLabelValues("failed").Inc()
			log.Printf("pipeline: source %s skipped: %v", src, err)
			continue
		}
		metrics.SourcesFetched.WithLabelValues("ok").Inc()
		recs := playlist.Parse(body, src)
		metrics.RecordsParsed.Add(float64(len(recs)))
		log.Printf("pipeline: source %s: %d records", src, len(recs))
		reg.Merge(recs)
	}
	st.Records = reg.Len()
	st.Duplicates = reg.Duplicates()
	metrics.DuplicatesDropped.Add(float64(reg.Duplicates()))
	return reg
}

// candidateURLs collects the distinct stream URLs referenced by the match
// result, preserving first-seen order.
func candidateURLs(matched []match.MatchedCategory) []string {
	seen := make(map[string]bool)
	var out []string
	for _, mc := range matched {
		for _, cand := range mc.Matches {
			for _, rec := range cand.Records {
				if !seen[rec.URL] {
					seen[rec.URL] = true
					out = append(out, rec.URL)
				}
			}
		}
	}
	return out
}

func writeOutputs(out *assemble.Output, cfg *config.Config) error {
	if cfg.OutputM3U != "" {
		if err := writeFile(cfg.OutputM3U, func(f *os.File) error {
			return assemble.WriteM3U(f, out, cfg.EPGURLs)
		}); err != nil {
			return err
		}
		log.Printf("pipeline: wrote %s", cfg.OutputM3U)
	}
	if cfg.OutputTXT != "" {
		if err := writeFile(cfg.OutputTXT, func(f *os.File) error {
			return assemble.WriteTXT(f, out)
		}); err != nil {
			return err
		}
		log.Printf("pipeline: wrote %s", cfg.OutputTXT)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
