// Command stream-catalog: one-run live-stream catalog build (run), or fetch /
// probe individual steps for debugging a source list.
//
//	run    One-run: fetch sources, match against the reference catalog, probe, write outputs
//	fetch  Fetch and parse the configured sources, report per-source record counts
//	probe  Probe a URL list (or the merged candidate set) and report latency per stream
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/streamcat/stream-catalog/internal/config"
	"github.com/streamcat/stream-catalog/internal/pipeline"
	"github.com/streamcat/stream-catalog/internal/probe"
)

func main() {
	_ = config.LoadEnvFile(".env")
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[stream-catalog] ")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runTemplate := runCmd.String("template", "", "Reference catalog path (default: STREAM_CATALOG_TEMPLATE)")
	runM3U := runCmd.String("m3u", "", "Playlist output path (default: STREAM_CATALOG_OUTPUT_M3U)")
	runTXT := runCmd.String("txt", "", "Text output path (default: STREAM_CATALOG_OUTPUT_TXT)")
	runNoProbe := runCmd.Bool("no-probe", false, "Skip latency probing; keep all matched streams")

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	fetchSources := fetchCmd.String("sources", "", "Comma-separated source URLs (default: STREAM_CATALOG_SOURCES)")

	probeCmd := flag.NewFlagSet("probe", flag.ExitOnError)
	probeURLs := probeCmd.String("urls", "", "Comma-separated stream URLs to probe")
	probeTimeout := probeCmd.Duration("timeout", 8*time.Second, "Timeout per attempt")
	probeConcurrency := probeCmd.Int("concurrency", 20, "Concurrent probes")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <run|fetch|probe> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  run    Fetch sources, match, probe, write catalog outputs\n")
		fmt.Fprintf(os.Stderr, "  fetch  Fetch and parse sources, report record counts\n")
		fmt.Fprintf(os.Stderr, "  probe  Probe stream URLs, report latency (use -urls a,b,c)\n")
		os.Exit(1)
	}

	cfg := config.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "run":
		_ = runCmd.Parse(os.Args[2:])
		if *runTemplate != "" {
			cfg.TemplatePath = *runTemplate
		}
		if *runM3U != "" {
			cfg.OutputM3U = *runM3U
		}
		if *runTXT != "" {
			cfg.OutputTXT = *runTXT
		}
		if *runNoProbe {
			cfg.ProbeEnabled = false
		}
		st, err := pipeline.Run(ctx, cfg)
		if err != nil {
			log.Printf("Run failed: %v", err)
			os.Exit(1)
		}
		if st.Entries == 0 {
			log.Print("Run produced an empty catalog; check sources and template")
			os.Exit(1)
		}

	case "fetch":
		_ = fetchCmd.Parse(os.Args[2:])
		if *fetchSources != "" {
			cfg.SourceURLs = splitList(*fetchSources)
			cfg.SourcesFile = ""
		}
		sources, err := cfg.Sources()
		if err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		var st pipeline.Stats
		reg := pipeline.Aggregate(ctx, sources, &st)
		log.Printf("%d sources (%d failed): %d records, %d duplicates dropped",
			len(sources), st.SourcesFailed, reg.Len(), reg.Duplicates())
		names := reg.Names()
		sort.Strings(names)
		for _, n := range names {
			log.Printf("  %s  (%d feeds)", n, len(reg.ByName(n)))
		}

	case "probe":
		_ = probeCmd.Parse(os.Args[2:])
		urls := splitList(*probeURLs)
		if len(urls) == 0 {
			log.Print("No URLs to probe. Pass -urls=http://host1/a.m3u8,http://host2/b.m3u8")
			os.Exit(1)
		}
		results := probe.All(ctx, urls, probe.Options{
			Concurrency: *probeConcurrency,
			Timeout:     *probeTimeout,
			Retries:     cfg.ProbeRetries,
		})
		ok := 0
		for _, u := range urls {
			r := results[u]
			if r.Success {
				ok++
				log.Printf("  OK    %4.0fms  %s", r.LatencyMs(), u)
			} else {
				log.Printf("  FAIL  %s: %s", u, r.Err)
			}
		}
		log.Printf("--- %d/%d OK ---", ok, len(urls))

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q. Use run, fetch, or probe.\n", os.Args[1])
		os.Exit(1)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
