package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds pipeline settings.
// Load from env and/or a .env file (call LoadEnvFile before Load).
type Config struct {
	// Sources
	SourceURLs  []string // STREAM_CATALOG_SOURCES, comma-separated
	SourcesFile string   // optional file with one source URL per line

	// Reference catalog
	TemplatePath string // path to the catalog of desired channels

	// Outputs
	OutputM3U string
	OutputTXT string
	EPGURLs   []string // joined into the x-tvg-url playlist header

	// Probing
	ProbeEnabled         bool
	ProbeConcurrency     int
	ProbeHostConcurrency int // per-host in-flight cap during probing
	ProbeTimeout         time.Duration
	ProbeRetries         int
	ProbeRate            float64       // probe launches per second; 0 = unpaced
	MaxLatency           time.Duration // drop probed streams slower than this; 0 = keep all
	ProgressInterval     time.Duration // 0 = no progress logging

	// Matching
	FuzzyCutoff float64 // similarity floor for fuzzy name matching

	// Assembly
	PreferIPv6 bool
	Blacklist  []string // case-insensitive URL substrings to drop

	// Observability
	MetricsAddr string // e.g. ":9105"; "" = exporter disabled
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load()
// to use a .env file.
func Load() *Config {
	c := &Config{
		SourceURLs:           getEnvList("STREAM_CATALOG_SOURCES"),
		SourcesFile:          os.Getenv("STREAM_CATALOG_SOURCES_FILE"),
		TemplatePath:         getEnv("STREAM_CATALOG_TEMPLATE", "./template.txt"),
		OutputM3U:            getEnv("STREAM_CATALOG_OUTPUT_M3U", "./live.m3u"),
		OutputTXT:            getEnv("STREAM_CATALOG_OUTPUT_TXT", "./live.txt"),
		EPGURLs:              getEnvList("STREAM_CATALOG_EPG_URLS"),
		ProbeEnabled:         getEnvBool("STREAM_CATALOG_PROBE", true),
		ProbeConcurrency:     getEnvInt("STREAM_CATALOG_PROBE_CONCURRENCY", 20),
		ProbeHostConcurrency: getEnvInt("STREAM_CATALOG_PROBE_HOST_CONCURRENCY", 4),
		ProbeTimeout:         getEnvDuration("STREAM_CATALOG_PROBE_TIMEOUT", 8*time.Second),
		ProbeRetries:         getEnvInt("STREAM_CATALOG_PROBE_RETRIES", 1),
		ProbeRate:            getEnvFloat("STREAM_CATALOG_PROBE_RATE", 0),
		MaxLatency:           getEnvDuration("STREAM_CATALOG_MAX_LATENCY", 0),
		ProgressInterval:     getEnvDuration("STREAM_CATALOG_PROGRESS_INTERVAL", 10*time.Second),
		FuzzyCutoff:          getEnvFloat("STREAM_CATALOG_FUZZY_CUTOFF", 0.4),
		PreferIPv6:           getEnvBool("STREAM_CATALOG_PREFER_IPV6", false),
		Blacklist:            getEnvList("STREAM_CATALOG_BLACKLIST"),
		MetricsAddr:          os.Getenv("STREAM_CATALOG_METRICS_ADDR"),
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = 20
	}
	if c.ProbeHostConcurrency <= 0 {
		c.ProbeHostConcurrency = 4
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 8 * time.Second
	}
	if c.ProbeRetries < 0 {
		c.ProbeRetries = 0
	}
	if c.FuzzyCutoff <= 0 || c.FuzzyCutoff >= 1 {
		c.FuzzyCutoff = 0.4
	}
	return c
}

// Sources returns all source URLs: STREAM_CATALOG_SOURCES plus the contents
// of STREAM_CATALOG_SOURCES_FILE (one URL per line, # comments allowed).
func (c *Config) Sources() ([]string, error) {
	out := append([]string(nil), c.SourceURLs...)
	if c.SourcesFile != "" {
		fromFile, err := readSourcesFile(c.SourcesFile)
		if err != nil {
			return nil, err
		}
		out = append(out, fromFile...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no source URLs: set STREAM_CATALOG_SOURCES or STREAM_CATALOG_SOURCES_FILE")
	}
	return out, nil
}

func readSourcesFile(path string) ([]string, error) {
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	s := os.Getenv(key)
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
