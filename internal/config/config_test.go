package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	c := Load()
	if c.ProbeConcurrency != 20 {
		t.Errorf("ProbeConcurrency = %d, want 20", c.ProbeConcurrency)
	}
	if c.ProbeHostConcurrency != 4 {
		t.Errorf("ProbeHostConcurrency = %d, want 4", c.ProbeHostConcurrency)
	}
	if c.ProbeTimeout != 8*time.Second {
		t.Errorf("ProbeTimeout = %v, want 8s", c.ProbeTimeout)
	}
	if c.FuzzyCutoff != 0.4 {
		t.Errorf("FuzzyCutoff = %v, want 0.4", c.FuzzyCutoff)
	}
	if !c.ProbeEnabled {
		t.Error("ProbeEnabled should default to true")
	}
	if c.PreferIPv6 {
		t.Error("PreferIPv6 should default to false")
	}
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("STREAM_CATALOG_SOURCES", "http://a.example/x.m3u, http://b.example/y.txt")
	t.Setenv("STREAM_CATALOG_PROBE_CONCURRENCY", "5")
	t.Setenv("STREAM_CATALOG_PROBE_HOST_CONCURRENCY", "2")
	t.Setenv("STREAM_CATALOG_MAX_LATENCY", "2s")
	t.Setenv("STREAM_CATALOG_PROBE", "no")
	t.Setenv("STREAM_CATALOG_BLACKLIST", "bad-cdn,stale.example")

	c := Load()
	if len(c.SourceURLs) != 2 || c.SourceURLs[1] != "http://b.example/y.txt" {
		t.Fatalf("SourceURLs = %v", c.SourceURLs)
	}
	if c.ProbeConcurrency != 5 {
		t.Errorf("ProbeConcurrency = %d, want 5", c.ProbeConcurrency)
	}
	if c.ProbeHostConcurrency != 2 {
		t.Errorf("ProbeHostConcurrency = %d, want 2", c.ProbeHostConcurrency)
	}
	if c.MaxLatency != 2*time.Second {
		t.Errorf("MaxLatency = %v, want 2s", c.MaxLatency)
	}
	if c.ProbeEnabled {
		t.Error("ProbeEnabled should be off")
	}
	if len(c.Blacklist) != 2 {
		t.Errorf("Blacklist = %v", c.Blacklist)
	}
}

func TestLoad_invalidCutoffFallsBack(t *testing.T) {
	t.Setenv("STREAM_CATALOG_FUZZY_CUTOFF", "1.5")
	if c := Load(); c.FuzzyCutoff != 0.4 {
		t.Errorf("FuzzyCutoff = %v, want default 0.4", c.FuzzyCutoff)
	}
}

func TestSources_fromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.txt")
	data := "# mirrors\nhttp://c.example/list.txt\n\nhttp://d.example/list.m3u\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STREAM_CATALOG_SOURCES", "http://a.example/x.m3u")
	t.Setenv("STREAM_CATALOG_SOURCES_FILE", path)

	c := Load()
	got, err := c.Sources()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"http://a.example/x.m3u", "http://c.example/list.txt", "http://d.example/list.m3u"}
	if len(got) != len(want) {
		t.Fatalf("Sources() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sources()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSources_noneConfigured(t *testing.T) {
	c := &Config{}
	if _, err := c.Sources(); err == nil {
		t.Fatal("expected error when no sources are configured")
	}
}
