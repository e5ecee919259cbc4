package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/streamcat/stream-catalog/internal/config"
)

func TestRun_endToEnd(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/src.txt", func(w http.ResponseWriter, r *http.Request) {
		doc := "央视频道,#genre#\n" +
			"CCTV-1," + srv.URL + "/live/cctv1\n" +
			"CCTV-1," + srv.URL + "/live/cctv1-backup\n" +
			"卫视频道,#genre#\n" +
			"湖南卫视HD," + srv.URL + "/live/hunan\n"
		w.Write([]byte(doc))
	})
	mux.HandleFunc("/live/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "backup") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	template := filepath.Join(dir, "template.txt")
	tmpl := "央视频道,#genre#\nCCTV1\n卫视频道,#genre#\n湖南卫视\n凤凰卫视中文台\n"
	if err := os.WriteFile(template, []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		SourceURLs:       []string{srv.URL + "/src.txt"},
		TemplatePath:     template,
		OutputM3U:        filepath.Join(dir, "live.m3u"),
		OutputTXT:        filepath.Join(dir, "live.txt"),
		ProbeEnabled:     true,
		ProbeConcurrency: 4,
		ProbeTimeout:     3 * time.Second,
		FuzzyCutoff:      0.4,
	}

	st, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if st.Sources != 1 || st.SourcesFailed != 0 {
		t.Errorf("sources: %+v", st)
	}
	if st.Records != 3 {
		t.Errorf("Records = %d, want 3", st.Records)
	}
	if st.Unmatched != 1 { // 凤凰卫视中文台 has no candidate
		t.Errorf("Unmatched = %d, want 1", st.Unmatched)
	}
	// backup URL probes 404 and is dropped
	if st.Entries != 2 {
		t.Errorf("Entries = %d, want 2", st.Entries)
	}

	m3u, err := os.ReadFile(cfg.OutputM3U)
	if err != nil {
		t.Fatal(err)
	}
	text := string(m3u)
	if !strings.HasPrefix(text, "#EXTM3U") {
		t.Fatalf("bad playlist header:\n%s", text)
	}
	if !strings.Contains(text, ",CCTV1\n") || !strings.Contains(text, ",湖南卫视\n") {
		t.Errorf("desired names missing from playlist:\n%s", text)
	}
	if !strings.Contains(text, srv.URL+"/live/cctv1$IPV4•") {
		t.Errorf("surviving URL not annotated:\n%s", text)
	}
	if strings.Contains(text, "backup") {
		t.Errorf("failed stream leaked into output:\n%s", text)
	}

	txt, err := os.ReadFile(cfg.OutputTXT)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(txt), "央视频道,#genre#") {
		t.Errorf("txt output missing genre marker:\n%s", txt)
	}
}

func TestRun_probingDisabled(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/src.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CCTV-1," + srv.URL + "/live/cctv1\n"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	template := filepath.Join(dir, "template.txt")
	if err := os.WriteFile(template, []byte("央视频道,#genre#\nCCTV1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		SourceURLs:   []string{srv.URL + "/src.txt"},
		TemplatePath: template,
		OutputTXT:    filepath.Join(dir, "live.txt"),
		FuzzyCutoff:  0.4,
	}

	st, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if st.Probed != 0 {
		t.Errorf("Probed = %d, want 0", st.Probed)
	}
	if st.Entries != 1 {
		t.Errorf("Entries = %d, want 1", st.Entries)
	}
	txt, err := os.ReadFile(cfg.OutputTXT)
	if err != nil {
		t.Fatal(err)
	}
	// No latency segment without probing.
	if strings.Contains(string(txt), "ms") {
		t.Errorf("unexpected latency annotation:\n%s", txt)
	}
}

func TestRun_missingTemplateFailsEarly(t *testing.T) {
	cfg := &config.Config{
		SourceURLs:   []string{"http://unused.example/src.txt"},
		TemplatePath: filepath.Join(t.TempDir(), "absent.txt"),
	}
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing reference catalog")
	}
}

func TestRun_noSourcesFailsEarly(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "template.txt")
	if err := os.WriteFile(template, []byte("CCTV1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{TemplatePath: template}
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error when no sources are configured")
	}
}
