package fetch

import (
	"strings"
	"testing"
)

func TestRewriteBlobURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{
			"https://github.com/o/r/blob/main/tv.txt",
			"https://raw.githubusercontent.com/o/r/main/tv.txt",
		},
		{
			"https://github.com/o/r/blob/dev/dir/list.m3u",
			"https://raw.githubusercontent.com/o/r/dev/dir/list.m3u",
		},
		// Already raw: unchanged.
		{
			"https://raw.githubusercontent.com/o/r/main/tv.txt",
			"https://raw.githubusercontent.com/o/r/main/tv.txt",
		},
		// Unrelated host: unchanged.
		{"http://example.com/blob/x", "http://example.com/blob/x"},
	}
	for _, c := range cases {
		if got := RewriteBlobURL(c.in); got != c.want {
			t.Errorf("RewriteBlobURL(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestCandidates_boundAndOrder(t *testing.T) {
	srcs := []string{
		"https://raw.githubusercontent.com/o/r/main/tv.txt",
		"https://github.com/o/r/blob/main/tv.txt",
		"http://example.com/list.txt",
	}
	for _, src := range srcs {
		got := Candidates(src)
		if len(got) == 0 || len(got) > 5 {
			t.Fatalf("Candidates(%q): %d entries; want 1..5", src, len(got))
		}
		if got[0] != RewriteBlobURL(src) {
			t.Errorf("Candidates(%q)[0] = %q; want original first", src, got[0])
		}
		seen := make(map[string]bool)
		for _, c := range got {
			if seen[c] {
				t.Errorf("Candidates(%q): duplicate entry %q", src, c)
			}
			seen[c] = true
		}
	}
}

func TestCandidates_mirrorSubstitution(t *testing.T) {
	got := Candidates("https://raw.githubusercontent.com/o/r/main/tv.txt")
	var mirrored bool
	for _, c := range got {
		if strings.Contains(c, "raw.gitmirror.com") {
			mirrored = true
		}
	}
	if !mirrored {
		t.Errorf("no mirror-domain candidate in %v", got)
	}
}

func TestCandidates_nonMirrorHostGetsProxies(t *testing.T) {
	got := Candidates("http://example.com/list.txt")
	if len(got) != 1+len([]string{"a", "b"}) { // original + both proxy prefixes
		t.Fatalf("Candidates = %v; want original + 2 proxied", got)
	}
	for _, c := range got[1:] {
		if !strings.HasSuffix(c, "http://example.com/list.txt") {
			t.Errorf("proxied candidate %q does not wrap the original", c)
		}
	}
}
