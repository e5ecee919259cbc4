package fetch

import "strings"

// maxCandidates caps the mirror/proxy fan-out per source. The original
// address always comes first; everything past the cap is dropped.
const maxCandidates = 5

// mirrorDomains are interchangeable raw-content hosts. When a source URL
// uses any of them, variants on the others are tried as fallbacks.
var mirrorDomains = []string{
	"raw.githubusercontent.com",
	"raw.gitmirror.com",
	"raw.kkgithub.com",
}

// proxyPrefixes are public pass-through frontends prepended to the full
// source URL. They help where the hosting provider is unreachable directly.
var proxyPrefixes = []string{
	"https://ghproxy.net/",
	"https://mirror.ghproxy.com/",
}

// RewriteBlobURL rewrites a hosting-provider "blob" browse URL to its
// raw-content form. Non-blob URLs are returned unchanged.
//
//	https://github.com/o/r/blob/main/tv.txt
//	→ https://raw.githubusercontent.com/o/r/main/tv.txt
func RewriteBlobURL(src string) string {
	const host = "github.com/"
	i := strings.Index(src, host)
	if i < 0 {
		return src
	}
	rest := src[i+len(host):] // o/r/blob/main/tv.txt
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) != 4 || parts[2] != "blob" {
		return src
	}
	return "https://raw.githubusercontent.com/" + parts[0] + "/" + parts[1] + "/" + parts[3]
}

// Candidates returns the ordered, deduplicated list of addresses to try for
// one source reference: the (blob-rewritten) original first, then mirror
// substitutions, then proxy-prefixed forms, capped at maxCandidates.
// All returned entries are distinct.
func Candidates(src string) []string {
	src = RewriteBlobURL(src)

	out := []string{src}
	seen := map[string]bool{src: true}
	add := func(u string) {
		if len(out) >= maxCandidates || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	for _, from := range mirrorDomains {
		if !strings.Contains(src, from) {
			continue
		}
		for _, to := range mirrorDomains {
			if to != from {
				add(strings.Replace(src, from, to, 1))
			}
		}
		break
	}

	for _, p := range proxyPrefixes {
		add(p + src)
	}

	return out
}
