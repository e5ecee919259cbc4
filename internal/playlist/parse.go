// Package playlist converts raw playlist text to channel records.
//
// Tagged dialect: "#EXTINF:" attribute lines followed by a URL line.
// Loose dialect: "name,url" lines grouped by "category,#genre#" markers.
// The dialect is chosen by content sniffing on the "#EXTM3U" marker.
package playlist

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/streamcat/stream-catalog/internal/registry"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// genreMarker is the loose-dialect category keyword.
const genreMarker = "#genre#"

// looseSeparators are accepted between name and URL in loose-dialect lines,
// tried in order.
var looseSeparators = []string{",", "|", "#", "$"}

var (
	tvgIDRe      = regexp.MustCompile(`tvg-id="([^"]*)"`)
	tvgNameRe    = regexp.MustCompile(`tvg-name="([^"]*)"`)
	tvgLogoRe    = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	groupTitleRe = regexp.MustCompile(`group-title="([^"]*)"`)
)

// broadcastKeywords route loose-dialect names into the national-broadcast
// bucket when the source document declares no category of its own. This is
// a best-effort classification aid, never authoritative.
var broadcastKeywords = []string{"CCTV", "CGTN", "央视", "中央"}

// broadcastGroup is the bucket those names land in.
const broadcastGroup = "央视频道"

// Parse converts document text from src into records, sniffing the dialect.
func Parse(text, src string) []*registry.Record {
	if strings.Contains(text, "#EXTM3U") {
		return parseTagged(text, src)
	}
	return parseLoose(text, src)
}

// parseTagged handles the "#EXTINF" pair dialect. Attributes may appear in
// any order or be missing; the display name is the free text after the
// final comma. A record is accepted only when the URL uses an accepted
// scheme and was not already seen within this document.
func parseTagged(text, src string) []*registry.Record {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(nil, maxLineSize)

	var out []*registry.Record
	seen := make(map[string]bool)
	var extinf string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			extinf = line
			continue
		}
		if strings.HasPrefix(line, "#") {
			extinf = ""
			continue
		}
		if extinf == "" {
			continue
		}
		u := StripAnnotation(line)
		if registry.ValidURL(u) && !seen[u] {
			seen[u] = true
			name := displayName(extinf)
			rec := registry.NewRecord(src, extinf, name, u, attr(groupTitleRe, extinf))
			rec.TVGID = attr(tvgIDRe, extinf)
			rec.TVGLogo = attr(tvgLogoRe, extinf)
			out = append(out, rec)
		}
		extinf = ""
	}
	return out
}

// parseLoose handles the line-oriented "name,url" dialect. A line carrying
// the genre marker sets the current category; any other line is scanned for
// a name + separator + URL pair. When no explicit category has been set,
// keyword sniffing may route a record to the broadcast bucket.
func parseLoose(text, src string) []*registry.Record {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(nil, maxLineSize)

	var out []*registry.Record
	seen := make(map[string]bool)
	category := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, genreMarker) {
			category = looseCategory(line)
			continue
		}
		name, u, ok := splitLoose(line)
		if !ok || seen[u] {
			continue
		}
		seen[u] = true
		group := category
		if group == "" {
			group = sniffGroup(name)
		}
		out = append(out, registry.NewRecord(src, "", name, u, group))
	}
	return out
}

// looseCategory extracts the category name from a genre-marker line,
// whichever side of the separator it sits on.
func looseCategory(line string) string {
	for _, sep := range looseSeparators {
		for _, part := range strings.Split(line, sep) {
			part = strings.TrimSpace(part)
			if part != "" && part != genreMarker && !strings.Contains(part, genreMarker) {
				return part
			}
		}
	}
	return ""
}

// splitLoose scans a line for name + separator + URL using the permissive
// separator set. The first separator whose right-hand side is a valid URL
// wins.
func splitLoose(line string) (name, u string, ok bool) {
	for _, sep := range looseSeparators {
		i := strings.Index(line, sep)
		if i <= 0 {
			continue
		}
		rhs := StripAnnotation(strings.TrimSpace(line[i+len(sep):]))
		if registry.ValidURL(rhs) {
			return strings.TrimSpace(line[:i]), rhs, true
		}
	}
	return "", "", false
}

// sniffGroup is the best-effort recategorization used only when the source
// declared no category.
func sniffGroup(name string) string {
	up := strings.ToUpper(name)
	for _, kw := range broadcastKeywords {
		if strings.Contains(up, kw) {
			return broadcastGroup
		}
	}
	return ""
}

// displayName returns the free text after the final comma of an EXTINF line.
func displayName(extinf string) string {
	if i := strings.LastIndex(extinf, ","); i >= 0 {
		return strings.TrimSpace(extinf[i+1:])
	}
	return ""
}

func attr(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// StripAnnotation removes the "$..." quality/position suffix the assembler
// appends to URLs, so re-parsing our own output reproduces the bare URLs.
func StripAnnotation(u string) string {
	if i := strings.IndexByte(u, '$'); i > 0 {
		return u[:i]
	}
	return u
}
