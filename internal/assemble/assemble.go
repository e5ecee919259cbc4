// Package assemble filters, orders, and annotates matched candidates into
// the final output catalog.
//
// Filtering drops URLs already written elsewhere in the catalog (global
// dedup), URLs carrying a blacklist keyword, and URLs that failed or
// exceeded the latency threshold. Survivors are sorted by address-family
// preference then ascending latency, and annotated with a
// "$FAMILY•position•latency" suffix. Once built, an Output is not mutated.
package assemble

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/streamcat/stream-catalog/internal/match"
	"github.com/streamcat/stream-catalog/internal/probe"
	"github.com/streamcat/stream-catalog/internal/registry"
)

// Family labels used in URL annotations.
const (
	FamilyIPv4 = "IPV4"
	FamilyIPv6 = "IPV6"
)

// Options tunes assembly.
type Options struct {
	Blacklist  []string      // case-insensitive URL substrings to drop
	MaxLatency time.Duration // drop slower probes; 0 = no threshold
	PreferIPv6 bool          // IPv6-first ordering instead of IPv4-first
	Probed     bool          // false = no probing was requested; skip latency filtering
}

// Entry is one surviving URL in the output catalog.
type Entry struct {
	Want    string // desired channel name from the reference catalog
	URL     string // bare URL
	Display string // URL with annotation suffix, as emitted
	Latency time.Duration
	Record  *registry.Record // originating record, for tvg attributes
}

// Category is one ordered output block.
type Category struct {
	Name    string
	Entries []Entry
}

// Output is the final ordered catalog.
type Output struct {
	Categories []Category
}

// Len returns the total number of entries.
func (o *Output) Len() int {
	n := 0
	for _, c := range o.Categories {
		n += len(c.Entries)
	}
	return n
}

// Build produces the output catalog from matched candidates and probe
// results. The written set is owned by this single pass; nothing else
// mutates it.
func Build(matched []match.MatchedCategory, results map[string]probe.Result, opts Options) *Output {
	out := &Output{}
	written := make(map[string]bool)

	for _, mc := range matched {
		cat := Category{Name: mc.Name}
		for _, cand := range mc.Matches {
			entries := surviving(cand, results, opts, written)
			for i := range entries {
				entries[i].Display = annotate(entries[i], i, len(entries), opts.Probed)
				written[entries[i].URL] = true
			}
			cat.Entries = append(cat.Entries, entries...)
		}
		out.Categories = append(out.Categories, cat)
	}
	return out
}

// surviving filters and orders one desired name's candidates. written is
// consulted but not updated here; the caller marks URLs only after the
// survivors are final.
func surviving(cand match.Candidates, results map[string]probe.Result, opts Options, written map[string]bool) []Entry {
	var out []Entry
	for _, rec := range cand.Records {
		if written[rec.URL] || blacklisted(rec.URL, opts.Blacklist) {
			continue
		}
		e := Entry{Want: cand.Want, URL: rec.URL, Record: rec}
		if opts.Probed {
			r, ok := results[rec.URL]
			if !ok || !r.Success {
				continue
			}
			if opts.MaxLatency > 0 && r.Latency > opts.MaxLatency {
				continue
			}
			e.Latency = r.Latency
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := familyRank(out[i].URL, opts.PreferIPv6), familyRank(out[j].URL, opts.PreferIPv6)
		if fi != fj {
			return fi < fj
		}
		// Ascending latency; missing latency sorts last.
		li, lj := out[i].Latency, out[j].Latency
		if (li > 0) != (lj > 0) {
			return li > 0
		}
		return li < lj
	})
	return out
}

func blacklisted(u string, blacklist []string) bool {
	lu := strings.ToLower(u)
	for _, kw := range blacklist {
		if kw != "" && strings.Contains(lu, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Family classifies a URL by literal address family. Hostnames count as
// IPv4: only an IPv6 literal host is IPv6. The test is deliberately cheap;
// no resolution happens here.
func Family(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return FamilyIPv4
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		return FamilyIPv6
	}
	return FamilyIPv4
}

// familyRank orders families by preference: 0 sorts first.
func familyRank(rawURL string, preferIPv6 bool) int {
	isV6 := Family(rawURL) == FamilyIPv6
	if isV6 == preferIPv6 {
		return 0
	}
	return 1
}

// annotate builds the "$FAMILY•position•latency" suffix. The position is
// only present when more than one sibling survived for the same name; the
// latency segment only when one was measured.
func annotate(e Entry, idx, siblings int, probed bool) string {
	parts := []string{Family(e.URL)}
	if siblings > 1 {
		parts = append(parts, fmt.Sprintf("%d", idx+1))
	}
	if probed && e.Latency > 0 {
		parts = append(parts, fmt.Sprintf("%dms", e.Latency.Milliseconds()))
	}
	return e.URL + "$" + strings.Join(parts, "•")
}
