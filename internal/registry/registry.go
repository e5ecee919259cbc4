// Package registry holds the canonical channel records observed during one
// pipeline run and merges per-source batches into a single URL-keyed view.
//
// A Registry is constructed fresh for every run and handed to the later
// stages by reference; no process-wide state survives between runs.
package registry

import (
	"net/url"
	"strings"

	"github.com/streamcat/stream-catalog/internal/normalize"
)

// DefaultGroup is the category used when a source does not declare one.
const DefaultGroup = "uncategorized"

// acceptedSchemes are the protocols a record URL may use. Anything else is
// discarded at parse time. Non-HTTP schemes are carried through but cannot
// be latency-probed.
var acceptedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtmp":  true,
	"rtsp":  true,
	"mms":   true,
	"udp":   true,
	"rtp":   true,
}

// ValidURL reports whether s is non-empty, parses, and uses an accepted
// scheme with a host.
func ValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return acceptedSchemes[strings.ToLower(u.Scheme)] && u.Host != ""
}

// Record is one observed (name, URL) pairing from one source document.
type Record struct {
	URL       string // unique identity key across the whole pipeline
	SourceURL string // provenance
	RawTag    string // verbatim playlist entry, kept for faithful re-emission

	TVGID   string
	TVGLogo string
	Group   string // category; DefaultGroup when the source had none

	DisplayName   string // as found in the source
	CanonicalName string // normalize.Name(DisplayName)
	CleanKey      string // normalize.CleanKey(DisplayName)
}

// NewRecord builds a Record with the canonical name and clean key computed.
func NewRecord(sourceURL, rawTag, displayName, streamURL, group string) *Record {
	if group == "" {
		group = DefaultGroup
	}
	return &Record{
		URL:           streamURL,
		SourceURL:     sourceURL,
		RawTag:        rawTag,
		Group:         group,
		DisplayName:   displayName,
		CanonicalName: normalize.Name(displayName),
		CleanKey:      normalize.CleanKey(displayName),
	}
}

// Registry is the aggregate of all sources, deduplicated strictly by URL
// identity. First-seen wins; colliding later records are only counted.
// Insertion order is preserved so downstream output is deterministic.
type Registry struct {
	byURL  map[string]*Record
	order  []string             // URLs in first-seen order
	byName map[string][]*Record // canonical display name → records, insertion order
	byKey  map[string][]*Record // clean key → records, insertion order

	dupes int
}

func New() *Registry {
	return &Registry{
		byURL:  make(map[string]*Record),
		byName: make(map[string][]*Record),
		byKey:  make(map[string][]*Record),
	}
}

// Merge folds one per-source batch into the registry, in slice order.
// Records whose URL was already seen are dropped silently and counted.
func (r *Registry) Merge(batch []*Record) {
	for _, rec := range batch {
		if _, seen := r.byURL[rec.URL]; seen {
			r.dupes++
			continue
		}
		r.byURL[rec.URL] = rec
		r.order = append(r.order, rec.URL)
		r.byName[rec.CanonicalName] = append(r.byName[rec.CanonicalName], rec)
		r.byKey[rec.CleanKey] = append(r.byKey[rec.CleanKey], rec)
	}
}

// Lookup returns the record for a URL, or nil.
func (r *Registry) Lookup(streamURL string) *Record { return r.byURL[streamURL] }

// ByName returns the records whose canonical display name is name.
func (r *Registry) ByName(name string) []*Record { return r.byName[name] }

// ByCleanKey returns the records whose clean match key is key.
func (r *Registry) ByCleanKey(key string) []*Record { return r.byKey[key] }

// Names returns all distinct canonical display names, first-seen order.
func (r *Registry) Names() []string {
	seen := make(map[string]bool, len(r.byName))
	out := make([]string, 0, len(r.byName))
	for _, u := range r.order {
		n := r.byURL[u].CanonicalName
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// CleanKeys returns all distinct clean keys, first-seen order.
func (r *Registry) CleanKeys() []string {
	seen := make(map[string]bool, len(r.byKey))
	out := make([]string, 0, len(r.byKey))
	for _, u := range r.order {
		k := r.byURL[u].CleanKey
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of distinct URLs.
func (r *Registry) Len() int { return len(r.order) }

// Duplicates returns how many records were dropped as URL duplicates.
func (r *Registry) Duplicates() int { return r.dupes }
