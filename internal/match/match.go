// Package match aligns the aggregate registry against the reference
// catalog, producing candidate URLs per desired channel name.
//
// Matching order, first hit wins: exact display name, exact clean key,
// fuzzy display name, fuzzy clean key. Fuzzy matching is a similarity-ratio
// nearest neighbour (Sørensen–Dice over bigrams) with a configurable
// cutoff. A desired name with no match is a diagnostic, never an error.
package match

import (
	"log"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/streamcat/stream-catalog/internal/normalize"
	"github.com/streamcat/stream-catalog/internal/registry"
)

// DefaultCutoff is the minimum similarity ratio for a fuzzy hit.
const DefaultCutoff = 0.4

// Candidates maps a desired channel name to the registry records offering
// it, preserving source order.
type Candidates struct {
	Want    string // desired name as written in the catalog
	Records []*registry.Record
}

// Matcher runs catalog-to-registry alignment.
type Matcher struct {
	reg    *registry.Registry
	cutoff float64
	dice   *metrics.SorensenDice

	Unmatched []string // desired names with zero candidates, in catalog order
}

// NewMatcher returns a Matcher over reg. cutoff ≤ 0 uses DefaultCutoff.
func NewMatcher(reg *registry.Registry, cutoff float64) *Matcher {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &Matcher{reg: reg, cutoff: cutoff, dice: metrics.NewSorensenDice()}
}

// Match resolves one desired name to its candidate records.
func (m *Matcher) Match(want string) []*registry.Record {
	name := normalize.Name(want)
	key := normalize.CleanKey(want)

	if recs := m.reg.ByName(name); len(recs) > 0 {
		return recs
	}
	if recs := m.reg.ByCleanKey(key); len(recs) > 0 {
		return recs
	}
	if best := m.nearest(name, m.reg.Names()); best != "" {
		return m.reg.ByName(best)
	}
	if best := m.nearest(key, m.reg.CleanKeys()); best != "" {
		return m.reg.ByCleanKey(best)
	}
	return nil
}

// MatchedCategory pairs one catalog category with its resolved candidates,
// both in catalog order.
type MatchedCategory struct {
	Name    string
	Matches []Candidates
}

// MatchAll resolves every desired name in the catalog, in catalog order.
// Unmatched names are collected for diagnostics.
func (m *Matcher) MatchAll(cat *Catalog) []MatchedCategory {
	out := make([]MatchedCategory, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		mc := MatchedCategory{Name: c.Name}
		for _, want := range c.Wants {
			recs := m.Match(want)
			if len(recs) == 0 {
				m.Unmatched = append(m.Unmatched, want)
				continue
			}
			mc.Matches = append(mc.Matches, Candidates{Want: want, Records: recs})
		}
		out = append(out, mc)
	}
	if len(m.Unmatched) > 0 {
		log.Printf("match: %d desired name(s) unmatched: %v", len(m.Unmatched), m.Unmatched)
	}
	return out
}

// nearest returns the choice with the highest similarity ratio to target,
// or "" when nothing clears the cutoff. Ties keep the earlier choice so the
// result is deterministic in registry order.
func (m *Matcher) nearest(target string, choices []string) string {
	best := ""
	bestScore := m.cutoff
	for _, c := range choices {
		score := strutil.Similarity(target, c, m.dice)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}
