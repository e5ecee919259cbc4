// Package normalize maps free-text channel names to canonical labels.
//
// Two related values are produced per name: Name, the display-preserving
// normalized form, and CleanKey, a stricter form used only for catalog
// matching. Both are deterministic and idempotent:
// Name(Name(x)) == Name(x) and CleanKey(CleanKey(x)) == CleanKey(x).
package normalize

import (
	"regexp"
	"strings"
)

// cctvRe matches the numbered national-network family in the many spellings
// sources use: "CCTV-1", "CCTV 5+", "cctv13 高清", "CCTV5＋" and so on.
// Group 1 is the channel number, group 2 the trailing qualifier text.
var cctvRe = regexp.MustCompile(`^CCTV[-_\s]*(\d{1,2})(.*)$`)

// plusRe detects the "+" qualifier (half-width or full-width) anywhere in
// the qualifier tail, e.g. "5+", "5 PLUS", "5＋高清".
var plusRe = regexp.MustCompile(`[+＋]|PLUS`)

// weishiRe collapses regional-broadcaster variants to one canonical
// spelling: the station name up to 卫视, with trailing quality markers
// dropped ("湖南卫视高清" → "湖南卫视"). Names carrying a real channel
// suffix ("凤凰卫视中文台") do not match and are left alone.
var weishiRe = regexp.MustCompile(`^(.{2,6}?卫视)(?:[-_\s]*(?:高清|超清|标清|频道|HD|FHD|UHD|4K|8K))*$`)

// decorative characters removed when no franchise rule applies.
var decorativeReplacer = strings.NewReplacer(
	" ", "", "\t", "",
	"(", "", ")", "", "（", "", "）", "",
	"[", "", "]", "", "【", "", "】", "",
	"-", "", "—", "", "_", "",
)

// cleanReplacer is the second, stricter pass used for match keys only.
var cleanReplacer = strings.NewReplacer(
	"$", "", "¥", "", "￥", "", "€", "",
	"「", "", "」", "", "『", "", "』", "",
	"“", "", "”", "", `"`, "", "'", "",
	"《", "", "》", "", "<", "", ">", "",
)

// synonyms maps colloquial whole names to full network names. Exact-match
// only: substring substitution would break idempotence ("TVB翡翠台" must not
// become "TVBTVB翡翠台").
var synonyms = map[string]string{
	"翡翠台":  "TVB翡翠台",
	"明珠台":  "TVB明珠台",
	"JADE": "TVB翡翠台",
	"凤凰中文": "凤凰卫视中文台",
	"凤凰资讯": "凤凰卫视资讯台",
}

// Name returns the normalized display form of a raw channel name.
//
// Rules apply in order, first franchise match wins:
//  1. upper-case and trim
//  2. CCTV<number> rewrite, keeping a "+" qualifier
//  3. regional-broadcaster (卫视) variant collapse
//  4. otherwise strip decorative whitespace/bracket/dash/underscore runs
func Name(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if m := cctvRe.FindStringSubmatch(s); m != nil {
		num := strings.TrimLeft(m[1], "0")
		if num == "" {
			num = "0"
		}
		if plusRe.MatchString(m[2]) {
			return "CCTV" + num + "+"
		}
		return "CCTV" + num
	}
	if m := weishiRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return decorativeReplacer.Replace(s)
}

// CleanKey returns the strict match key for a raw channel name. It extends
// Name with currency/quote stripping and fixed whole-name synonym
// substitution, then re-upper-cases.
func CleanKey(raw string) string {
	s := Name(raw)
	s = cleanReplacer.Replace(s)
	s = decorativeReplacer.Replace(s)
	if full, ok := synonyms[s]; ok {
		s = full
	}
	return strings.ToUpper(s)
}
