package match

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ErrEmptyCatalog is returned when the reference catalog file exists but
// yields no desired names. The caller treats this as an operator error.
var ErrEmptyCatalog = errors.New("match: reference catalog is empty")

// Catalog is the curated, ordered list of desired channel names per
// category. Loaded once, read-only for the rest of the run.
type Catalog struct {
	Categories []Category
}

// Category is one ordered block of desired names.
type Category struct {
	Name  string
	Wants []string
}

// LoadCatalog reads a reference catalog file. Both dialects are accepted:
// flat text ("category,#genre#" markers, one desired name per line) and the
// tagged playlist form (group-title attributes carry the category, the
// display name is the desired name).
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := ParseCatalog(string(data))
	// Marker-only files parse to categories with zero names; count the
	// names, not the categories.
	if c.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// ParseCatalog parses reference catalog text.
func ParseCatalog(text string) *Catalog {
	if strings.Contains(text, "#EXTM3U") {
		return parseTaggedCatalog(text)
	}
	return parseLooseCatalog(text)
}

func parseLooseCatalog(text string) *Catalog {
	c := &Catalog{}
	var cur *Category
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.Contains(line, "#genre#") {
			name := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
			c.Categories = append(c.Categories, Category{Name: name})
			cur = &c.Categories[len(c.Categories)-1]
			continue
		}
		if cur == nil {
			// Names before any marker land in an implicit first category.
			c.Categories = append(c.Categories, Category{Name: ""})
			cur = &c.Categories[0]
		}
		// Tolerate "name,url"-style lines in hand-edited templates.
		name := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
		if name != "" {
			cur.Wants = append(cur.Wants, name)
		}
	}
	return c
}

func parseTaggedCatalog(text string) *Catalog {
	c := &Catalog{}
	idx := make(map[string]int)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#EXTINF:") {
			continue
		}
		group := attrValue(line, `group-title="`)
		name := line
		if i := strings.LastIndex(line, ","); i >= 0 {
			name = strings.TrimSpace(line[i+1:])
		}
		if name == "" {
			continue
		}
		pos, ok := idx[group]
		if !ok {
			c.Categories = append(c.Categories, Category{Name: group})
			pos = len(c.Categories) - 1
			idx[group] = pos
		}
		c.Categories[pos].Wants = append(c.Categories[pos].Wants, name)
	}
	return c
}

func attrValue(line, prefix string) string {
	i := strings.Index(line, prefix)
	if i < 0 {
		return ""
	}
	rest := line[i+len(prefix):]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return ""
}

// Len returns the total number of desired names across all categories.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Wants)
	}
	return n
}
