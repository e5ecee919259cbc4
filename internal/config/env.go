package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ParseEnvFile reads "KEY=value" pairs from path into a map. Empty lines
// and "#" comments are skipped; single or double quotes wrapping a value
// are stripped. A missing file yields an empty map, so a checkout without
// a .env runs on the real environment alone.
func ParseEnvFile(path string) (map[string]string, error) {
	vars := map[string]string{}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return vars, nil
		}
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(line[eq+1:]))
	}
	return vars, sc.Err()
}

// LoadEnvFile applies the pairs from path to the process environment so
// the STREAM_CATALOG_* keys in a .env reach the getEnv helpers in Load.
// Variables already set in the real environment win over the file.
func LoadEnvFile(path string) error {
	vars, err := ParseEnvFile(path)
	if err != nil {
		return err
	}
	for k, v := range vars {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
