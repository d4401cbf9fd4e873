package internal

import (
	"bufio"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// BlocklistFilename holds domain patterns that must never be recorded,
// one gitignore-style pattern per line. Typical entries:
//
//	*.bank.example
//	mail.google.com
//	accounts.*
const BlocklistFilename = ".retraceignore"

// Blocklist filters captures by domain before they reach the store.
type Blocklist struct {
	patterns []gitignore.Pattern
}

// NewBlocklist loads the blocklist file from dataDir. A missing file
// yields an empty blocklist, which matches nothing.
func NewBlocklist(dataDir string) (*Blocklist, error) {
	path := filepath.Join(dataDir, BlocklistFilename)
	patterns, err := parseBlocklistFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &Blocklist{patterns: patterns}, nil
}

// BlockedURL reports whether the capture URL's domain is blocked.
func (b *Blocklist) BlockedURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return b.BlockedDomain(u.Hostname())
}

// BlockedDomain matches a domain against the patterns. A pattern is
// tried both against the whole domain and against its dot-separated
// labels, so `mail.google.com` and `*.bank.example` both work.
func (b *Blocklist) BlockedDomain(domain string) bool {
	if domain == "" || len(b.patterns) == 0 {
		return false
	}

	domain = strings.ToLower(domain)
	labels := strings.Split(domain, ".")

	for _, p := range b.patterns {
		if p.Match([]string{domain}, false) == gitignore.Exclude {
			return true
		}
		if p.Match(labels, false) == gitignore.Exclude {
			return true
		}
	}
	return false
}

func parseBlocklistFile(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
