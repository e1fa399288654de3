// Package dedupe collapses result streams from the two search phases into a
// set with at most one lead per registrable domain.
package dedupe

import (
	"net/url"
	"strings"

	"github.com/FranksOps/prospect/internal/storage"
)

// NormalizeDomain extracts the registrable host from a URL: scheme stripped,
// leading "www." removed, path dropped, lowercased. A bare host is accepted.
func NormalizeDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	host := u.Hostname()
	if host == "" {
		// "example.com/page" parses with an empty host; take the path head.
		host = u.Path
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
	}

	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// NormalizeURL produces the comparison form of a URL: scheme, host, and path
// lowercased with query, fragment, and trailing slashes dropped.
func NormalizeURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	normalized := u.Scheme + "://" + u.Host + u.Path
	return strings.ToLower(strings.TrimRight(normalized, "/"))
}

// Tracker records keys seen so far within one phase. It is not safe for
// concurrent use; each execution session owns exactly one per phase.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Add records a key and reports whether it was new.
func (t *Tracker) Add(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys recorded.
func (t *Tracker) Len() int {
	return len(t.seen)
}

// Merge combines the web and maps result streams into a single set with one
// lead per normalized domain. Web results are visited before maps results,
// and within each stream input order is preserved, so the first lead seen for
// a domain wins. Records without a resolvable domain are dropped. Before the
// cross-phase merge, web results are deduplicated by exact URL and maps
// results by (business name, address).
//
// The output draws every lead verbatim from the input; no fields are
// synthesized or combined across duplicates.
func Merge(web, maps []*storage.Lead) []*storage.Lead {
	web = dedupByKey(web, func(l *storage.Lead) string { return l.URL })
	maps = dedupByKey(maps, func(l *storage.Lead) string {
		if l.BusinessName == "" && l.Address == "" {
			return ""
		}
		return l.BusinessName + "\x00" + l.Address
	})

	domains := NewTracker()
	out := make([]*storage.Lead, 0, len(web)+len(maps))
	for _, phase := range [][]*storage.Lead{web, maps} {
		for _, l := range phase {
			domain := l.Domain
			if domain == "" {
				domain = NormalizeDomain(l.URL)
			}
			if domain == "" {
				continue
			}
			if domains.Add(domain) {
				out = append(out, l)
			}
		}
	}
	return out
}

// dedupByKey keeps the first lead per non-empty key, preserving order. Leads
// producing an empty key pass through untouched.
func dedupByKey(leads []*storage.Lead, key func(*storage.Lead) string) []*storage.Lead {
	t := NewTracker()
	out := make([]*storage.Lead, 0, len(leads))
	for _, l := range leads {
		k := key(l)
		if k != "" && !t.Add(k) {
			continue
		}
		out = append(out, l)
	}
	return out
}
