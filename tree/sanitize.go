package tree

import "sync"

// sanitized caches previous results. Entries are immutable once stored and
// keyed by the exact input, so the cache is safe to share across requests.
var sanitized sync.Map

// Sanitize maps a path to a string usable as an HTML element id. ASCII
// letters, digits, '-', '_', ':' and '.' pass through; every other rune
// becomes a single underscore. The folding is lossy: two paths that differ
// only in replaced runes share an id.
func Sanitize(path string) string {
	if v, ok := sanitized.Load(path); ok {
		return v.(string)
	}

	out := make([]byte, 0, len(path))
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == ':', r == '.':
			out = append(out, byte(r))
		default:
			out = append(out, '_')
		}
	}

	s := string(out)
	sanitized.Store(path, s)
	return s
}
