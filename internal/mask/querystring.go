package mask

import (
	"strings"

	"securelog-ecc/internal/config"
)

// looksLikeQueryString reports whether v should be treated as a query
// string (§4.2.2): contains '=' after position 0, AND (contains '&' OR
// contains neither '{' nor ':').
func looksLikeQueryString(v string) bool {
	eq := strings.IndexByte(v, '=')
	if eq <= 0 {
		return false
	}
	if strings.ContainsRune(v, '&') {
		return true
	}
	return !strings.ContainsRune(v, '{') && !strings.ContainsRune(v, ':')
}

// MaskQueryString masks a bare query string ("k=v&k2=v2..."), collecting
// redacted values into col under pathPrefix.name (or just name when
// pathPrefix is empty). Returns (message, false) if v does not look like a
// query string.
func MaskQueryString(cfg *config.Config, v string, col *Collector, pathPrefix string) (string, bool) {
	if !cfg.QueryStringEnabled || !looksLikeQueryString(v) {
		return v, false
	}
	classes := newClassifier(cfg)
	segments := strings.Split(v, "&")

	var b strings.Builder
	redactingContinuation := false
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('&')
		}
		eq := strings.IndexByte(seg, '=')
		if eq <= 0 {
			// Continuation fragment (no '=' of its own): part of the
			// previous value if that value was sensitive (§4.2.2).
			if redactingContinuation {
				b.WriteString("***")
			} else {
				b.WriteString(seg)
			}
			continue
		}
		key := seg[:eq]
		val := seg[eq+1:]
		redacted, collect := classes.classifyValue(key, val)
		if collect {
			col.Put(joinPath(pathPrefix, key), val)
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(redacted)
			redactingContinuation = cfg.IsSensitiveKey(strings.ToLower(key)) || cfg.IsTokenLikeKey(strings.ToLower(key))
		} else {
			b.WriteString(seg)
			redactingContinuation = false
		}
	}
	return b.String(), true
}

// MaskEmbeddedQueryString locates a '?'-introduced query string inside a
// larger message (e.g. an HTTP request line), masks the run up to the
// first whitespace or '#', and splices the result back in place.
func MaskEmbeddedQueryString(cfg *config.Config, message string, col *Collector) (string, bool) {
	q := strings.IndexByte(message, '?')
	if q < 0 {
		return message, false
	}
	rest := message[q+1:]
	end := len(rest)
	for i, r := range rest {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '#' {
			end = i
			break
		}
	}
	query := rest[:end]
	if !looksLikeQueryString(query) {
		return message, false
	}
	masked, ok := MaskQueryString(cfg, query, col, "query")
	if !ok {
		return message, false
	}
	return message[:q+1] + masked + rest[end:], true
}
