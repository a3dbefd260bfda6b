package mask

import (
	"strings"

	"securelog-ecc/internal/config"
)

// frame tracks one level of JSON nesting while walking, for path
// reconstruction (§4.2.1).
type frame struct {
	isArray bool
	field   string // the key that opened this frame, if any (object element)
	index   int    // last-assigned array index, for array frames
}

type replacement struct {
	start, end int // byte range of the original quoted token, end exclusive
	literal    string
}

// MaskJSON walks message as JSON token-by-token (no regex, no decode into
// any — §9) and redacts sensitive string leaves in place, preserving
// structure and order (§4.2.1). It returns the rewritten document; on any
// parse error it returns the input unchanged together with ok=false so the
// caller can fall through to the next shape.
func MaskJSON(cfg *config.Config, message string, col *Collector) (string, bool) {
	w := &jsonWalker{
		cfg:     cfg,
		col:     col,
		classes: newClassifier(cfg),
		src:     message,
	}
	if !w.walkValue(0, nil) {
		return message, false
	}
	return w.applyReplacements(), true
}

type jsonWalker struct {
	cfg     *config.Config
	col     *Collector
	classes *classifier
	src     string
	pos     int
	repls   []replacement
}

func (w *jsonWalker) peek() byte {
	if w.pos >= len(w.src) {
		return 0
	}
	return w.src[w.pos]
}

func (w *jsonWalker) skipWS() {
	for w.pos < len(w.src) {
		switch w.src[w.pos] {
		case ' ', '\t', '\n', '\r':
			w.pos++
		default:
			return
		}
	}
}

// walkValue parses one JSON value starting at w.pos (after skipping
// leading whitespace), using path to build the full path string of any
// string leaf found directly (not nested further). Returns false on parse
// failure.
func (w *jsonWalker) walkValue(depth int, path []frame) bool {
	w.skipWS()
	if w.pos >= len(w.src) {
		return false
	}
	switch w.peek() {
	case '{':
		return w.walkObject(depth, path)
	case '[':
		return w.walkArray(depth, path)
	case '"':
		return w.walkString(path) != nil
	default:
		return w.walkLiteral()
	}
}

func (w *jsonWalker) walkObject(depth int, path []frame) bool {
	w.pos++ // consume '{'
	w.skipWS()
	if w.peek() == '}' {
		w.pos++
		return true
	}
	for {
		w.skipWS()
		if w.peek() != '"' {
			return false
		}
		keyStart := w.pos
		keyTok := w.walkString(nil)
		if keyTok == nil {
			return false
		}
		key := unescapeJSON(w.src[keyStart+1 : keyTok.end-1])

		w.skipWS()
		if w.peek() != ':' {
			return false
		}
		w.pos++
		w.skipWS()

		childPath := append(append([]frame{}, path...), frame{field: key})

		if w.peek() == '"' {
			valTok := w.walkString(nil)
			if valTok == nil {
				return false
			}
			w.handleStringLeaf(childPath, *valTok, depth)
		} else {
			if !w.walkValue(depth, childPath) {
				return false
			}
		}

		w.skipWS()
		switch w.peek() {
		case ',':
			w.pos++
			continue
		case '}':
			w.pos++
			return true
		default:
			return false
		}
	}
}

func (w *jsonWalker) walkArray(depth int, path []frame) bool {
	w.pos++ // consume '['
	w.skipWS()
	if w.peek() == ']' {
		w.pos++
		return true
	}
	idx := 0
	for {
		w.skipWS()
		childPath := append(append([]frame{}, path...), frame{isArray: true, index: idx})
		idx++

		if w.peek() == '"' {
			valTok := w.walkString(nil)
			if valTok == nil {
				return false
			}
			w.handleStringLeaf(childPath, *valTok, depth)
		} else {
			if !w.walkValue(depth, childPath) {
				return false
			}
		}

		w.skipWS()
		switch w.peek() {
		case ',':
			w.pos++
			continue
		case ']':
			w.pos++
			return true
		default:
			return false
		}
	}
}

// stringToken records the byte range [start,end) of a parsed JSON string
// literal, including its surrounding quotes.
type stringToken struct {
	start, end int
}

// walkString consumes a JSON string literal starting at the current quote,
// honoring backslash escapes, and returns its byte range. Returns nil on
// malformed input (unterminated string).
func (w *jsonWalker) walkString(_ []frame) *stringToken {
	start := w.pos
	w.pos++ // consume opening quote
	for w.pos < len(w.src) {
		c := w.src[w.pos]
		if c == '\\' {
			w.pos += 2
			continue
		}
		if c == '"' {
			w.pos++
			return &stringToken{start: start, end: w.pos}
		}
		w.pos++
	}
	return nil
}

func (w *jsonWalker) walkLiteral() bool {
	start := w.pos
	for w.pos < len(w.src) {
		switch w.src[w.pos] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return w.pos > start
		}
		w.pos++
	}
	return w.pos > start
}

// handleStringLeaf runs the value classifier on a string leaf and, if it
// should be redacted, queues a byte-range replacement and collects the
// original (§4.2.1).
func (w *jsonWalker) handleStringLeaf(path []frame, tok stringToken, depth int) {
	raw := w.src[tok.start+1 : tok.end-1]
	v := unescapeJSON(raw)
	key := lastFieldName(path)

	redacted, collect := w.classes.classifyValue(key, v)
	if collect {
		w.repls = append(w.repls, replacement{start: tok.start, end: tok.end, literal: escapeJSON(redacted)})
		w.col.Put(pathString(path), v)
		return
	}

	// Step 4/5 of §4.2.1: try query-string masking, then embedded JSON.
	if masked, ok := MaskQueryString(w.cfg, v, w.col, pathString(path)); ok {
		w.repls = append(w.repls, replacement{start: tok.start, end: tok.end, literal: escapeJSON(masked)})
		return
	}
	if depth < 2 {
		trimmed := strings.TrimSpace(v)
		if looksLikeEmbeddedJSON(trimmed) {
			sub := NewCollector()
			inner := &jsonWalker{cfg: w.cfg, col: sub, classes: w.classes, src: trimmed}
			if inner.walkValue(depth+1, nil) && sub.Len() > 0 {
				maskedInner := inner.applyReplacements()
				for _, p := range sub.Pairs() {
					w.col.Put(joinPath(pathString(path), p.Path), p.Value)
				}
				w.repls = append(w.repls, replacement{start: tok.start, end: tok.end, literal: escapeJSON(maskedInner)})
			}
		}
	}
}

func looksLikeEmbeddedJSON(v string) bool {
	if len(v) < 2 {
		return false
	}
	first, last := v[0], v[len(v)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

func joinPath(outer, inner string) string {
	if outer == "" {
		return inner
	}
	return outer + "." + inner
}

func lastFieldName(path []frame) string {
	if len(path) == 0 {
		return ""
	}
	last := path[len(path)-1]
	if last.isArray {
		return ""
	}
	return last.field
}

// pathString renders a frame stack as "a.b[2].c" (§3).
func pathString(path []frame) string {
	var b strings.Builder
	for _, f := range path {
		if f.isArray {
			b.WriteByte('[')
			b.WriteString(itoaFrame(f.index))
			b.WriteByte(']')
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.field)
	}
	return b.String()
}

func itoaFrame(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// applyReplacements rewrites w.src with all queued replacements, applied in
// descending start-offset order so earlier offsets stay valid (§4.2.1).
func (w *jsonWalker) applyReplacements() string {
	if len(w.repls) == 0 {
		return w.src
	}
	repls := append([]replacement{}, w.repls...)
	for i := 0; i < len(repls); i++ {
		for j := i + 1; j < len(repls); j++ {
			if repls[j].start > repls[i].start {
				repls[i], repls[j] = repls[j], repls[i]
			}
		}
	}
	out := w.src
	for _, r := range repls {
		out = out[:r.start] + r.literal + out[r.end:]
	}
	return out
}

// unescapeJSON decodes the backslash escapes of a JSON string literal body
// (without surrounding quotes). Malformed escapes pass through literally.
func unescapeJSON(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '/':
			b.WriteByte('/')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+4 < len(s) {
				r := decodeHex4(s[i+1 : i+5])
				b.WriteRune(r)
				i += 4
			}
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func decodeHex4(s string) rune {
	var r rune
	for i := 0; i < 4 && i < len(s); i++ {
		c := s[i]
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		}
	}
	return r
}

// escapeJSON re-encodes a raw string as a quoted JSON string literal,
// escaping backslash, quote, and control characters (§4.2.1).
func escapeJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u00")
				const hex = "0123456789abcdef"
				b.WriteByte(hex[(r>>4)&0xf])
				b.WriteByte(hex[r&0xf])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
