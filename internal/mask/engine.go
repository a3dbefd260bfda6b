package mask

import (
	"strings"

	"securelog-ecc/internal/config"
)

// Engine dispatches a message to the right shape masker in priority order
// and accumulates the path->original map (§4.3).
type Engine struct {
	cfg *config.Config
}

// NewEngine returns an Engine bound to cfg.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Shape identifies which shape masker handled a message (§4.3), for callers
// that want to record per-shape dispatch counters.
type Shape string

const (
	ShapeJSON      Shape = "json"
	ShapeSQL       Shape = "sql"
	ShapeURLQuery  Shape = "url_query"
	ShapeQueryBare Shape = "query_bare"
	ShapeKeyValue  Shape = "key_value"
	ShapeFallback  Shape = "fallback"
)

// Mask runs the dispatch order of §4.3 and returns the masked message, the
// collected originals, and which shape masker handled it. The ordering is
// intentional: JSON first (any further heuristic over JSON would corrupt
// structure), SQL next (specific enough to precede generic k/v), plain text
// last as the safety net.
func (e *Engine) Mask(message string) (string, *Collector, Shape) {
	col := NewCollector()

	if looksLikeJSONDocument(message) {
		if masked, ok := MaskJSON(e.cfg, message, col); ok {
			return masked, col, ShapeJSON
		}
	}

	if masked, ok := MaskSQLParameters(e.cfg, message, col); ok {
		return masked, col, ShapeSQL
	}

	if masked, ok := MaskEmbeddedQueryString(e.cfg, message, col); ok {
		return masked, col, ShapeURLQuery
	}

	if e.cfg.QueryStringEnabled && looksLikeQueryString(message) {
		if masked, ok := MaskQueryString(e.cfg, message, col, ""); ok {
			return masked, col, ShapeQueryBare
		}
	}

	if masked, ok := MaskKeyValue(e.cfg, message, col); ok {
		return masked, col, ShapeKeyValue
	}

	masked, _ := MaskFallback(e.cfg, message, col)
	return masked, col, ShapeFallback
}

// looksLikeJSONDocument reports whether the trimmed message begins and
// ends with matching JSON brackets (§4.3 step 1).
func looksLikeJSONDocument(message string) bool {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) < 2 {
		return false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}
