package mask

import (
	"strconv"
	"strings"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/maskrule"
)

const sqlParametersMarker = "parameters:"

// sqlEntry is one "value(TypeName)" token from a SQL parameters tail.
type sqlEntry struct {
	start, end int // byte range within the tail, covering "value(TypeName)"
	value      string
	typeName   string
}

// MaskSQLParameters masks the "Parameters: v1(Type1), v2(Type2), ..." tail
// of a SQL log line (§4.2.3). Returns (message, false) if the marker is
// absent.
func MaskSQLParameters(cfg *config.Config, message string, col *Collector) (string, bool) {
	idx := strings.Index(strings.ToLower(message), sqlParametersMarker)
	if idx < 0 {
		return message, false
	}
	tailStart := idx + len(sqlParametersMarker)
	tail := message[tailStart:]

	entries := splitSQLEntries(tail)
	if len(entries) == 0 {
		return message, false
	}

	var repls []replacement
	for i, e := range entries {
		if !strings.EqualFold(e.typeName, "String") {
			continue
		}
		redacted, changed := classifySQLValue(cfg, e.value)
		if !changed {
			continue
		}
		col.Put("sqlparameters["+strconv.Itoa(i)+"]", e.value)
		repls = append(repls, replacement{
			start:   tailStart + e.start,
			end:     tailStart + e.end,
			literal: redacted + "(" + e.typeName + ")",
		})
	}
	if len(repls) == 0 {
		return message, false
	}

	for i := 0; i < len(repls); i++ {
		for j := i + 1; j < len(repls); j++ {
			if repls[j].start > repls[i].start {
				repls[i], repls[j] = repls[j], repls[i]
			}
		}
	}
	out := message
	for _, r := range repls {
		out = out[:r.start] + r.literal + out[r.end:]
	}
	return out, true
}

func classifySQLValue(cfg *config.Config, v string) (string, bool) {
	maxLen := cfg.MaxValueLength
	switch {
	case maskrule.IsIDCard(v, maxLen):
		return maskrule.MaskIDCard(v), true
	case maskrule.IsMobile(v, maxLen):
		return maskrule.MaskPhone(v), true
	case maskrule.IsEmail(v, maxLen):
		return maskrule.MaskEmail(v), true
	case maskrule.IsStrictAddress(v, maxLen, maskrule.AddressKeywords{
		RequireRegion: cfg.AddressRequireRegion,
		RequireDetail: cfg.AddressRequireDetail,
		Region:        cfg.AddressRegionWords,
		Detail:        cfg.AddressDetailWords,
		Exclude:       cfg.AddressExcludeWords,
	}):
		return maskrule.MaskAddress(v), true
	case maskrule.IsEmptyLike(v):
		return v, false
	default:
		return "***", true
	}
}

// splitSQLEntries tokenizes tail into "value(TypeName)" entries, splitting
// on top-level commas only (parenthesis nesting inside a type name does not
// split an entry) (§4.2.3).
func splitSQLEntries(tail string) []sqlEntry {
	var entries []sqlEntry
	depth := 0
	entryStart := 0
	skipLeadingWS := true

	for i := 0; i < len(tail); i++ {
		c := tail[i]
		if skipLeadingWS {
			if c == ' ' || c == '\t' {
				entryStart = i + 1
				continue
			}
			skipLeadingWS = false
		}
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if e, ok := parseSQLEntry(tail[entryStart:i]); ok {
					e.start, e.end = entryStart, i
					entries = append(entries, e)
				}
				entryStart = i + 1
				skipLeadingWS = true
			}
		}
	}
	if entryStart < len(tail) {
		remainder := strings.TrimRight(tail[entryStart:], " \t\r\n")
		if e, ok := parseSQLEntry(remainder); ok {
			e.start, e.end = entryStart, entryStart+len(remainder)
			entries = append(entries, e)
		}
	}
	return entries
}

// parseSQLEntry splits "value(TypeName)" into its value and type parts,
// using the last matching parenthesis pair so a value itself containing
// parentheses is preserved intact.
func parseSQLEntry(s string) (sqlEntry, bool) {
	if len(s) == 0 || s[len(s)-1] != ')' {
		return sqlEntry{}, false
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return sqlEntry{}, false
	}
	return sqlEntry{value: s[:open], typeName: s[open+1 : len(s)-1]}, true
}
