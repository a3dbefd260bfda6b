package mask

import (
	"regexp"
	"strings"

	"securelog-ecc/internal/config"
)

// kvPairRe matches word [:=：] ("..." | '...' | unquoted-bareword) (§4.2.4).
var kvPairRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]{0,63})\s*[:=：]\s*("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|[^\s,;&]+)`)

// MaskKeyValue scans message for key:value / key=value pairs and redacts
// the value when the key is in the sensitive-key set (or one of the
// implicit always-sensitive keys password/pwd/pass) (§4.2.4). Returns
// (message, false) if nothing changed.
func MaskKeyValue(cfg *config.Config, message string, col *Collector) (string, bool) {
	matches := kvPairRe.FindAllStringSubmatchIndex(message, -1)
	if matches == nil {
		return message, false
	}
	classes := newClassifier(cfg)

	var repls []replacement
	for _, m := range matches {
		keyStart, keyEnd := m[2], m[3]
		valStart, valEnd := m[4], m[5]
		key := message[keyStart:keyEnd]
		rawVal := message[valStart:valEnd]

		lowerKey := strings.ToLower(key)
		if !cfg.IsSensitiveKey(lowerKey) && lowerKey != "pwd" && lowerKey != "pass" && lowerKey != "password" {
			continue
		}

		quote := byte(0)
		val := rawVal
		if len(rawVal) >= 2 && (rawVal[0] == '"' || rawVal[0] == '\'') && rawVal[len(rawVal)-1] == rawVal[0] {
			quote = rawVal[0]
			val = rawVal[1 : len(rawVal)-1]
		}

		redacted, changed := classes.redactByKeyFamily(lowerKey, val)
		if !changed {
			continue
		}
		col.Put(key, val)

		literal := redacted
		if quote != 0 {
			literal = string(quote) + redacted + string(quote)
		}
		repls = append(repls, replacement{start: valStart, end: valEnd, literal: literal})
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
