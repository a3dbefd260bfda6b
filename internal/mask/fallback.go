package mask

import (
	"regexp"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/maskrule"
)

// addressCandidateRe is a loose scan for runs of CJK text long enough to be
// worth testing against the strict two-stage address gate (§4.2.5, §9's
// "tighten it" decision: still gated by IsStrictAddress, not a looser
// separate check).
var addressCandidateRe = regexp.MustCompile(`[\p{Han}][\p{Han}0-9A-Za-z]{3,}`)

type fallbackMatch struct {
	start, end int
	formatted  string
	original   string
	path       string
}

// MaskFallback scans message with the four disjoint plain-text recognizers
// (id_card, mobile, email, address-candidate) and redacts each literal
// match (§4.2.5). Collisions are resolved by applying replacements in
// descending-offset order. Always returns ok=true: this is the safety-net
// shape and never "fails" to apply, even if nothing was found.
func MaskFallback(cfg *config.Config, message string, col *Collector) (string, bool) {
	if !cfg.FallbackEnabled {
		return message, true
	}
	maxLen := cfg.MaxValueLength
	var matches []fallbackMatch

	for _, rng := range maskrule.FindIDCards(message) {
		v := message[rng[0]:rng[1]]
		matches = append(matches, fallbackMatch{rng[0], rng[1], maskrule.MaskIDCard(v), v, "idcard"})
	}
	for _, rng := range maskrule.FindMobiles(message) {
		v := message[rng[0]:rng[1]]
		matches = append(matches, fallbackMatch{rng[0], rng[1], maskrule.MaskPhone(v), v, "mobile"})
	}
	for _, rng := range maskrule.FindEmails(message) {
		v := message[rng[0]:rng[1]]
		matches = append(matches, fallbackMatch{rng[0], rng[1], maskrule.MaskEmail(v), v, "email"})
	}

	kw := maskrule.AddressKeywords{
		RequireRegion: cfg.AddressRequireRegion,
		RequireDetail: cfg.AddressRequireDetail,
		Region:        cfg.AddressRegionWords,
		Detail:        cfg.AddressDetailWords,
		Exclude:       cfg.AddressExcludeWords,
	}
	for _, rng := range addressCandidateRe.FindAllStringIndex(message, -1) {
		v := message[rng[0]:rng[1]]
		if maskrule.IsStrictAddress(v, maxLen, kw) {
			matches = append(matches, fallbackMatch{rng[0], rng[1], maskrule.MaskAddress(v), v, "address"})
		}
	}

	if len(matches) == 0 {
		return message, true
	}

	matches = removeOverlaps(matches)
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].start > matches[i].start {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}

	out := message
	for _, m := range matches {
		out = out[:m.start] + m.formatted + out[m.end:]
	}
	for _, m := range matches {
		col.Put(m.path, m.original)
	}
	return out, true
}

// removeOverlaps keeps the first match (in the fixed recognizer-priority
// order they were appended) whenever two candidate ranges overlap.
func removeOverlaps(matches []fallbackMatch) []fallbackMatch {
	kept := make([]fallbackMatch, 0, len(matches))
	for _, m := range matches {
		overlaps := false
		for _, k := range kept {
			if m.start < k.end && k.start < m.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, m)
		}
	}
	return kept
}
