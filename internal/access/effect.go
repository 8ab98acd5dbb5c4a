package access

import "strings"

// EffectEntry is one (right pattern, effect) pair already known to be
// relevant to a subject.
type EffectEntry struct {
	Right  string
	Effect Effect
}

// Verdict is the outcome of evaluating a list of effect entries against a
// required right. Matched holds the indexes of the deciding entries: the
// deny matches when denied, the allow matches when allowed, empty otherwise.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Matched []int
}

// EvaluateEffects applies deny-overrides-allow semantics. A single matching
// deny entry wins over any number of matching allows regardless of
// specificity or list order; there is deliberately no most-specific-wins
// rule. Entries with an empty right are skipped. A missing or unrecognized
// effect counts as allow.
func EvaluateEffects(entries []EffectEntry, requiredRight string) Verdict {
	required := strings.TrimSpace(requiredRight)
	if required == "" {
		return Verdict{Allowed: false, Reason: ReasonInvalidRight}
	}

	var denies, allows []int
	for i, entry := range entries {
		if strings.TrimSpace(entry.Right) == "" {
			continue
		}
		if !Matches(required, entry.Right) {
			continue
		}
		if entry.Effect == EffectDeny {
			denies = append(denies, i)
		} else {
			allows = append(allows, i)
		}
	}

	switch {
	case len(denies) > 0:
		return Verdict{Allowed: false, Reason: ReasonDenied, Matched: denies}
	case len(allows) > 0:
		return Verdict{Allowed: true, Reason: ReasonAllowed, Matched: allows}
	default:
		return Verdict{Allowed: false, Reason: ReasonNoMatch}
	}
}
