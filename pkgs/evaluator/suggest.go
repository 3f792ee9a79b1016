package evaluator

import (
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// findClosestMatch finds the closest candidate name to target, used to
// append a "did you mean '...'?" hint to NameError/AttributeError
// messages, modeled on planner.findClosestMatch (same
// fuzzy.RankFindFold-based lookup, applied here to identifier names
// instead of decorator names).
func findClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		return ranks[0].Target
	}
	return ""
}

// suggestSuffix renders a " Did you mean 'x'?" suffix for error messages,
// or "" when no close match exists.
func suggestSuffix(name string, candidates []string) string {
	m := findClosestMatch(name, candidates)
	if m == "" || m == name {
		return ""
	}
	return ". Did you mean '" + m + "'?"
}
