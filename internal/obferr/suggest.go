package obferr

import "github.com/lithammer/fuzzysearch/fuzzy"

// SuggestKeyword returns the closest match to got among a set of known
// keywords/identifiers, or "" if nothing is close enough. The parser attaches
// this to a ParseError when it rejects an identifier that looks like a typo
// of a reserved word (e.g. "retrn" where "return" was expected).
func SuggestKeyword(got string, known []string) string {
	if got == "" || len(known) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(got, known)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	if best.Distance > 2 {
		return ""
	}
	return best.Target
}
