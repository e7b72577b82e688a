package keyword

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Suggestion is a corrected query for a search that found nothing useful.
type Suggestion struct {
	Query      string   `json:"query"`
	Misspelled []string `json:"misspelled"`
}

// Suggest replaces every query term that is not in the index with the
// closest indexed term within maxDistance edits. Ties go to the term found in
// more patients, then alphabetically. ok is false when nothing was corrected.
func (b *PatientIndex) Suggest(query string, maxDistance int) (Suggestion, bool) {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	dict, err := b.Terms()
	if err != nil {
		b.logger.Debug("suggestion unavailable", zap.Error(err))
		return Suggestion{}, false
	}
	known := make([]string, 0, len(dict))
	for t := range dict {
		known = append(known, t)
	}
	sort.Strings(known)

	terms := tokenizeQuery(query)
	var s Suggestion
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = term
		if _, ok := dict[term]; ok {
			continue
		}
		best, bestDist := "", maxDistance+1
		for _, cand := range known {
			diff := len([]rune(cand)) - len([]rune(term))
			if diff > maxDistance || -diff > maxDistance {
				continue
			}
			d := LevenshteinDistance(term, cand)
			if d < bestDist || d == bestDist && best != "" && dict[cand] > dict[best] {
				best, bestDist = cand, d
			}
		}
		if best != "" {
			out[i] = best
			s.Misspelled = append(s.Misspelled, term)
		}
	}
	if len(s.Misspelled) == 0 {
		return Suggestion{}, false
	}
	s.Query = strings.Join(out, " ")
	return s, true
}
