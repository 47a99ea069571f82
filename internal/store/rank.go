package store

import "strings"

// trigrams returns the set of 3-character windows of text, lowercased.
// Strings shorter than three characters are treated as a single "trigram"
// equal to themselves, so very short queries still have something to compare.
func trigrams(text string) map[string]struct{} {
	text = strings.ToLower(text)
	runes := []rune(text)

	set := make(map[string]struct{})
	if len(runes) < 3 {
		if len(runes) > 0 {
			set[text] = struct{}{}
		}
		return set
	}
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// trigramSimilarity is the Jaccard ratio |A∩B| / |A∪B| of two trigram sets.
func trigramSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matches := 0
	for t := range a {
		if _, ok := b[t]; ok {
			matches++
		}
	}

	union := len(a) + len(b) - matches
	if union == 0 {
		return 1
	}
	return float64(matches) / float64(union)
}

// tokenScore measures what fraction of the query tokens appear in a
// candidate's searchname. Each matched token scores 1, plus 0.5 when the
// whole name starts with it, or 0.3 when any word in the name starts with
// it. The total is divided by the token count.
func tokenScore(tokens []string, searchname string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	searchname = strings.ToLower(searchname)
	matched := 0.0

	for _, token := range tokens {
		if !strings.Contains(searchname, token) {
			continue
		}
		matched += 1.0

		if strings.HasPrefix(searchname, token) {
			matched += 0.5
			continue
		}
		for _, word := range strings.Fields(searchname) {
			if strings.HasPrefix(word, token) {
				matched += 0.3
				break
			}
		}
	}

	return matched / float64(len(tokens))
}
