// Package stopwords holds the fixed English stop-word set used by the
// normaliser's token filter. The list is a compile-time constant — it is
// never mutated or loaded from configuration, so fingerprinting stays
// stable across processes and releases.
package stopwords

// words is deliberately unexported: callers go through Contains so the set
// can never be mutated from outside the package.
var words = buildSet(list)

// Contains reports whether tok (already lower-cased) is a stop word.
func Contains(tok string) bool {
	_, ok := words[tok]
	return ok
}

func buildSet(entries []string) map[string]struct{} {
	m := make(map[string]struct{}, len(entries))
	for _, w := range entries {
		m[w] = struct{}{}
	}

	return m
}

// list is a fixed ~180-entry English stop-word list.
var list = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can't",
	"cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't",
	"doing", "don't", "down", "during", "each", "few", "for", "from",
	"further", "had", "hadn't", "has", "hasn't", "have", "haven't", "having",
	"he", "he'd", "he'll", "he's", "her", "here", "here's", "hers",
	"herself", "him", "himself", "his", "how", "how's", "i", "i'd", "i'll",
	"i'm", "i've", "if", "in", "into", "is", "isn't", "it", "it's", "its",
	"itself", "let's", "me", "more", "most", "mustn't", "my", "myself",
	"no", "nor", "not", "of", "off", "on", "once", "only", "or", "other",
	"ought", "our", "ours", "ourselves", "out", "over", "own", "same",
	"shan't", "she", "she'd", "she'll", "she's", "should", "shouldn't",
	"so", "some", "such", "than", "that", "that's", "the", "their",
	"theirs", "them", "themselves", "then", "there", "there's", "these",
	"they", "they'd", "they'll", "they're", "they've", "this", "those",
	"through", "to", "too", "under", "until", "up", "very", "was", "wasn't",
	"we", "we'd", "we'll", "we're", "we've", "were", "weren't", "what",
	"what's", "when", "when's", "where", "where's", "which", "while", "who",
	"who's", "whom", "why", "why's", "with", "won't", "would", "wouldn't",
	"you", "you'd", "you'll", "you're", "you've", "your", "yours",
	"yourself", "yourselves", "also", "back", "even", "get", "give", "go",
	"just", "know", "like", "make", "many", "much", "new", "now", "one",
	"see", "say", "still", "take", "two", "well", "will", "year", "first",
}
