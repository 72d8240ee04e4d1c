package analytics

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"openlibrary-explorer/internal/models"
)

// clitics are split off the end of a word as separate tokens, longest first.
var clitics = []string{"n't", "n’t", "'re", "’re", "'ve", "’ve", "'ll", "’ll", "'s", "’s", "'d", "’d", "'m", "’m"}

// Tokenizer splits English text into word tokens and filters stopwords.
// It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	lang      language.Tag
	stopwords map[string]struct{}
}

// NewTokenizer returns a tokenizer using the built-in English stopword list.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{lang: language.English, stopwords: englishStopwords}
}

// NewTokenizerWithStopwords returns a tokenizer that drops the given words instead of the
// built-in list. Words are lowercased.
func NewTokenizerWithStopwords(words []string) *Tokenizer {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{lang: language.English, stopwords: set}
}

// IsStopword reports whether the lowercased token is in the stopword set.
func (t *Tokenizer) IsStopword(token string) bool {
	_, ok := t.stopwords[token]
	return ok
}

// Lower lowercases text with English casing rules. A Caser is stateful, so one is built per call.
func (t *Tokenizer) Lower(text string) string {
	return cases.Lower(t.lang).String(text)
}

// Tokenize splits text on whitespace, separates leading and trailing punctuation, and splits
// punctuation inside a word unless it is a single '-', '.', '/' or apostrophe between two word
// characters. A run of the same punctuation mark ("--", "...") is one token. English clitics
// ("n't", "'s", ...) become their own tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = appendFieldTokens(tokens, []rune(field))
	}
	return tokens
}

func appendFieldTokens(tokens []string, field []rune) []string {
	start, end := 0, len(field)
	for start < end && !isWordRune(field[start]) {
		start++
	}
	for end > start && !isWordRune(field[end-1]) {
		end--
	}
	tokens = appendPunct(tokens, field[:start])

	core := field[start:end]
	pieceStart := 0
	for i := 0; i < len(core); {
		if isWordRune(core[i]) || isInnerJoiner(core, i) {
			i++
			continue
		}
		j := i
		for j < len(core) && !isWordRune(core[j]) {
			j++
		}
		tokens = appendWord(tokens, string(core[pieceStart:i]))
		tokens = appendPunct(tokens, core[i:j])
		pieceStart, i = j, j
	}
	tokens = appendWord(tokens, string(core[pieceStart:]))

	return appendPunct(tokens, field[end:])
}

// appendPunct emits punctuation runes, grouping repeats of the same rune into one token.
func appendPunct(tokens []string, runes []rune) []string {
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		tokens = append(tokens, string(runes[i:j]))
		i = j
	}
	return tokens
}

func appendWord(tokens []string, word string) []string {
	if word == "" {
		return tokens
	}
	for _, c := range clitics {
		if len(word) > len(c) && strings.HasSuffix(word, c) {
			return append(tokens, word[:len(word)-len(c)], c)
		}
	}
	return append(tokens, word)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isJoiner(r rune) bool {
	return r == '-' || r == '.' || r == '/' || r == '\'' || r == '’'
}

// isInnerJoiner reports whether core[i] is a lone joiner with a word rune on each side.
func isInnerJoiner(core []rune, i int) bool {
	return isJoiner(core[i]) && i > 0 && i+1 < len(core) &&
		isWordRune(core[i-1]) && isWordRune(core[i+1])
}

// keepAlpha removes every character outside [A-Za-z].
func keepAlpha(token string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, token)
}

// Words lowercases and tokenizes all titles, drops stopwords, and reduces every remaining
// token to its ASCII letters. Tokens that end up empty are dropped.
func (t *Tokenizer) Words(titles []string) []string {
	var sb strings.Builder
	for _, title := range titles {
		sb.WriteString(title)
		sb.WriteByte(' ')
	}

	var words []string
	for _, token := range t.Tokenize(t.Lower(sb.String())) {
		if t.IsStopword(token) {
			continue
		}
		if word := keepAlpha(token); word != "" {
			words = append(words, word)
		}
	}
	return words
}

// TopWords returns at most n of the most frequent title words, most frequent first.
// Words with equal counts keep the order in which they first occurred.
func (t *Tokenizer) TopWords(titles []string, n int) []models.WordFrequency {
	if n < 1 {
		return []models.WordFrequency{}
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range t.Words(titles) {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	freqs := make([]models.WordFrequency, 0, len(order))
	for _, w := range order {
		freqs = append(freqs, models.WordFrequency{Word: w, Count: counts[w]})
	}
	slices.SortStableFunc(freqs, func(a, b models.WordFrequency) int {
		return b.Count - a.Count
	})
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}
