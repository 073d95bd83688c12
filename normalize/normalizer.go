package normalize

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/larder/core"
)

// DefaultStopWords are promotional and brand terms stripped from recipe titles.
var DefaultStopWords = []string{
	"백종원", "레시피", "만들기", "만드는 법", "황금레시피",
	"꿀맛이네", "초간단", "밑반찬", "백파더", "골목식당",
}

var (
	parenAside   = regexp.MustCompile(`\([^)]*\)`)
	bracketAside = regexp.MustCompile(`\[[^\]]*\]`)
	titleCut     = regexp.MustCompile(`[#♡~]`)
	whitespace   = regexp.MustCompile(`\s+`)
	commaRun     = regexp.MustCompile(`\s*,[\s,]*`)
	lineBreak    = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Normalizer rewrites raw records into canonical form. The zero value is not
// usable; construct with New.
type Normalizer struct {
	stopWords []string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStopWords replaces the stop-word list removed from titles.
func WithStopWords(words ...string) Option {
	return func(n *Normalizer) {
		n.stopWords = slices.Clone(words)
	}
}

// New creates a Normalizer with DefaultStopWords unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{stopWords: slices.Clone(DefaultStopWords)}
	for _, opt := range opts {
		opt(n)
	}
	// longest first so compound terms are removed before their parts
	slices.SortStableFunc(n.stopWords, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return n
}

var defaultNormalizer = New()

// Normalize cleans a record with the default stop-word list.
func Normalize(record core.RawRecord) core.NormalizedRecord {
	return defaultNormalizer.Normalize(record)
}

// Normalize cleans the title and ingredients of a record and builds its combined text.
func (n *Normalizer) Normalize(record core.RawRecord) core.NormalizedRecord {
	title := n.CleanTitle(record.Title)
	ingredients := CleanIngredients(record.Ingredients)
	return core.NormalizedRecord{
		ID:           record.ID,
		Title:        title,
		Ingredients:  ingredients,
		Steps:        record.Steps,
		URL:          record.URL,
		CombinedText: CombinedText(title, ingredients, record.Steps),
	}
}

// CleanTitle removes stop words and parenthetical or bracketed asides, cuts the
// title at the first decorative delimiter and trims whitespace.
func (n *Normalizer) CleanTitle(title string) string {
	for _, word := range n.stopWords {
		if word == "" {
			continue
		}
		title = strings.ReplaceAll(title, word, "")
	}
	title = parenAside.ReplaceAllString(title, "")
	title = bracketAside.ReplaceAllString(title, "")
	if loc := titleCut.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	title = whitespace.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// CleanIngredients turns line breaks into spaces, collapses whitespace and comma
// runs and trims separators from both ends.
func CleanIngredients(ingredients string) string {
	cleaned := lineBreak.Replace(ingredients)
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = commaRun.ReplaceAllString(cleaned, ", ")
	return strings.Trim(cleaned, " ,")
}

// CombinedText builds the embeddable body of a recipe.
func CombinedText(title, ingredients, steps string) string {
	return "요리 제목: " + title + "\n필요한 재료: " + ingredients + "\n만드는 법: " + steps
}
