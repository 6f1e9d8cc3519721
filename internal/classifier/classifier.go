// Package classifier assigns a content type to free text.
package classifier

import (
	"strings"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Scores holds per-label evidence produced by a Scorer.
type Scores struct {
	Code    float64
	Article float64
	Profile float64
	// Words is the whitespace-delimited word count of the scored text.
	Words int
}

// Scorer turns text into label scores. Implementations must be deterministic.
type Scorer interface {
	Score(text string) Scores
}

// KeywordScorer counts indicator substrings from fixed vocabularies.
type KeywordScorer struct {
	Code    []string
	Article []string
	Profile []string
}

// Compile-time check that KeywordScorer implements Scorer.
var _ Scorer = KeywordScorer{}

// NewKeywordScorer returns a scorer using the built-in vocabularies.
func NewKeywordScorer() KeywordScorer {
	return KeywordScorer{
		Code:    codeIndicators,
		Article: articleIndicators,
		Profile: profileIndicators,
	}
}

// Score counts distinct indicators present in text. Code also gets a bonus
// for every indented line, measured on the text as given.
func (k KeywordScorer) Score(text string) Scores {
	lower := strings.ToLower(text)

	s := Scores{
		Code:    float64(countPresent(lower, k.Code)),
		Article: float64(countPresent(lower, k.Article)),
		Profile: float64(countPresent(lower, k.Profile)),
		Words:   len(strings.Fields(text)),
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			s.Code += indentBonus
		}
	}
	return s
}

func countPresent(text string, indicators []string) int {
	n := 0
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			n++
		}
	}
	return n
}

// Classifier applies the content type decision rules to a Scorer's output.
type Classifier struct {
	scorer Scorer
}

// New creates a classifier. A nil scorer selects the keyword scorer.
func New(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewKeywordScorer()
	}
	return &Classifier{scorer: scorer}
}

// Classify returns the content type of text.
func (c *Classifier) Classify(text string) models.ContentType {
	return Decide(c.scorer.Score(text))
}

// Decide maps scores to a content type. Rules are checked in order and the
// first match wins; code needs twice the article score, so this is not a
// plain maximum.
func Decide(s Scores) models.ContentType {
	switch {
	case s.Code > 2*s.Article && s.Code > s.Profile:
		return models.ContentCode
	case s.Profile > s.Code && s.Profile > s.Article:
		return models.ContentProfile
	case s.Article > s.Code && s.Article > s.Profile:
		return models.ContentArticle
	case s.Words > postMinWords:
		return models.ContentPost
	default:
		return models.ContentUnknown
	}
}
