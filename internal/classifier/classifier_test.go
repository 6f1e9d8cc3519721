package classifier_test

import (
	"strings"
	"testing"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/classifier"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/stretchr/testify/assert"
)

const genericSentence = "the cat sat on the mat and the dog ran in the park while the sun was warm " +
	"and the birds sang in the tall green trees near the old river bank"

func TestClassify(t *testing.T) {
	c := classifier.New(nil)

	articleText := strings.Repeat("Abstract: Introduction: Conclusion: In this article we discuss "+
		"research shows according to published study author argues examines investigates. ", 5)

	tests := []struct {
		name string
		text string
		want models.ContentType
	}{
		{"code sample", strings.Repeat("def foo():\n    return 1\n", 3), models.ContentCode},
		{"article markers", articleText, models.ContentArticle},
		{"profile markers", "Experience: five years. Skills: Go and SQL. Education: BSc", models.ContentProfile},
		{"short generic text", "the weather is nice today", models.ContentUnknown},
		{"long generic text", genericSentence, models.ContentPost},
		{"empty", "", models.ContentUnknown},
		{"indentation alone", "\tx\n\ty\n", models.ContentCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := classifier.New(nil)
	text := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(text))
	}
}

func TestDecidePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		scores classifier.Scores
		want   models.ContentType
	}{
		{"code needs twice article", classifier.Scores{Code: 3, Article: 2}, models.ContentUnknown},
		{"code with margin", classifier.Scores{Code: 5, Article: 2}, models.ContentCode},
		{"code ties profile", classifier.Scores{Code: 2, Profile: 2}, models.ContentUnknown},
		{"profile wins", classifier.Scores{Code: 1, Profile: 2, Article: 1}, models.ContentProfile},
		{"article over code", classifier.Scores{Code: 2, Article: 3}, models.ContentArticle},
		{"article ties profile", classifier.Scores{Article: 2, Profile: 2, Words: 30}, models.ContentPost},
		{"exactly twenty words", classifier.Scores{Words: 20}, models.ContentUnknown},
		{"twenty one words", classifier.Scores{Words: 21}, models.ContentPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Decide(tt.scores))
		})
	}
}

func TestKeywordScorer(t *testing.T) {
	s := classifier.NewKeywordScorer()

	t.Run("markers counted once", func(t *testing.T) {
		got := s.Score("return return return")
		assert.Equal(t, 1.0, got.Code)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := s.Score("LINKEDIN Profile")
		assert.Equal(t, 2.0, got.Profile)
	})

	t.Run("indent bonus per line", func(t *testing.T) {
		got := s.Score("    a\n    b\n\tc\nd")
		assert.Equal(t, 1.5, got.Code)
		assert.Equal(t, 4, got.Words)
	})
}

type fixedScorer struct{ scores classifier.Scores }

func (f fixedScorer) Score(string) classifier.Scores { return f.scores }

func TestCustomScorer(t *testing.T) {
	c := classifier.New(fixedScorer{scores: classifier.Scores{Profile: 4}})
	assert.Equal(t, models.ContentProfile, c.Classify("anything"))
}
