package services

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/text/cases"

	"amazon-analyzer/models"
	"amazon-analyzer/utils"
)

const (
	topWordsLimit  = 20
	minTokenLength = 3
	maxTokenLength = 15

	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

var wordRunRegexp = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopWords = map[string]bool{
	"with": true, "for": true, "and": true, "the": true, "this": true,
	"that": true, "new": true, "from": true, "are": true,
}

// noDataWords is emitted when no title produced a usable token.
var noDataWords = []models.WordCount{{Word: "no_data", Count: 1}}

// TextAnalyzer derives word frequencies and sentiment buckets from titles.
type TextAnalyzer struct {
	logger *utils.Logger
	scorer SentimentScorer
}

func NewTextAnalyzer(logger *utils.Logger, scorer SentimentScorer) *TextAnalyzer {
	if scorer == nil {
		scorer = NewLexiconScorer()
	}
	return &TextAnalyzer{logger: logger, scorer: scorer}
}

// Analyze only considers records whose title is known. It never fails; on
// an internal error it returns the placeholder block with Error set.
func (t *TextAnalyzer) Analyze(records []*models.NormalizedRecord) (out *models.TitleAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("[text] Error analyzing titles: %v", r)
			out = placeholderTitleAnalysis()
			out.Error = fmt.Sprint(r)
		}
	}()

	var titles []string
	for _, rec := range records {
		if rec != nil && rec.HasKnownTitle() {
			titles = append(titles, rec.Title)
		}
	}

	out = &models.TitleAnalysis{TopWords: topWords(titles)}
	if len(titles) == 0 {
		return out
	}

	var sum float64
	for _, title := range titles {
		p := t.scorer.Polarity(title)
		sum += p
		switch {
		case p > positiveThreshold:
			out.PositiveTitles++
		case p < negativeThreshold:
			out.NegativeTitles++
		default:
			out.NeutralTitles++
		}
	}
	out.AverageSentiment = finite(sum / float64(len(titles)))

	t.logger.Debug("[text] %d titles | %d positive, %d neutral, %d negative",
		len(titles), out.PositiveTitles, out.NeutralTitles, out.NegativeTitles)
	return out
}

func placeholderTitleAnalysis() *models.TitleAnalysis {
	return &models.TitleAnalysis{TopWords: append([]models.WordCount(nil), noDataWords...)}
}

// topWords counts tokens across titles and returns the most frequent,
// ties broken by first appearance.
func topWords(titles []string) []models.WordCount {
	caser := cases.Fold()

	counts := make(map[string]int)
	var order []string
	for _, title := range titles {
		for _, tok := range tokenize(caser, title) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	if len(order) == 0 {
		return append([]models.WordCount(nil), noDataWords...)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topWordsLimit {
		order = order[:topWordsLimit]
	}

	words := make([]models.WordCount, len(order))
	for i, w := range order {
		words[i] = models.WordCount{Word: w, Count: counts[w]}
	}
	return words
}

// tokenize case-folds s and returns its alphabetic words of 3 to 15 letters,
// minus stop words. Runs containing digits or underscores are discarded whole.
func tokenize(caser cases.Caser, s string) []string {
	var tokens []string
	for _, run := range wordRunRegexp.FindAllString(caser.String(s), -1) {
		if len(run) < minTokenLength || len(run) > maxTokenLength || !isASCIIAlpha(run) {
			continue
		}
		if stopWords[run] {
			continue
		}
		tokens = append(tokens, run)
	}
	return tokens
}

func isASCIIAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
