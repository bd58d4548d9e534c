package services

import (
	"regexp"
	"strings"
)

// SentimentScorer assigns a polarity in [-1, 1] to a piece of text.
type SentimentScorer interface {
	Polarity(text string) float64
}

var sentimentTokenRegexp = regexp.MustCompile(`[a-z']+`)

// LexiconScorer is a small rule-based polarity scorer tuned for product
// titles. A cue word can be boosted by a preceding intensifier and flipped
// (and damped) by a preceding negation.
type LexiconScorer struct {
	lexicon      map[string]float64
	intensifiers map[string]float64
	negations    map[string]bool
}

const negationFactor = -0.5

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		lexicon:      defaultLexicon,
		intensifiers: defaultIntensifiers,
		negations:    defaultNegations,
	}
}

// Polarity returns the mean polarity of the cue words in text, or 0 when it
// contains none.
func (l *LexiconScorer) Polarity(text string) float64 {
	tokens := sentimentTokenRegexp.FindAllString(strings.ToLower(text), -1)

	var sum float64
	var cues int
	for i, tok := range tokens {
		score, ok := l.lexicon[tok]
		if !ok {
			continue
		}

		j := i - 1
		if j >= 0 {
			if boost, ok := l.intensifiers[tokens[j]]; ok {
				score = clampUnit(score * boost)
				j--
			}
		}
		if j >= 0 && l.negations[tokens[j]] {
			score *= negationFactor
		}

		sum += score
		cues++
	}

	if cues == 0 {
		return 0
	}
	return clampUnit(sum / float64(cues))
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

var defaultIntensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"extremely":  1.5,
	"super":      1.3,
	"ultra":      1.3,
	"highly":     1.3,
	"incredibly": 1.5,
	"so":         1.2,
}

var defaultNegations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"without": true,
	"isn't":   true,
	"don't":   true,
	"doesn't": true,
	"won't":   true,
	"can't":   true,
}

var defaultLexicon = map[string]float64{
	// positive
	"best":        1.0,
	"excellent":   1.0,
	"perfect":     1.0,
	"awesome":     1.0,
	"outstanding": 0.9,
	"great":       0.8,
	"superior":    0.7,
	"fantastic":   0.6,
	"amazing":     0.6,
	"good":        0.7,
	"beautiful":   0.85,
	"wonderful":   1.0,
	"love":        0.5,
	"nice":        0.6,
	"premium":     0.5,
	"quality":     0.3,
	"durable":     0.4,
	"reliable":    0.4,
	"comfortable": 0.4,
	"powerful":    0.3,
	"easy":        0.43,
	"fast":        0.2,
	"quiet":       0.3,
	"safe":        0.5,
	"smart":       0.21,
	"ideal":       0.9,
	"deluxe":      0.5,
	"strong":      0.43,
	"stylish":     0.5,
	"favorite":    0.5,
	"happy":       0.8,
	"fresh":       0.3,
	"soft":        0.1,
	"clean":       0.37,
	"upgraded":    0.3,
	"improved":    0.4,

	// negative
	"worst":         -1.0,
	"terrible":      -1.0,
	"awful":         -1.0,
	"horrible":      -1.0,
	"bad":           -0.7,
	"poor":          -0.4,
	"broken":        -0.4,
	"defective":     -0.5,
	"useless":       -0.5,
	"disappointing": -0.6,
	"flimsy":        -0.4,
	"fake":          -0.5,
	"cheaply":       -0.3,
	"weak":          -0.38,
	"slow":          -0.3,
	"noisy":         -0.3,
	"difficult":     -0.5,
	"hard":          -0.29,
	"ugly":          -0.7,
	"dirty":         -0.6,
	"damaged":       -0.5,
	"wrong":         -0.5,
	"annoying":      -0.8,
	"uncomfortable": -0.5,
	"dangerous":     -0.6,
	"leaky":         -0.4,
}
