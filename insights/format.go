package insights

import (
	"net/url"
	"strings"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	topLimit = 5
)

var positiveWords = wordSet("great", "best", "amazing", "excellent", "good", "positive", "recommended",
	"better", "impressive", "powerful", "fast", "improved", "love", "perfect", "awesome", "worth", "superior")

var negativeWords = wordSet("bad", "worst", "terrible", "poor", "negative", "avoid", "problems", "issues",
	"disappointing", "slow", "overpriced", "limited", "broken", "fails", "worse")

// Keyword is one organic result tagged with a coarse sentiment.
type Keyword struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Sentiment string `json:"sentiment"`
}

type Source struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

type SentimentOverview struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Summary is the display form of ProductInsights.
type Summary struct {
	TopSources        []Source          `json:"top_sources"`
	SentimentOverview SentimentOverview `json:"sentiment_overview"`
	KeyPhrases        []string          `json:"key_phrases"`
	RecentNews        []NewsResult      `json:"recent_news"`
}

// ExtractSentimentKeywords labels each organic result positive, negative or
// neutral by counting which listed words appear in its title and snippet.
func ExtractSentimentKeywords(res *SearchResponse) []Keyword {
	if res == nil {
		return []Keyword{}
	}

	keywords := make([]Keyword, 0, len(res.Organic))
	for _, r := range res.Organic {
		var pos, neg int
		for _, w := range uniqueWords(r.Title + " " + r.Snippet) {
			if positiveWords[w] {
				pos++
			}
			if negativeWords[w] {
				neg++
			}
		}

		sentiment := SentimentNeutral
		switch {
		case pos > neg:
			sentiment = SentimentPositive
		case neg > pos:
			sentiment = SentimentNegative
		}

		keywords = append(keywords, Keyword{
			Source:    r.Link,
			Title:     r.Title,
			Snippet:   r.Snippet,
			Sentiment: sentiment,
		})
	}
	return keywords
}

// FormatInsights keeps the top five general results and news items and
// tallies review sentiment.
func FormatInsights(in *ProductInsights) *Summary {
	out := &Summary{
		TopSources: []Source{},
		KeyPhrases: []string{},
		RecentNews: []NewsResult{},
	}
	if in == nil {
		return out
	}

	if in.General != nil {
		for i, r := range in.General.Organic {
			if i == topLimit {
				break
			}
			out.TopSources = append(out.TopSources, Source{
				Title:   r.Title,
				Link:    r.Link,
				Source:  hostOf(r.Link),
				Snippet: r.Snippet,
			})
		}
	}

	for _, k := range ExtractSentimentKeywords(in.Reviews) {
		switch k.Sentiment {
		case SentimentPositive:
			out.SentimentOverview.Positive++
		case SentimentNegative:
			out.SentimentOverview.Negative++
		default:
			out.SentimentOverview.Neutral++
		}
	}

	if in.News != nil {
		for i, n := range in.News.News {
			if i == topLimit {
				break
			}
			out.RecentNews = append(out.RecentNews, n)
		}
	}
	return out
}

func hostOf(link string) string {
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		return u.Host
	}
	return ""
}

// uniqueWords lower-cases s and returns its whitespace-separated words, each
// once.
func uniqueWords(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
