package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisResult is the single artifact produced by one analysis run.
// On an empty dataset only Timestamp and Summary are set.
type AnalysisResult struct {
	Timestamp      time.Time       `json:"timestamp"`
	Summary        Summary         `json:"summary"`
	PriceAnalysis  *PriceAnalysis  `json:"price_analysis"`
	RatingAnalysis *RatingAnalysis `json:"rating_analysis"`
	ReviewAnalysis *ReviewAnalysis `json:"review_analysis"`
	TitleAnalysis  *TitleAnalysis  `json:"title_analysis"`
	Correlations   *Correlations   `json:"correlations"`
}

// Summary holds the scalar aggregates.
type Summary struct {
	TotalProducts int     `json:"total_products"`
	AveragePrice  float64 `json:"average_price"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	Error         string  `json:"error,omitempty"`
}

// RangeDistribution is a labeled histogram. Error is set when the block fell
// back to its degenerate form because of a failure.
type RangeDistribution struct {
	Ranges []string `json:"ranges"`
	Counts []int    `json:"counts"`
	Error  string   `json:"error,omitempty"`
}

// RatingDistribution counts ratings rounded to the nearest half star.
type RatingDistribution struct {
	Ratings []float64 `json:"ratings"`
	Counts  []int     `json:"counts"`
	Error   string    `json:"error,omitempty"`
}

type PriceAnalysis struct {
	Min         float64           `json:"min"`
	Max         float64           `json:"max"`
	Mean        float64           `json:"mean"`
	Median      float64           `json:"median"`
	StdDev      float64           `json:"std_dev"`
	PriceRanges RangeDistribution `json:"price_ranges"`
}

type RatingAnalysis struct {
	Min          float64            `json:"min"`
	Max          float64            `json:"max"`
	Mean         float64            `json:"mean"`
	Median       float64            `json:"median"`
	StdDev       float64            `json:"std_dev"`
	Distribution RatingDistribution `json:"distribution"`
}

type ReviewAnalysis struct {
	Min          int               `json:"min"`
	Max          int               `json:"max"`
	Mean         float64           `json:"mean"`
	Median       float64           `json:"median"`
	StdDev       float64           `json:"std_dev"`
	Total        int               `json:"total"`
	Distribution RangeDistribution `json:"distribution"`
}

// TitleAnalysis holds word frequencies and sentiment buckets over titles.
type TitleAnalysis struct {
	TopWords         []WordCount `json:"top_words"`
	AverageSentiment float64     `json:"average_sentiment"`
	PositiveTitles   int         `json:"positive_titles"`
	NeutralTitles    int         `json:"neutral_titles"`
	NegativeTitles   int         `json:"negative_titles"`
	Error            string      `json:"error,omitempty"`
}

// Correlations holds Pearson coefficients; undefined values are 0.
type Correlations struct {
	PriceVsRating   float64 `json:"price_vs_rating"`
	PriceVsReviews  float64 `json:"price_vs_reviews"`
	RatingVsReviews float64 `json:"rating_vs_reviews"`
	Error           string  `json:"error,omitempty"`
}

// WordCount is one word-frequency entry. It is encoded as a single-key
// object, {"word": count}, so that an ordered list of entries survives JSON.
type WordCount struct {
	Word  string
	Count int
}

func (w WordCount) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(w.Word)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("{%s:%d}", key, w.Count)), nil
}

func (w *WordCount) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("word count: expected exactly one key, got %d", len(m))
	}
	for k, v := range m {
		w.Word, w.Count = k, v
	}
	return nil
}
