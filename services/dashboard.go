package services

import (
	"strconv"

	"amazon-analyzer/models"
)

const (
	priceColor  = "#4CAF50"
	ratingColor = "#2196F3"
	reviewColor = "#FF9800"
)

var correlationLabels = []string{"Price", "Rating", "Reviews"}

// BuildDashboard derives chart-ready series from an analysis result. Missing
// blocks are replaced by zero-valued series so the views always render.
func BuildDashboard(result *models.AnalysisResult) *models.Dashboard {
	if result == nil {
		result = &models.AnalysisResult{}
	}

	return &models.Dashboard{
		Summary:          result.Summary,
		PriceChart:       priceChart(result.PriceAnalysis),
		RatingChart:      ratingChart(result.RatingAnalysis),
		ReviewChart:      reviewChart(result.ReviewAnalysis),
		WordCloud:        wordCloud(result.TitleAnalysis),
		CorrelationChart: correlationChart(result.Correlations),
	}
}

func priceChart(p *models.PriceAnalysis) models.BarSeries {
	s := models.BarSeries{
		Title: "Price Distribution", XAxis: "Price Range", YAxis: "Number of Products", Color: priceColor,
	}
	if p == nil {
		for _, r := range priceRanges {
			s.Labels = append(s.Labels, r.label)
		}
		s.Values = make([]int, len(priceRanges))
		return s
	}
	s.Labels = append([]string(nil), p.PriceRanges.Ranges...)
	s.Values = append([]int(nil), p.PriceRanges.Counts...)
	return s
}

func ratingChart(r *models.RatingAnalysis) models.BarSeries {
	s := models.BarSeries{
		Title: "Rating Distribution", XAxis: "Rating", YAxis: "Number of Products", Color: ratingColor,
	}
	if r == nil {
		s.Labels = []string{"0", "1", "2", "3", "4", "5"}
		s.Values = make([]int, len(s.Labels))
		return s
	}
	for _, v := range r.Distribution.Ratings {
		s.Labels = append(s.Labels, strconv.FormatFloat(v, 'f', -1, 64))
	}
	s.Values = append([]int(nil), r.Distribution.Counts...)
	return s
}

func reviewChart(r *models.ReviewAnalysis) models.BarSeries {
	s := models.BarSeries{
		Title: "Review Count Distribution", XAxis: "Number of Reviews", YAxis: "Number of Products", Color: reviewColor,
	}
	if r == nil {
		for _, rr := range reviewRanges {
			s.Labels = append(s.Labels, rr.label)
		}
		s.Values = make([]int, len(reviewRanges))
		return s
	}
	s.Labels = append([]string(nil), r.Distribution.Ranges...)
	s.Values = append([]int(nil), r.Distribution.Counts...)
	return s
}

func wordCloud(t *models.TitleAnalysis) []models.WordCloudEntry {
	var entries []models.WordCloudEntry
	if t != nil {
		for _, w := range t.TopWords {
			entries = append(entries, models.WordCloudEntry{Text: w.Word, Value: w.Count})
		}
	}
	if len(entries) == 0 {
		entries = []models.WordCloudEntry{{Text: "No words found", Value: 1}}
	}
	return entries
}

func correlationChart(c *models.Correlations) models.CorrelationMatrix {
	m := models.CorrelationMatrix{
		Title:  "Correlation Matrix",
		Labels: append([]string(nil), correlationLabels...),
	}
	if c == nil {
		c = &models.Correlations{}
	}
	pr, pv, rv := finite(c.PriceVsRating), finite(c.PriceVsReviews), finite(c.RatingVsReviews)
	m.Matrix = [][]float64{
		{1, pr, pv},
		{pr, 1, rv},
		{pv, rv, 1},
	}
	return m
}
