package services

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"amazon-analyzer/models"
	"amazon-analyzer/utils"
)

const emptyDatasetError = "No valid products found after data cleaning"

type priceRange struct {
	label string
	upper float64 // exclusive
}

type reviewRange struct {
	label string
	upper int // inclusive
}

var priceRanges = []priceRange{
	{"<$25", 25},
	{"$25-$50", 50},
	{"$50-$100", 100},
	{"$100-$200", 200},
	{"$200-$500", 500},
	{"$500-$1000", 1000},
	{">$1000", math.Inf(1)},
}

var reviewRanges = []reviewRange{
	{"0-10", 10},
	{"11-100", 100},
	{"101-1000", 1000},
	{"1001-10000", 10000},
	{">10000", math.MaxInt},
}

// StatisticsReport is the numeric part of an AnalysisResult. On an empty
// dataset only Summary is set.
type StatisticsReport struct {
	Summary      models.Summary
	Price        *models.PriceAnalysis
	Rating       *models.RatingAnalysis
	Review       *models.ReviewAnalysis
	Correlations *models.Correlations
}

// StatisticsEngine computes summary statistics, distributions and
// correlations over a normalized dataset.
type StatisticsEngine struct {
	logger *utils.Logger

	priceBucket  func(float64) int
	reviewBucket func(int) int
}

func NewStatisticsEngine(logger *utils.Logger) *StatisticsEngine {
	return &StatisticsEngine{
		logger:       logger,
		priceBucket:  priceBucket,
		reviewBucket: reviewBucket,
	}
}

// Compute never fails. A block that cannot be computed degrades to its
// fallback form with an error message; the other blocks are unaffected.
func (s *StatisticsEngine) Compute(dataset []*models.NormalizedRecord) StatisticsReport {
	if len(dataset) == 0 {
		s.logger.Warn("[statistics] Empty dataset, skipping analysis blocks")
		return StatisticsReport{Summary: models.Summary{Error: emptyDatasetError}}
	}

	prices := make([]float64, len(dataset))
	ratings := make([]float64, len(dataset))
	reviews := make([]int, len(dataset))
	reviewsF := make([]float64, len(dataset))
	total := 0
	for i, rec := range dataset {
		prices[i] = rec.Price
		ratings[i] = rec.Rating
		reviews[i] = rec.ReviewCount
		reviewsF[i] = float64(rec.ReviewCount)
		total = addSaturating(total, rec.ReviewCount)
	}

	report := StatisticsReport{
		Summary: models.Summary{
			TotalProducts: len(dataset),
			AveragePrice:  mean(prices),
			AverageRating: mean(ratings),
			TotalReviews:  total,
		},
	}

	ps := describe(prices)
	report.Price = &models.PriceAnalysis{
		Min: ps.min, Max: ps.max, Mean: ps.mean, Median: ps.median, StdDev: ps.stdDev,
		PriceRanges: s.priceDistribution(prices),
	}

	rs := describe(ratings)
	report.Rating = &models.RatingAnalysis{
		Min: rs.min, Max: rs.max, Mean: rs.mean, Median: rs.median, StdDev: rs.stdDev,
		Distribution: s.ratingDistribution(ratings),
	}

	vs := describe(reviewsF)
	report.Review = &models.ReviewAnalysis{
		Min: slices.Min(reviews), Max: slices.Max(reviews), Mean: vs.mean, Median: vs.median, StdDev: vs.stdDev,
		Total:        total,
		Distribution: s.reviewDistribution(reviews),
	}

	report.Correlations = s.correlations(prices, ratings, reviewsF)

	s.logger.Debug("[statistics] %d products | avg price %.2f | avg rating %.2f | %d reviews",
		report.Summary.TotalProducts, report.Summary.AveragePrice, report.Summary.AverageRating, total)
	return report
}

// recoverBlock is deferred by every block. It turns a panic into the block's
// fallback output.
func recoverBlock(logger *utils.Logger, block string, fallback func(msg string)) {
	if r := recover(); r != nil {
		msg := fmt.Sprint(r)
		logger.Error("[statistics] Error in %s: %s", block, msg)
		fallback(msg)
	}
}

func degeneratePriceRanges() models.RangeDistribution {
	return models.RangeDistribution{Ranges: []string{priceRanges[0].label}, Counts: []int{0}}
}

func degenerateRatingDistribution() models.RatingDistribution {
	return models.RatingDistribution{Ratings: []float64{0}, Counts: []int{0}}
}

func degenerateReviewDistribution() models.RangeDistribution {
	return models.RangeDistribution{Ranges: []string{reviewRanges[0].label}, Counts: []int{0}}
}

func (s *StatisticsEngine) priceDistribution(prices []float64) (dist models.RangeDistribution) {
	defer recoverBlock(s.logger, "price ranges", func(msg string) {
		dist = degeneratePriceRanges()
		dist.Error = msg
	})

	if len(prices) == 0 || maxFloat(prices) == 0 {
		return degeneratePriceRanges()
	}

	dist.Ranges = make([]string, len(priceRanges))
	dist.Counts = make([]int, len(priceRanges))
	for i, r := range priceRanges {
		dist.Ranges[i] = r.label
	}
	for _, p := range prices {
		dist.Counts[s.priceBucket(p)]++
	}
	return dist
}

func (s *StatisticsEngine) ratingDistribution(ratings []float64) (dist models.RatingDistribution) {
	defer recoverBlock(s.logger, "rating distribution", func(msg string) {
		dist = degenerateRatingDistribution()
		dist.Error = msg
	})

	if len(ratings) == 0 || maxFloat(ratings) == 0 {
		return degenerateRatingDistribution()
	}

	counts := make(map[float64]int)
	for _, r := range ratings {
		counts[roundHalfStar(r)]++
	}

	dist.Ratings = make([]float64, 0, len(counts))
	for r := range counts {
		dist.Ratings = append(dist.Ratings, r)
	}
	sort.Float64s(dist.Ratings)

	dist.Counts = make([]int, len(dist.Ratings))
	for i, r := range dist.Ratings {
		dist.Counts[i] = counts[r]
	}
	return dist
}

func (s *StatisticsEngine) reviewDistribution(reviews []int) (dist models.RangeDistribution) {
	defer recoverBlock(s.logger, "review distribution", func(msg string) {
		dist = degenerateReviewDistribution()
		dist.Error = msg
	})

	maxReviews := 0
	for _, v := range reviews {
		if v > maxReviews {
			maxReviews = v
		}
	}
	if maxReviews == 0 {
		return degenerateReviewDistribution()
	}

	dist.Ranges = make([]string, len(reviewRanges))
	dist.Counts = make([]int, len(reviewRanges))
	for i, r := range reviewRanges {
		dist.Ranges[i] = r.label
	}
	for _, v := range reviews {
		dist.Counts[s.reviewBucket(v)]++
	}
	return dist
}

func (s *StatisticsEngine) correlations(prices, ratings, reviews []float64) (c *models.Correlations) {
	defer recoverBlock(s.logger, "correlations", func(msg string) {
		c = &models.Correlations{Error: msg}
	})

	return &models.Correlations{
		PriceVsRating:   pearson(prices, ratings),
		PriceVsReviews:  pearson(prices, reviews),
		RatingVsReviews: pearson(ratings, reviews),
	}
}

// priceBucket maps a price onto priceRanges: [0,25) [25,50) ... [1000,∞).
func priceBucket(p float64) int {
	for i, r := range priceRanges {
		if p < r.upper {
			return i
		}
	}
	return len(priceRanges) - 1
}

// reviewBucket maps a review count onto reviewRanges: [0,10] (10,100] ... (10000,∞).
func reviewBucket(n int) int {
	for i, r := range reviewRanges {
		if n <= r.upper {
			return i
		}
	}
	return len(reviewRanges) - 1
}

// roundHalfStar rounds to the nearest 0.5; exact quarter points round away
// from zero, so 4.25 → 4.5.
func roundHalfStar(r float64) float64 {
	return math.Round(r*2) / 2
}

type fieldStats struct {
	min, max, mean, median, stdDev float64
}

func describe(values []float64) fieldStats {
	if len(values) == 0 {
		return fieldStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return fieldStats{
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
		mean:   mean(values),
		median: medianSorted(sorted),
		stdDev: sampleStdDev(values),
	}
}

// mean is a running mean; it stays finite for values near math.MaxFloat64.
func mean(values []float64) float64 {
	var m float64
	for i, v := range values {
		m += (v - m) / float64(i+1)
	}
	return finite(m)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return finite(sorted[n/2-1]/2 + sorted[n/2]/2)
}

// sampleStdDev uses n-1 in the denominator. It is 0 for fewer than two values.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	scale := maxAbs(values)
	if scale == 0 {
		return 0
	}
	scaled := scaleBy(values, scale)
	m := mean(scaled)
	var ss float64
	for _, v := range scaled {
		d := v - m
		ss += d * d
	}
	return finite(scale * math.Sqrt(ss/float64(n-1)))
}

// pearson returns the Pearson correlation coefficient of xs and ys, or 0 when
// it is undefined (fewer than two points or a constant column).
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) || isConstant(xs) || isConstant(ys) {
		return 0
	}

	// correlation is scale invariant; scaling keeps the sums finite
	xs, ys = scaleBy(xs, maxAbs(xs)), scaleBy(ys, maxAbs(ys))
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}

	r := finite(sxy / math.Sqrt(sxx*syy))
	return math.Max(-1, math.Min(1, r))
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func maxFloat(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func scaleBy(values []float64, scale float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / scale
	}
	return out
}

func addSaturating(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
