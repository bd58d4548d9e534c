package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"amazon-analyzer/models"
	"amazon-analyzer/utils"
)

var (
	// ratingRegexp captures the first decimal number, e.g. the 4.5 in "4.5 out of 5 stars"
	ratingRegexp   = regexp.MustCompile(`\d+\.\d+`)
	hexFloatRegexp = regexp.MustCompile(`^[+-]?0[xX]`)
)

const maxRating = 5.0

// maxReviewCount bounds a single count so dataset totals cannot overflow.
const maxReviewCount = math.MaxInt32

// Normalizer turns RawRecords into typed NormalizedRecords. It never drops a
// row and never fails: every unparseable value becomes its zero default.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize returns one NormalizedRecord per input record, in input order.
func (n *Normalizer) Normalize(raw []*models.RawRecord) []*models.NormalizedRecord {
	records := make([]*models.NormalizedRecord, len(raw))
	for i, r := range raw {
		if r == nil {
			r = &models.RawRecord{}
		}
		records[i] = &models.NormalizedRecord{Raw: r}
	}

	var badPrices, badRatings, badReviews int

	n.column("title", records,
		func(rec *models.NormalizedRecord) { rec.Title = normaliseTitle(rec.Raw.Title) },
		func(rec *models.NormalizedRecord) { rec.Title = models.UnknownTitle })

	n.column("price", records,
		func(rec *models.NormalizedRecord) {
			v, ok := parsePrice(rec.Raw.Price)
			if !ok {
				badPrices++
			}
			rec.Price = v
		},
		func(rec *models.NormalizedRecord) { rec.Price = 0 })

	n.column("rating", records,
		func(rec *models.NormalizedRecord) {
			v, ok := parseRating(rec.Raw.Rating)
			if !ok {
				badRatings++
			}
			rec.Rating = v
		},
		func(rec *models.NormalizedRecord) { rec.Rating = 0 })

	n.column("review_count", records,
		func(rec *models.NormalizedRecord) {
			v, ok := parseReviewCount(rec.Raw.ReviewCount)
			if !ok {
				badReviews++
			}
			rec.ReviewCount = v
		},
		func(rec *models.NormalizedRecord) { rec.ReviewCount = 0 })

	n.logger.Debug("[normalizer] Normalized %d records (unparseable: %d prices, %d ratings, %d review counts)",
		len(records), badPrices, badRatings, badReviews)
	return records
}

// column applies fn to every record. If fn panics the whole column is reset
// with fallback, so one broken column cannot abort the run.
func (n *Normalizer) column(name string, records []*models.NormalizedRecord, fn, fallback func(*models.NormalizedRecord)) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("[normalizer] Error normalizing %s column: %v (column filled with defaults)", name, r)
			for _, rec := range records {
				fallback(rec)
			}
		}
	}()

	for _, rec := range records {
		fn(rec)
	}
}

// parsePrice strips currency symbols, thousands separators and spaces, then
// parses the remainder. The bool is false when a present value was unusable.
// Examples:
//
//	"$1,234.50" → 1234.50
//	"€ 19,99"   → 1999 (comma is always a thousands separator)
//	"N/A"       → 0
func parsePrice(f models.Field) (float64, bool) {
	raw, ok := f.Get()
	if !ok {
		return 0, true
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)

	// decimal and exponent forms only; ParseFloat would also take hex floats
	if hexFloatRegexp.MatchString(cleaned) {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		return 0, false
	}
	return val, true
}

// parseRating extracts a 0.0–5.0 rating from text such as "4.3 out of 5 stars".
func parseRating(f models.Field) (float64, bool) {
	raw, ok := f.Get()
	if !ok {
		return 0, true
	}

	match := ratingRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil || val < 0 || val > maxRating {
		return 0, false
	}
	return val, true
}

// parseReviewCount parses counts like "12,345". An absent count is "0".
func parseReviewCount(f models.Field) (int, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(f.OrDefault("0"), ",", ""))

	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n > maxReviewCount {
			return 0, false
		}
		return n, true
	}

	// "12.0" style values from spreadsheet round-trips
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 || val > maxReviewCount || val != math.Trunc(val) {
		return 0, false
	}
	return int(val), true
}

func normaliseTitle(f models.Field) string {
	title := normaliseText(f.OrDefault(""))
	if title == "" {
		return models.UnknownTitle
	}
	return title
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
