package models

import (
	"encoding/json"
	"strings"
)

// NotAvailable is the sentinel the scraper writes for a value it could not find.
const NotAvailable = "N/A"

// UnknownTitle replaces an absent title. Records carrying it stay in every
// numeric statistic but are left out of title text analysis.
const UnknownTitle = "Unknown Product"

// Field is an optional raw string value. A cell that is missing, blank or the
// NotAvailable sentinel is absent.
type Field struct {
	value   string
	present bool
}

// NewField applies the absence rule to a raw cell.
func NewField(raw string) Field {
	v := strings.TrimSpace(raw)
	if v == "" || v == NotAvailable {
		return Field{}
	}
	return Field{value: raw, present: true}
}

// Absent returns a Field with no value.
func Absent() Field { return Field{} }

// Get returns the raw value and whether it is present.
func (f Field) Get() (string, bool) { return f.value, f.present }

// IsPresent reports whether the field holds a value.
func (f Field) IsPresent() bool { return f.present }

// OrDefault returns the raw value, or def when absent.
func (f Field) OrDefault(def string) string {
	if !f.present {
		return def
	}
	return f.value
}

// String renders absent values as the NotAvailable sentinel.
func (f Field) String() string { return f.OrDefault(NotAvailable) }

// MarshalJSON emits the raw string, or null when absent.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON accepts a string or null.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = NewField(s)
	return nil
}

// RawRecord holds one scraped listing exactly as it appears in the input CSV.
type RawRecord struct {
	Title       Field `json:"title"`
	URL         Field `json:"url"`
	ASIN        Field `json:"asin"`
	Price       Field `json:"price"`
	Rating      Field `json:"rating"`
	ReviewCount Field `json:"review_count"`
}

// NormalizedRecord is a RawRecord with typed, default-filled values.
type NormalizedRecord struct {
	Raw *RawRecord

	Title       string
	Price       float64
	Rating      float64
	ReviewCount int
}

// HasKnownTitle reports whether the title takes part in text analysis.
func (r *NormalizedRecord) HasKnownTitle() bool {
	return r.Title != UnknownTitle
}
