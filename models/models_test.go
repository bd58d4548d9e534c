package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldAbsence(t *testing.T) {
	tests := []struct {
		raw     string
		present bool
	}{
		{"$19.99", true},
		{"", false},
		{"   ", false},
		{"N/A", false},
		{" N/A ", false},
		{"n/a", true},
		{"0", true},
	}

	for _, tt := range tests {
		f := NewField(tt.raw)
		assert.Equal(t, tt.present, f.IsPresent(), "NewField(%q)", tt.raw)
	}
}

func TestFieldOrDefault(t *testing.T) {
	assert.Equal(t, "0", Absent().OrDefault("0"))
	assert.Equal(t, "1,234", NewField("1,234").OrDefault("0"))
	assert.Equal(t, NotAvailable, Absent().String())
}

func TestFieldJSON(t *testing.T) {
	rec := RawRecord{Title: NewField("Widget A"), Price: Absent()}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Widget A","url":null,"asin":null,"price":null,"rating":null,"review_count":null}`, string(data))

	var back RawRecord
	require.NoError(t, json.Unmarshal(data, &back))
	v, ok := back.Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "Widget A", v)
	assert.False(t, back.Price.IsPresent())
}

func TestWordCountJSON(t *testing.T) {
	words := []WordCount{{Word: "widget", Count: 3}, {Word: "great", Count: 1}}

	data, err := json.Marshal(words)
	require.NoError(t, err)
	assert.Equal(t, `[{"widget":3},{"great":1}]`, string(data))

	var back []WordCount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, words, back)
}

func TestWordCountRejectsMultiKey(t *testing.T) {
	var w WordCount
	err := json.Unmarshal([]byte(`{"a":1,"b":2}`), &w)
	assert.Error(t, err)
}

func TestHasKnownTitle(t *testing.T) {
	assert.False(t, (&NormalizedRecord{Title: UnknownTitle}).HasKnownTitle())
	assert.True(t, (&NormalizedRecord{Title: "Widget"}).HasKnownTitle())
}
