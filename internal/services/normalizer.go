package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Lllllllleong/documentinsights/internal/models"
)

// TruncationMarker is appended to an excerpt that was shortened.
const TruncationMarker = "..."

// Normalized is the tabular view of one result set plus everything derived from it.
type Normalized struct {
	Table        []models.Row
	Summary      models.Summary
	Distribution models.Distribution
}

// Normalize converts raw records into rows with defaults applied and derives the summary
// and sentiment distribution. It is pure and never fails.
func Normalize(raw []map[string]any) Normalized {
	out := Normalized{Table: make([]models.Row, 0, len(raw))}
	dist := models.Distribution{}

	for _, m := range raw {
		rec := DecodeRecord(m)
		row := ToRow(rec)
		out.Table = append(out.Table, row)

		switch row.Sentiment {
		case models.SentimentPositive:
			out.Summary.Positive++
		case models.SentimentNegative:
			out.Summary.Negative++
		}
		if rec.Sentiment != nil {
			dist[*rec.Sentiment]++
		}
	}

	out.Summary.Total = len(out.Table)
	if len(dist) > 0 {
		out.Distribution = dist
	}
	return out
}

// DecodeRecord reads the known fields out of a loosely-typed mapping.
// Absent keys and JSON nulls leave the field nil; unknown keys are ignored.
func DecodeRecord(raw map[string]any) models.ResultRecord {
	return models.ResultRecord{
		ID:        optionalString(raw, models.KeyInvoiceID),
		Sentiment: optionalString(raw, models.KeySentiment),
		RawText:   optionalString(raw, models.KeyRawText),
	}
}

// ToRow applies the sentinel defaults to a decoded record.
func ToRow(rec models.ResultRecord) models.Row {
	return models.Row{
		ID:        valueOr(rec.ID, models.DefaultID),
		Sentiment: valueOr(rec.Sentiment, models.DefaultSentiment),
		Text:      valueOr(rec.RawText, models.DefaultRawText),
	}
}

func optionalString(raw map[string]any, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s := DisplayString(v)
	return &s
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// DisplayString renders any decoded JSON value as text.
func DisplayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// Truncate keeps the first limit characters of text and appends TruncationMarker when
// anything was cut. A limit of zero or less disables truncation.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]) + TruncationMarker, true
}

// Cards builds one detail card per row, in table order.
func Cards(table []models.Row, limit int) []models.Card {
	cards := make([]models.Card, 0, len(table))
	for _, row := range table {
		excerpt, truncated := Truncate(row.Text, limit)
		cards = append(cards, models.Card{
			ID:        row.ID,
			Sentiment: row.Sentiment,
			Excerpt:   excerpt,
			Truncated: truncated,
		})
	}
	return cards
}
