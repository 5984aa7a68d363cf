package models

import "sort"

// Wire keys used by the results endpoint for each processed document.
const (
	KeyInvoiceID = "InvoiceId"
	KeySentiment = "Sentiment"
	KeyRawText   = "RawText"
)

// Sentiment labels that get their own summary bucket.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

// Defaults substituted when a field is absent from a record.
const (
	DefaultID        = "unknown"
	DefaultSentiment = "Unknown"
	DefaultRawText   = "No extracted text"
)

// ResultRecord is one processed document as decoded from the results endpoint.
// Every field is optional; a nil field means the key was absent or null.
type ResultRecord struct {
	ID        *string
	Sentiment *string
	RawText   *string
}

// Row is a normalized table entry. All fields are always populated.
type Row struct {
	ID        string
	Sentiment string
	Text      string
}

// Summary holds the headline counts for one result set.
type Summary struct {
	Total    int
	Positive int
	Negative int
}

// LabelCount is one slice of the sentiment distribution.
type LabelCount struct {
	Label string
	Count int
}

// Distribution maps each sentiment label present in the table to its occurrence count.
type Distribution map[string]int

// Ordered returns the distribution sorted by count, largest first, ties by label.
func (d Distribution) Ordered() []LabelCount {
	out := make([]LabelCount, 0, len(d))
	for label, count := range d {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Card is the view-model for one detail card.
type Card struct {
	ID        string
	Sentiment string
	Excerpt   string
	Truncated bool
}
