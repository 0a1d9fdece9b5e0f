// Package item holds the source-of-truth item model and the composed-text rule.
package item

import "context"

// Record is one searchable item row as read from the relational store.
// Category and Keywords are empty when the item has none.
type Record struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Keywords    string
}

// ComposedText builds the canonical text for a record. The result is both
// the encoder input and the natural key used to diff the source against the
// vector index, so the format is byte-exact and must never change:
//
//	without keywords: "<title>  <category> <description>" (category slot
//	dropped entirely when empty, leaving two spaces after the title)
//	with keywords:    "<title> <keywords> <category> <description>"
func ComposedText(r Record) string {
	if r.Keywords == "" {
		if r.Category == "" {
			return r.Title + "  " + r.Description
		}
		return r.Title + "  " + r.Category + " " + r.Description
	}
	if r.Category == "" {
		return r.Title + " " + r.Keywords + " " + r.Description
	}
	return r.Title + " " + r.Keywords + " " + r.Category + " " + r.Description
}

// Source streams composed texts for every item in the relational store.
type Source interface {
	// Texts reads all items in batches of batchSize and merges them into a
	// single composed-text -> record-id map. Two records composing to the
	// same text collapse to one entry, last row wins. On a data-access
	// failure the map accumulated so far is returned together with the
	// error; the caller decides whether a partial snapshot is usable.
	Texts(ctx context.Context, batchSize int) (map[string]int64, error)
}
