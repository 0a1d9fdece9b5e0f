package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ivrstand/itemindex/domain/item"
	"github.com/ivrstand/itemindex/internal/database"
)

// ItemSource streams composed item texts from the relational store.
type ItemSource struct {
	db     database.Database
	logger *slog.Logger
}

// NewItemSource creates an ItemSource.
func NewItemSource(db database.Database, logger *slog.Logger) ItemSource {
	if logger == nil {
		logger = slog.Default()
	}
	return ItemSource{db: db, logger: logger}
}

// Texts reads every item joined with its category and aggregated keywords
// through a single cursor, consumed in batches of batchSize, and merges the
// batches into one composed-text -> item-id map. The cursor is not
// restartable; a fresh call re-executes the query. On a data-access failure
// the map accumulated so far is returned alongside the error.
func (s ItemSource) Texts(ctx context.Context, batchSize int) (map[string]int64, error) {
	if batchSize <= 0 {
		batchSize = 10
	}

	rows, err := s.db.Session(ctx).Raw(s.query()).Rows()
	if err != nil {
		return map[string]int64{}, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	texts := make(map[string]int64)
	batch := make([]item.Record, 0, batchSize)
	batches := 0

	flush := func() {
		for _, r := range batch {
			texts[item.ComposedText(r)] = r.ID
		}
		if len(batch) > 0 {
			batches++
		}
		batch = batch[:0]
	}

	for rows.Next() {
		var (
			rec      item.Record
			category sql.NullString
			keywords sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &category, &keywords); err != nil {
			flush()
			return texts, fmt.Errorf("scan item row: %w", err)
		}
		rec.Category = category.String
		rec.Keywords = keywords.String

		batch = append(batch, rec)
		if len(batch) == batchSize {
			flush()
		}
	}
	flush()

	if err := rows.Err(); err != nil {
		return texts, fmt.Errorf("iterate items: %w", err)
	}

	s.logger.Debug("source read",
		slog.Int("texts", len(texts)),
		slog.Int("batches", batches),
	)
	return texts, nil
}

// query builds the item join. Keyword aggregation is dialect-specific:
// STRING_AGG on PostgreSQL, GROUP_CONCAT on SQLite.
func (s ItemSource) query() string {
	agg := "GROUP_CONCAT(k.keyword, ' ')"
	if s.db.IsPostgres() {
		agg = "STRING_AGG(k.keyword, ' ')"
	}
	return fmt.Sprintf(`
		SELECT i.item_id, i.item_title, i.item_description, c.category_title,
		       (SELECT %s FROM item_keywords k WHERE k.item_id = i.item_id) AS keywords
		FROM items i
		LEFT JOIN categories c ON i.category_id = c.category_id
		ORDER BY i.item_id`, agg)
}

var _ item.Source = ItemSource{}
