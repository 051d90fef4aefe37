package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the schema builders and the
// global sequence counter.
type eventRepo struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

func (r *eventRepo) AppendProgressEvent(ctx context.Context, data ProgressEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	cols, vals, err := checkRow(progressEventsTable, map[string]any{
		"sequence":   seqNum,
		"user_id":    data.UserID,
		"kind":       data.Kind,
		"day":        data.Day,
		"section_id": data.SectionID,
		"correct":    data.Correct,
		"incorrect":  data.Incorrect,
		"detail":     data.Detail,
	})
	if err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(progressEventsTable).
		Columns(cols...).
		Values(vals...).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryProgressEvents(ctx context.Context, opts QueryOpts) ([]ProgressEventRecord, error) {
	sel := entsql.Dialect(r.dialect).
		Select("id", "sequence", "timestamp", "user_id", "kind", "day", "section_id", "correct", "incorrect", "detail").
		From(entsql.Table(progressEventsTable))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()

	var out []ProgressEventRecord
	for rows.Next() {
		var e ProgressEventRecord
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.UserID, &e.Kind, &e.Day, &e.SectionID, &e.Correct, &e.Incorrect, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// applyQueryOpts adds the filters, ordering and limit shared by event queries.
func applyQueryOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
