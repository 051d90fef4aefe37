package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	cols, vals, err := checkRow(llmEventsTable, map[string]any{
		"sequence":      seqNum,
		"provider":      data.Provider,
		"user_id":       data.UserID,
		"model":         data.Model,
		"purpose":       data.Purpose,
		"input_tokens":  data.InputTokens,
		"output_tokens": data.OutputTokens,
		"latency_ms":    data.LatencyMs,
		"success":       data.Success,
		"error_message": data.ErrorMessage,
	})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(llmEventsTable).
		Columns(cols...).
		Values(vals...).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	sel := entsql.Dialect(r.dialect).
		Select("id", "sequence", "timestamp", "provider", "user_id", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "success", "error_message").
		From(entsql.Table(llmEventsTable))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventRecord
	for rows.Next() {
		var e LLMRequestEventRecord
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.UserID, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
