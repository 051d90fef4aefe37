package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/iamsmart/masterclass/internal/profile"
)

// profileRepo implements ProfileRepo with one JSON document per learner.
type profileRepo struct {
	db      *sql.DB
	dialect string
}

func (r *profileRepo) Load(ctx context.Context, userID string) (profile.LearnerProfile, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("data").
		From(entsql.Table(profilesTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.LearnerProfile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.LearnerProfile{}, fmt.Errorf("load profile: %w", err)
	}

	var p profile.LearnerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return profile.LearnerProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.UserID = userID
	return p.Normalize(), nil
}

func (r *profileRepo) Save(ctx context.Context, userID string, p profile.LearnerProfile) error {
	p.UserID = userID
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	cols, vals, err := checkRow(profilesTable, map[string]any{
		"user_id": userID,
		"data":    string(data),
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(profilesTable).
		Columns(cols...).
		Values(vals...).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *profileRepo) List(ctx context.Context) ([]ProfileSummary, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("user_id", "data", "updated_at").
		From(entsql.Table(profilesTable)).
		OrderBy("user_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileSummary
	for rows.Next() {
		var (
			s   ProfileSummary
			raw []byte
		)
		if err := rows.Scan(&s.UserID, &raw, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Profile); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", s.UserID, err)
		}
		s.Profile.UserID = s.UserID
		s.Profile = s.Profile.Normalize()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *profileRepo) Delete(ctx context.Context, userID string) error {
	query, args := entsql.Dialect(r.dialect).
		Delete(profilesTable).
		Where(entsql.EQ("user_id", userID)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}
