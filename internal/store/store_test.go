package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamsmart/masterclass/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("file:x.db")
	assert.True(t, strings.HasPrefix(got, "file:x.db?_pragma=journal_mode(WAL)&"), got)
	assert.Contains(t, got, "&_pragma=busy_timeout(5000)")

	got = withPragmas("file:x?mode=memory")
	assert.True(t, strings.HasPrefix(got, "file:x?mode=memory&_pragma="), got)
	assert.Equal(t, len(sqlitePragmas), strings.Count(got, "_pragma="))
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		require.NoError(t, db.QueryRow("PRAGMA "+tt.pragma).Scan(&got), "PRAGMA %s", tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{profilesTable, progressEventsTable, llmEventsTable, "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	first, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(DriverSQLite, dsn)
	require.NoError(t, err, "second migration over an existing schema")
	second.Close()
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestProfileRepo_LoadMissing(t *testing.T) {
	repo := openTestStore(t).ProfileRepo()
	_, err := repo.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestProfileRepo_SaveLoadRoundTrip(t *testing.T) {
	repo := openTestStore(t).ProfileRepo()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	p := profile.Default("u1", now).
		WithCompleted("intro-basics", now).
		WithStatsDelta(3, 1, now).
		WithSurvey(profile.OutcomeSurvey, map[string]string{"goal": "Grow my career"}, now).
		WithOnboarding(profile.Onboarding{Name: "Asha", Profession: profile.ProfessionStudent}, now)

	require.NoError(t, repo.Save(ctx, "u1", p))

	got, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro-basics"}, got.CompletedSections)
	assert.Equal(t, profile.Stats{TotalPoints: 2, TotalCorrect: 3, TotalIncorrect: 1}, got.Stats)
	assert.True(t, got.HasSurvey(profile.OutcomeSurvey))
	assert.Equal(t, "Grow my career", got.Surveys[profile.OutcomeSurvey].Answers["goal"])
	require.NotNil(t, got.Onboarding)
	assert.Equal(t, "Asha", got.Onboarding.Name)
}

func TestProfileRepo_SaveOverwrites(t *testing.T) {
	repo := openTestStore(t).ProfileRepo()
	ctx := context.Background()
	now := time.Now()

	first := profile.Default("u1", now).WithCompleted("a", now)
	second := first.WithCompleted("b", now)

	require.NoError(t, repo.Save(ctx, "u1", first))
	require.NoError(t, repo.Save(ctx, "u1", second))

	got, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.CompletedSections)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProfileRepo_ListAndDelete(t *testing.T) {
	repo := openTestStore(t).ProfileRepo()
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"zed", "amy", "kim"} {
		require.NoError(t, repo.Save(ctx, id, profile.Default(id, now)))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "amy", list[0].UserID)
	assert.Equal(t, "zed", list[2].UserID)
	assert.NotNil(t, list[0].Profile.Surveys)

	require.NoError(t, repo.Delete(ctx, "kim"))
	assert.ErrorIs(t, repo.Delete(ctx, "kim"), profile.ErrNotFound)

	_, err = repo.Load(ctx, "kim")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestEventRepo_ProgressEvents(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	events := []ProgressEventData{
		{UserID: "u1", Kind: "section_completed", Day: "day1", SectionID: "intro-basics", Correct: 3},
		{UserID: "u2", Kind: "quiz_failed", Day: "day1", SectionID: "intro-basics", Correct: 2, Incorrect: 4},
		{UserID: "u1", Kind: "survey_completed", Detail: `{"key":"outcome_survey"}`},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendProgressEvent(ctx, e))
	}

	all, err := repo.QueryProgressEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].Sequence, "newest first")
	assert.Equal(t, "survey_completed", all[0].Kind)

	mine, err := repo.QueryProgressEvents(ctx, QueryOpts{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	limited, err := repo.QueryProgressEvents(ctx, QueryOpts{Limit: 1, Before: 3})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "quiz_failed", limited[0].Kind)
	assert.Equal(t, 4, limited[0].Incorrect)

	after, err := repo.QueryProgressEvents(ctx, QueryOpts{After: 1})
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestEventRepo_SequenceSharedAcrossTables(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendProgressEvent(ctx, ProgressEventData{UserID: "u1", Kind: "section_completed"}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock-model", Purpose: "quiz-hint", UserID: "u1",
		InputTokens: 10, OutputTokens: 5, LatencyMs: 12, Success: true,
	}))
	require.NoError(t, repo.AppendProgressEvent(ctx, ProgressEventData{UserID: "u1", Kind: "quiz_failed"}))

	llm, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, llm, 1)
	assert.Equal(t, int64(2), llm[0].Sequence)
	assert.True(t, llm[0].Success)
	assert.Equal(t, "quiz-hint", llm[0].Purpose)

	prog, err := repo.QueryProgressEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, prog, 2)
	assert.Equal(t, int64(3), prog[0].Sequence)
	assert.Equal(t, int64(1), prog[1].Sequence)
}

func TestProfileRepo_SaveRejectsEmptyUserID(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	err := repo.Save(ctx, "", profile.LearnerProfile{CompletedSections: []string{"a"}})
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.ErrorContains(t, err, "profiles.user_id")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProfileRepo_SaveStampsUpdatedAt(t *testing.T) {
	repo := openTestStore(t).ProfileRepo()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, repo.Save(ctx, "u1", profile.LearnerProfile{}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].UpdatedAt.After(before), "updated_at = %v", list[0].UpdatedAt)
}

func TestEventRepo_AppendProgressEventRejectsEmptyUserID(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	err := repo.AppendProgressEvent(ctx, ProgressEventData{Kind: "section_completed"})
	assert.ErrorIs(t, err, ErrInvalidRow)

	got, err := repo.QueryProgressEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckRow(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		values  map[string]any
		wantErr string
	}{
		{"defaults fill optional columns", progressEventsTable, map[string]any{"sequence": int64(1), "user_id": "u", "kind": "k"}, ""},
		{"missing required column", llmEventsTable, map[string]any{"sequence": int64(1), "provider": "p", "model": "m", "purpose": "x"}, "llm_request_events.success is required"},
		{"wrong value type", progressEventsTable, map[string]any{"sequence": int64(1), "user_id": "u", "kind": "k", "correct": "3"}, "want int"},
		{"unknown column", profilesTable, map[string]any{"user_id": "u", "data": "{}", "nickname": "x"}, `no column "nickname"`},
		{"unknown table", "answers", map[string]any{}, "unknown table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := checkRow(tt.table, tt.values)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	cols, args, err := checkRow(progressEventsTable, map[string]any{"sequence": int64(7), "user_id": "u", "kind": "k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sequence", "timestamp", "user_id", "kind", "day", "section_id", "correct", "incorrect", "detail"}, cols)
	ts, ok := args[1].(time.Time)
	require.True(t, ok, "timestamp default = %T", args[1])
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 0, args[6])
	assert.Equal(t, "", args[8])
}
