package store

import (
	"context"
	"time"

	"github.com/iamsmart/masterclass/internal/profile"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	UserID string    // only events for this learner ("" = all)
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ProfileSummary is one row of the profile listing.
type ProfileSummary struct {
	UserID    string
	Profile   profile.LearnerProfile
	UpdatedAt time.Time
}

// ProfileRepo persists learner profile documents. Save replaces the whole
// document; the last write wins.
type ProfileRepo interface {
	// Load returns profile.ErrNotFound for an unknown learner.
	Load(ctx context.Context, userID string) (profile.LearnerProfile, error)

	// Save upserts the document for userID.
	Save(ctx context.Context, userID string, p profile.LearnerProfile) error

	// List returns every stored profile ordered by user ID.
	List(ctx context.Context) ([]ProfileSummary, error)

	// Delete removes a learner's profile. Deleting an unknown learner
	// returns profile.ErrNotFound.
	Delete(ctx context.Context, userID string) error
}

// ProgressEventData captures one learner transition.
type ProgressEventData struct {
	UserID    string
	Kind      string
	Day       string
	SectionID string
	Correct   int
	Incorrect int
	Detail    string
}

// ProgressEventRecord is a stored progress event.
type ProgressEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	ProgressEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	UserID       string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendProgressEvent records a learner transition.
	AppendProgressEvent(ctx context.Context, data ProgressEventData) error

	// QueryProgressEvents returns progress events in descending sequence
	// order.
	QueryProgressEvents(ctx context.Context, opts QueryOpts) ([]ProgressEventRecord, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM request events in descending sequence order.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
}
