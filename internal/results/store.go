package results

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/edsim/edsim/internal/scoring"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("result not found")

// Record is one saved debrief.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Result    *scoring.Result `json:"result"`
	Rating    *int            `json:"rating,omitempty"`
	Feedback  string          `json:"feedback,omitempty"`
}

// Store persists graded results. The in-memory implementation is the
// default; the Postgres one is used when a database is configured.
type Store interface {
	Save(ctx context.Context, res *scoring.Result) (*Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
	Rate(ctx context.Context, id uuid.UUID, rating int, feedback string) error
	CaseRated(ctx context.Context, caseIndex int) (bool, error)
}
