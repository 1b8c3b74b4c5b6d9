package domain

import "time"

// Rating is one account's rating of one store. At most one row exists per
// (user, store) pair; resubmission updates in place.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	Score     int       `json:"score"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rater pairs a rating with the account that submitted it, for the
// owner-facing view of who rated their store.
type Rater struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Score       int       `json:"score"`
	Review      string    `json:"review,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AggregateSnapshot is the store aggregate immediately after a rating write.
type AggregateSnapshot struct {
	StoreID       string  `json:"store_id"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// MinScore and MaxScore bound a valid rating score.
const (
	MinScore = 1
	MaxScore = 5
)

// ValidScore reports whether score is within [MinScore, MaxScore].
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
