package domain

import "time"

// Store represents a rateable store. OwnerID is nil for unowned stores.
// AverageRating and TotalRatings are derived: they always equal the mean and
// cardinality of the store's current rating rows, maintained transactionally
// on every rating write.
type Store struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Address       string     `json:"address"`
	OwnerID       *string    `json:"owner_id,omitempty"`
	AverageRating float64    `json:"average_rating"`
	TotalRatings  int        `json:"total_ratings"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Owner         *StoreOwner `json:"owner,omitempty"`
}

// StoreOwner is the embedded owner summary returned on admin store listings.
type StoreOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
