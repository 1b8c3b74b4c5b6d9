// Package event publishes domain events to Kafka. Publishing is best-effort:
// callers log failures and continue, so an unreachable broker never fails a
// request.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ratehub/storeratings/internal/domain"
	pkgkafka "github.com/ratehub/storeratings/pkg/kafka"
)

// Kafka topics for store ratings domain events.
const (
	TopicUserRegistered = "storeratings.user.registered"
	TopicStoreCreated   = "storeratings.store.created"
	TopicRatingRecorded = "storeratings.rating.recorded"
)

// Aggregate type constants.
const (
	AggregateTypeUser   = "user"
	AggregateTypeStore  = "store"
	AggregateTypeRating = "rating"
)

// Source identifier for events originating from this service.
const Source = "storeratings"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// StoreCreatedData is the payload for a store.created event.
type StoreCreatedData struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	OwnerID *string `json:"owner_id,omitempty"`
}

// RatingRecordedData is the payload for a rating.recorded event. It carries
// the store aggregate as of the write so consumers need no follow-up query.
type RatingRecordedData struct {
	StoreID       string  `json:"store_id"`
	UserID        string  `json:"user_id"`
	Score         int     `json:"score"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// Producer publishes store ratings domain events.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}
	return nil
}

// PublishStoreCreated publishes a store.created event.
func (p *Producer) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	data := StoreCreatedData{
		ID:      store.ID,
		Name:    store.Name,
		Email:   store.Email,
		OwnerID: store.OwnerID,
	}

	event, err := pkgkafka.NewEvent(TopicStoreCreated, store.ID, AggregateTypeStore, Source, data)
	if err != nil {
		return fmt.Errorf("create store.created event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicStoreCreated, event); err != nil {
		return fmt.Errorf("publish store.created event: %w", err)
	}
	return nil
}

// PublishRatingRecorded publishes a rating.recorded event keyed by store so
// aggregate updates for one store stay ordered.
func (p *Producer) PublishRatingRecorded(ctx context.Context, userID string, snapshot *domain.AggregateSnapshot, score int) error {
	data := RatingRecordedData{
		StoreID:       snapshot.StoreID,
		UserID:        userID,
		Score:         score,
		AverageRating: snapshot.AverageRating,
		TotalRatings:  snapshot.TotalRatings,
	}

	event, err := pkgkafka.NewEvent(TopicRatingRecorded, snapshot.StoreID, AggregateTypeRating, Source, data)
	if err != nil {
		return fmt.Errorf("create rating.recorded event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicRatingRecorded, event); err != nil {
		return fmt.Errorf("publish rating.recorded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published rating.recorded event",
		slog.String("store_id", snapshot.StoreID),
		slog.String("user_id", userID),
	)
	return nil
}
