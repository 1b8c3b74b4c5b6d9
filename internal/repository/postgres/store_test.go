package postgres

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratehub/storeratings/internal/domain"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
)

func newStoreTestFixture(t *testing.T) (*StoreRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewStoreRepository(mock)
	return repo, mock
}

func sampleStore() *domain.Store {
	now := time.Now().UTC().Truncate(time.Microsecond)
	ownerID := "owner-1"
	return &domain.Store{
		ID:            "s-1",
		Name:          "Corner Coffee",
		Email:         "hello@cornercoffee.example",
		Address:       "42 Bean Ave",
		OwnerID:       &ownerID,
		AverageRating: 4.2,
		TotalRatings:  5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func storeTestColumns() []string {
	return []string{
		"id", "name", "email", "address", "owner_id",
		"average_rating", "total_ratings", "created_at", "updated_at",
		"owner_id_2", "owner_name", "owner_email",
	}
}

func storeRow(s *domain.Store, ownerName, ownerEmail string) *pgxmock.Rows {
	rows := pgxmock.NewRows(storeTestColumns())
	if s.OwnerID != nil {
		return rows.AddRow(
			s.ID, s.Name, s.Email, s.Address, s.OwnerID,
			s.AverageRating, s.TotalRatings, s.CreatedAt, s.UpdatedAt,
			s.OwnerID, &ownerName, &ownerEmail,
		)
	}
	return rows.AddRow(
		s.ID, s.Name, s.Email, s.Address, nil,
		s.AverageRating, s.TotalRatings, s.CreatedAt, s.UpdatedAt,
		nil, nil, nil,
	)
}

func TestStoreRepository_Create_Success(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	s := sampleStore()
	mock.ExpectExec("INSERT INTO stores").
		WithArgs(s.ID, s.Name, s.Email, s.Address, s.OwnerID, s.AverageRating, s.TotalRatings, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_Create_OwnerAlreadyHasStore(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	s := sampleStore()
	mock.ExpectExec("INSERT INTO stores").
		WithArgs(s.ID, s.Name, s.Email, s.Address, s.OwnerID, s.AverageRating, s.TotalRatings, s.CreatedAt, s.UpdatedAt).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestStoreRepository_OwnerHasStore(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("owner-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	owned, err := repo.OwnerHasStore(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = repo.OwnerHasStore(context.Background(), "owner-2")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestStoreRepository_GetByID_WithOwner(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	s := sampleStore()
	mock.ExpectQuery("SELECT (.+) FROM stores s LEFT JOIN users u").
		WithArgs(s.ID).
		WillReturnRows(storeRow(s, "Owen Owner", "owen@example.com"))

	got, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "Owen Owner", got.Owner.Name)
	assert.Equal(t, "owen@example.com", got.Owner.Email)
}

func TestStoreRepository_GetByID_Unowned(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	s := sampleStore()
	s.OwnerID = nil
	mock.ExpectQuery("SELECT (.+) FROM stores s LEFT JOIN users u").
		WithArgs(s.ID).
		WillReturnRows(storeRow(s, "", ""))

	got, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.Nil(t, got.Owner)
}

func TestStoreRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM stores s LEFT JOIN users u").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(storeTestColumns()))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoreRepository_GetOwnerID(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	ownerID := "owner-1"
	mock.ExpectQuery("SELECT owner_id FROM stores WHERE id").
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(&ownerID))

	got, err := repo.GetOwnerID(context.Background(), "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owner-1", *got)
}

func TestStoreRepository_GetOwnerID_Unowned(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT owner_id FROM stores WHERE id").
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(nil))

	got, err := repo.GetOwnerID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreRepository_GetOwnerID_StoreNotFound(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT owner_id FROM stores WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}))

	_, err := repo.GetOwnerID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoreRepository_List_RatingBounds(t *testing.T) {
	repo, mock := newStoreTestFixture(t)
	defer mock.Close()

	s := sampleStore()
	raw := url.Values{"minRating": {"3"}, "sortBy": {"average_rating"}, "sortOrder": {"desc"}}

	mock.ExpectQuery("SELECT (.+) FROM stores s LEFT JOIN users u ON u.id = s.owner_id WHERE s.average_rating >= \\$1 ORDER BY s.average_rating DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs(3.0, 10, 0).
		WillReturnRows(storeRow(s, "Owen Owner", "owen@example.com"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM stores s LEFT JOIN users u ON u.id = s.owner_id WHERE s.average_rating >= \\$1").
		WithArgs(3.0).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	result, err := repo.List(context.Background(), raw, 1, 10)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "3", result.Applied["minRating"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
