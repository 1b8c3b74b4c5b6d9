package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ratehub/storeratings/internal/domain"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
)

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestVerifier_Verify(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute)
	user := testUser()
	token, err := m.GenerateAccessToken(user)
	require.NoError(t, err)

	lookup := new(mockUserLookup)
	lookup.On("GetByID", mock.Anything, "user-1").Return(user, nil)

	identity, err := NewVerifier(m, lookup).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "Jordan Example", identity.Name)
	assert.Equal(t, domain.RoleNormalUser, identity.Role)
	lookup.AssertExpectations(t)
}

func TestVerifier_InvalidToken(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute)
	lookup := new(mockUserLookup)

	_, err := NewVerifier(m, lookup).Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, ErrInvalidToken, err)
	lookup.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestVerifier_ExpiredToken(t *testing.T) {
	expired := NewJWTManager("test-secret", -1*time.Minute)
	token, err := expired.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = NewVerifier(expired, new(mockUserLookup)).Verify(context.Background(), token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestVerifier_UnknownSubject(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute)
	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)

	lookup := new(mockUserLookup)
	lookup.On("GetByID", mock.Anything, "user-1").Return(nil, apperrors.NotFound("user", "user-1"))

	_, err = NewVerifier(m, lookup).Verify(context.Background(), token)
	assert.Equal(t, ErrUnknownSubject, err)
}

func TestVerifier_LookupFailure(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute)
	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)

	lookup := new(mockUserLookup)
	lookup.On("GetByID", mock.Anything, "user-1").Return(nil, errors.New("connection refused"))

	_, err = NewVerifier(m, lookup).Verify(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
}
