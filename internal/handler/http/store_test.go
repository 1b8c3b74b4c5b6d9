package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/repository"
	"github.com/ratehub/storeratings/internal/service"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/pagination"
)

func TestListStores_Success(t *testing.T) {
	stores := new(mockStoreRepo)
	stores.On("List", mock.Anything, mock.Anything, 1, 20).Return(&repository.ListResult[domain.Store]{
		Items:      []domain.Store{*sampleStore()},
		TotalCount: 1,
		Applied:    map[string]string{"search": "coffee"},
	}, nil)

	router := setupStoreRouter(testStoreHandler(stores, new(mockRatingRepo)), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores?search=coffee", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var page service.ListPage[domain.Store]
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pagination.TotalCount)
	assert.Equal(t, "coffee", page.Filters["search"])
}

func TestListStores_Unauthenticated(t *testing.T) {
	stores := new(mockStoreRepo)
	router := setupStoreRouter(testStoreHandler(stores, new(mockRatingRepo)), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	stores.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStore_NotFound(t *testing.T) {
	stores := new(mockStoreRepo)
	stores.On("GetByID", mock.Anything, testStoreID).Return(nil, apperrors.NotFound("store", testStoreID))

	router := setupStoreRouter(testStoreHandler(stores, new(mockRatingRepo)), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetStore_IncludesMyRating(t *testing.T) {
	stores := new(mockStoreRepo)
	stores.On("GetByID", mock.Anything, testStoreID).Return(sampleStore(), nil)

	ratings := new(mockRatingRepo)
	ratings.On("GetByUserAndStore", mock.Anything, testUserID, testStoreID).
		Return(&domain.Rating{UserID: testUserID, StoreID: testStoreID, Score: 5, Review: "great"}, nil)

	router := setupStoreRouter(testStoreHandler(stores, ratings), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var detail service.StoreDetail
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, testStoreID, detail.ID)
	require.NotNil(t, detail.MyRating)
	assert.Equal(t, 5, detail.MyRating.Score)
}

func TestListStoreRatings_Success(t *testing.T) {
	stores := new(mockStoreRepo)
	stores.On("GetByID", mock.Anything, testStoreID).Return(sampleStore(), nil)

	ratings := new(mockRatingRepo)
	ratings.On("ListByStorePaged", mock.Anything, testStoreID, 1, 20).
		Return([]domain.Rating{{StoreID: testStoreID, Score: 4, Review: "solid"}}, 1, nil)

	router := setupStoreRouter(testStoreHandler(stores, ratings), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/ratings", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var page pagination.Result[domain.Rating]
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.TotalCount)
}

func TestListStoreRatings_StoreNotFound(t *testing.T) {
	stores := new(mockStoreRepo)
	stores.On("GetByID", mock.Anything, testStoreID).Return(nil, apperrors.NotFound("store", testStoreID))

	router := setupStoreRouter(testStoreHandler(stores, new(mockRatingRepo)), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/ratings", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateStore_Success(t *testing.T) {
	ratings := new(mockRatingRepo)
	ratings.On("Upsert", mock.Anything, mock.MatchedBy(func(r *domain.Rating) bool {
		return r.UserID == testUserID && r.StoreID == testStoreID && r.Score == 4
	})).Return(&domain.AggregateSnapshot{StoreID: testStoreID, AverageRating: 4.0, TotalRatings: 1}, nil)

	router := setupStoreRouter(testStoreHandler(new(mockStoreRepo), ratings), normalValidator())

	body := `{"score":4,"review":"great beans"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+testStoreID+"/ratings", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var snapshot domain.AggregateSnapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snapshot))
	assert.Equal(t, 4.0, snapshot.AverageRating)
	ratings.AssertExpectations(t)
}

func TestRateStore_ScoreOutOfRange(t *testing.T) {
	ratings := new(mockRatingRepo)
	router := setupStoreRouter(testStoreHandler(new(mockStoreRepo), ratings), normalValidator())

	for _, body := range []string{`{"score":0}`, `{"score":6}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+testStoreID+"/ratings", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer test-token")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	ratings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRateStore_OwnerForbidden(t *testing.T) {
	ratings := new(mockRatingRepo)
	router := setupStoreRouter(testStoreHandler(new(mockStoreRepo), ratings), ownerValidator())

	body := `{"score":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+testStoreID+"/ratings", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	ratings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRateStore_StoreNotFound(t *testing.T) {
	ratings := new(mockRatingRepo)
	ratings.On("Upsert", mock.Anything, mock.Anything).Return(nil, apperrors.NotFound("store", testStoreID))

	router := setupStoreRouter(testStoreHandler(new(mockStoreRepo), ratings), normalValidator())

	body := `{"score":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+testStoreID+"/ratings", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMyRating_NotRated(t *testing.T) {
	ratings := new(mockRatingRepo)
	ratings.On("GetByUserAndStore", mock.Anything, testUserID, testStoreID).
		Return(nil, apperrors.ErrNotFound)

	router := setupStoreRouter(testStoreHandler(new(mockStoreRepo), ratings), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/ratings/me", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRaters_OwnerAllowed(t *testing.T) {
	ownerID := testOwnerID
	stores := new(mockStoreRepo)
	stores.On("GetOwnerID", mock.Anything, testStoreID).Return(&ownerID, nil)

	ratings := new(mockRatingRepo)
	ratings.On("ListByStore", mock.Anything, testStoreID).Return([]domain.Rater{
		{UserID: testUserID, Name: "Norm User", Score: 5},
	}, nil)

	router := setupStoreRouter(testStoreHandler(stores, ratings), ownerValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/raters", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
}

func TestListRaters_NormalUserForbidden(t *testing.T) {
	stores := new(mockStoreRepo)
	ratings := new(mockRatingRepo)
	router := setupStoreRouter(testStoreHandler(stores, ratings), normalValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/raters", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	ratings.AssertNotCalled(t, "ListByStore", mock.Anything, mock.Anything)
}

func TestListRaters_NonOwnerForbidden(t *testing.T) {
	someoneElse := "other-owner"
	stores := new(mockStoreRepo)
	stores.On("GetOwnerID", mock.Anything, testStoreID).Return(&someoneElse, nil)

	ratings := new(mockRatingRepo)
	router := setupStoreRouter(testStoreHandler(stores, ratings), ownerValidator())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+testStoreID+"/raters", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	ratings.AssertNotCalled(t, "ListByStore", mock.Anything, mock.Anything)
}
