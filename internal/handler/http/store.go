package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ratehub/storeratings/internal/service"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/httputil"
	"github.com/ratehub/storeratings/pkg/middleware"
	"github.com/ratehub/storeratings/pkg/pagination"
	"github.com/ratehub/storeratings/pkg/validator"
)

// StoreHandler handles store browsing and rating endpoints.
type StoreHandler struct {
	svc    *service.StoreService
	logger *slog.Logger
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(svc *service.StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{svc: svc, logger: logger}
}

type rateStoreRequest struct {
	Score  int    `json:"score" validate:"required,gte=1,lte=5"`
	Review string `json:"review" validate:"max=500"`
}

// List handles GET /api/v1/stores.
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	page, err := h.svc.List(r.Context(), r.URL.Query(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// GetByID handles GET /api/v1/stores/{id}. The detail payload includes the
// caller's own rating when they have one.
func (h *StoreHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	detail, err := h.svc.GetByID(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// ListRatings handles GET /api/v1/stores/{id}/ratings.
func (h *StoreHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	result, err := h.svc.ListRatings(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// RateStore handles POST /api/v1/stores/{id}/ratings. Submitting a second
// rating for the same store overwrites the first.
func (h *StoreHandler) RateStore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req rateStoreRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	snapshot, err := h.svc.RecordRating(r.Context(), identity, chi.URLParam(r, "id"), req.Score, req.Review)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: snapshot})
}

// GetMyRating handles GET /api/v1/stores/{id}/ratings/me.
func (h *StoreHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	rating, err := h.svc.GetMyRating(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rating})
}

// ListRaters handles GET /api/v1/stores/{id}/raters. Restricted to admins and
// the store's owner.
func (h *StoreHandler) ListRaters(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	raters, err := h.svc.ListRaters(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: raters})
}
