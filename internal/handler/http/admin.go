package http

import (
	"log/slog"
	"net/http"

	"github.com/ratehub/storeratings/internal/service"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/httputil"
	"github.com/ratehub/storeratings/pkg/pagination"
	"github.com/ratehub/storeratings/pkg/validator"
)

// AdminHandler handles the admin listing and provisioning endpoints.
type AdminHandler struct {
	svc    *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	Address  string `json:"address" validate:"max=400"`
	Role     string `json:"role" validate:"required"`
}

type createStoreRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=100"`
	Email   string  `json:"email" validate:"required,email"`
	Address string  `json:"address" validate:"max=400"`
	OwnerID *string `json:"owner_id" validate:"omitempty,uuid"`
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	page, err := h.svc.ListUsers(r.Context(), identity, r.URL.Query(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// CreateUser handles POST /api/v1/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req createUserRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), identity, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// ListStores handles GET /api/v1/admin/stores.
func (h *AdminHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	page, err := h.svc.ListStores(r.Context(), identity, r.URL.Query(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// CreateStore handles POST /api/v1/admin/stores.
func (h *AdminHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req createStoreRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	store, err := h.svc.CreateStore(r.Context(), identity, service.CreateStoreInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: store})
}

// ListStoreOwners handles GET /api/v1/admin/store-owners.
func (h *AdminHandler) ListStoreOwners(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	owners, err := h.svc.ListStoreOwners(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: owners})
}

// Dashboard handles GET /api/v1/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r)
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), h.logger)
		return
	}

	counts, err := h.svc.Dashboard(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: counts})
}
