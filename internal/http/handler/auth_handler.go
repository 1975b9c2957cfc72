package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"go.uber.org/zap"
)

// UserLister lists provisioned users.
type UserLister interface {
	List(ctx context.Context) ([]domain.User, error)
}

type AuthHandler struct {
	users  UserLister
	logger *zap.Logger
}

func NewAuthHandler(users UserLister, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// MeResponse describes the caller.
type MeResponse struct {
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName,omitempty"`
	Role        domain.UserRole `json:"role"`
	AuthType    string          `json:"authType"`
	IsAdmin     bool            `json:"isAdmin"`
	// UpdatableFields lists the SRF fields this role may change
	UpdatableFields []string `json:"updatableFields"`
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{
		Username:        userCtx.Username,
		DisplayName:     userCtx.DisplayName,
		Role:            userCtx.Role,
		AuthType:        userCtx.AuthType,
		IsAdmin:         userCtx.IsAdmin(),
		UpdatableFields: updatableFieldNames(userCtx.Role),
	})
}

// ListUsers godoc
// @Summary List users seen by the service (admin)
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.User]
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to list users", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(users))
}

func updatableFieldNames(role domain.UserRole) []string {
	fields := domain.UpdatableFields(role, domain.SRFUpdateRequest{})
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
