package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler serves models, rewinding rates, service centers and customer masters.
type CatalogHandler struct {
	catalogService *service.CatalogService
	masterService  *service.MasterService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, masterService *service.MasterService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, masterService: masterService, logger: logger}
}

// CreateModel godoc
// @Summary Register a motor or pump model
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateModelRequest true "Model"
// @Success 201 {object} domain.Model
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /models [post]
func (h *CatalogHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateModelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	model, err := h.catalogService.CreateModel(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "failed to create model", err)
		return
	}
	respondJSON(w, http.StatusCreated, model)
}

// ListModels godoc
// @Summary List models
// @Tags Catalog
// @Produce json
// @Param division query string false "Division"
// @Success 200 {object} domain.ListResponse[domain.Model]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /models [get]
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalogService.ListModels(r.Context(), r.URL.Query().Get("division"))
	if err != nil {
		respondError(w, r, h.logger, "failed to list models", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(models))
}

// CostDetails godoc
// @Summary Rewinding and vendor charges for a model
// @Tags Catalog
// @Produce json
// @Param model path string true "Model name"
// @Success 200 {object} domain.CostDetails
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /models/{model}/cost-details [get]
func (h *CatalogHandler) CostDetails(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "model"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid model name")
		return
	}
	details, err := h.catalogService.CostDetails(r.Context(), name)
	if err != nil {
		respondError(w, r, h.logger, "failed to get cost details", err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// CreateRewindingRate godoc
// @Summary Add a rewinding rate row
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateRewindingRateRequest true "Rate"
// @Success 201 {object} domain.RewindingRate
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rewinding-rates [post]
func (h *CatalogHandler) CreateRewindingRate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRewindingRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rate, err := h.catalogService.CreateRewindingRate(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "failed to create rewinding rate", err)
		return
	}
	respondJSON(w, http.StatusCreated, rate)
}

// ListRewindingRates godoc
// @Summary List rewinding rates
// @Tags Catalog
// @Produce json
// @Param division query string false "Division"
// @Success 200 {object} domain.ListResponse[domain.RewindingRate]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rewinding-rates [get]
func (h *CatalogHandler) ListRewindingRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.catalogService.ListRewindingRates(r.Context(), r.URL.Query().Get("division"))
	if err != nil {
		respondError(w, r, h.logger, "failed to list rewinding rates", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(rates))
}

// CreateServiceCenter godoc
// @Summary Register a service center
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateServiceCenterRequest true "Service center"
// @Success 201 {object} domain.ServiceCenter
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /service-centers [post]
func (h *CatalogHandler) CreateServiceCenter(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateServiceCenterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	center, err := h.catalogService.CreateServiceCenter(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "failed to create service center", err)
		return
	}
	respondJSON(w, http.StatusCreated, center)
}

// ListServiceCenters godoc
// @Summary List service centers
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.ServiceCenter]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /service-centers [get]
func (h *CatalogHandler) ListServiceCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.catalogService.ListServiceCenters(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to list service centers", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(centers))
}

// CreateMaster godoc
// @Summary Register a customer
// @Description The customer code is generated
// @Tags Masters
// @Accept json
// @Produce json
// @Param request body domain.CreateMasterRequest true "Customer"
// @Success 201 {object} domain.Master
// @Failure 409 {object} domain.APIError "Name already registered"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /masters [post]
func (h *CatalogHandler) CreateMaster(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMasterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	master, err := h.masterService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "failed to create master", err)
		return
	}
	respondJSON(w, http.StatusCreated, master)
}

// SearchMasters godoc
// @Summary Search customers by name
// @Tags Masters
// @Produce json
// @Param name query string false "Name contains"
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} domain.ListResponse[domain.Master]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /masters [get]
func (h *CatalogHandler) SearchMasters(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	masters, err := h.masterService.Search(r.Context(), r.URL.Query().Get("name"), limit)
	if err != nil {
		respondError(w, r, h.logger, "failed to search masters", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(masters))
}

// GetMaster godoc
// @Summary Get a customer by code
// @Tags Masters
// @Produce json
// @Param code path string true "Customer code"
// @Success 200 {object} domain.Master
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /masters/{code} [get]
func (h *CatalogHandler) GetMaster(w http.ResponseWriter, r *http.Request) {
	master, err := h.masterService.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, r, h.logger, "failed to get master", err)
		return
	}
	respondJSON(w, http.StatusOK, master)
}
