package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/http/handler"
	"github.com/motorserv/srf-api/internal/http/middleware"
	"github.com/motorserv/srf-api/internal/http/router"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/storage"
	"github.com/motorserv/srf-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "router-test-key"

type testServer struct {
	db      *gorm.DB
	handler http.Handler
	tokens  *auth.JWTValidator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	cfg := &config.Config{
		App:  config.AppConfig{Name: "srf-api", Environment: "development"},
		Auth: config.AuthConfig{JWTSecret: "router-test-secret", APIKey: testAPIKey},
		Server: config.ServerConfig{
			RequestTimeout: 30,
		},
		Storage: config.StorageConfig{MaxUploadSizeMB: 1},
		Security: config.SecurityConfig{
			ContentTypeNosniff: true,
			FrameOptions:       "DENY",
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	exportStorage, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	srfRepo := repository.NewSRFRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	modelRepo := repository.NewModelRepository(db)
	centerRepo := repository.NewServiceCenterRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)

	masterService := service.NewMasterService(repository.NewMasterRepository(db), nil, log)
	allocator := service.NewIdentifierAllocator(srfRepo, log)
	srfService := service.NewSRFService(srfRepo, registryRepo, modelRepo, centerRepo, masterService, allocator, log)
	settlementService := service.NewSettlementService(srfRepo, log)
	vendorService := service.NewVendorService(srfRepo, repository.NewVendorRepository(db), ledgerRepo, registryRepo, log)
	ledgerService := service.NewLedgerService(ledgerRepo, log)
	catalogService := service.NewCatalogService(modelRepo, repository.NewRewindingRateRepository(db), centerRepo, log)
	registryService := service.NewRegistryService(registryRepo, log)
	exportService := service.NewExportService(ledgerRepo, repository.NewLedgerExportRepository(db), exportStorage, log)
	auditLogService := service.NewAuditLogService(repository.NewAuditLogRepository(db), log)

	handlers := router.Handlers{
		Warranty:      handler.NewSRFHandler(domain.KindWarranty, srfService, settlementService, ledgerService, log),
		OutOfWarranty: handler.NewSRFHandler(domain.KindOutOfWarranty, srfService, settlementService, ledgerService, log),
		Vendor:        handler.NewVendorHandler(vendorService, log),
		Registry:      handler.NewRegistryHandler(registryService, cfg.Storage.MaxUploadSizeMB, log),
		Catalog:       handler.NewCatalogHandler(catalogService, masterService, log),
		Export:        handler.NewExportHandler(exportService, log),
		Audit:         handler.NewAuditHandler(auditLogService, log),
		Auth:          handler.NewAuthHandler(userRepo, log),
	}

	// audit writes are detached from the request; they are covered in the middleware tests
	rt := router.NewRouter(cfg, log, db, nil,
		auth.NewMiddleware(cfg, userRepo, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		middleware.NewAuditMiddleware(nil, nil, log),
		handlers,
	)

	return &testServer{db: db, handler: rt.Setup(), tokens: auth.NewJWTValidator(&cfg.Auth)}
}

func (s *testServer) token(t *testing.T, username string, role domain.UserRole) string {
	t.Helper()
	token, err := s.tokens.IssueToken(username, role, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends body as JSON when it is not nil and not already a reader.
func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func warrantyBody(srfNumber string) map[string]interface{} {
	return map[string]interface{}{
		"srfNumber":    srfNumber,
		"name":         "ACME PUMPS",
		"srfDate":      "2024-03-04T10:00:00Z",
		"head":         "REPAIR",
		"division":     "ALTERNATOR",
		"model":        "ALT-200",
		"serialNumber": "SN-1",
		"problem":      "NO OUTPUT",
	}
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "disabled", checks["dataWarehouse"].(map[string]interface{})["status"])
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", s.token(t, "ravi", domain.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[handler.MeResponse](t, w)
	assert.Equal(t, "ravi", me.Username)
	assert.False(t, me.IsAdmin)
	assert.Contains(t, me.UpdatableFields, "deliveredBy")
	assert.NotContains(t, me.UpdatableFields, "discount")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	me = decode[handler.MeResponse](t, rec)
	assert.Equal(t, "system", me.Username)
	assert.True(t, me.IsAdmin)
	assert.Contains(t, me.UpdatableFields, "discount")

	// every caller so far was provisioned
	w = s.do(t, http.MethodGet, "/api/v1/users", s.token(t, "meena", domain.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[domain.ListResponse[domain.User]](t, w)
	assert.Equal(t, 3, users.Total)

	w = s.do(t, http.MethodGet, "/api/v1/users", s.token(t, "ravi", domain.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_WarrantyRecord(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateTestMaster(t, s.db, "M0001", "ACME PUMPS")
	user := s.token(t, "ravi", domain.RoleUser)

	w := s.do(t, http.MethodPost, "/api/v1/warranty", user, warrantyBody("NEW/1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Warranty](t, w)
	assert.Equal(t, "R00001/1", created.SRFNumber)
	assert.Equal(t, "ravi", created.CreatedBy)

	w = s.do(t, http.MethodGet, "/api/v1/warranty/next-srf-number", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "R00002", decode[domain.NumberResponse](t, w).Number)

	// both path forms and the shorthand resolve to the same record
	for _, target := range []string{"/api/v1/warranty/1/1", "/api/v1/warranty/R00001%2F1", "/api/v1/warranty/1"} {
		w = s.do(t, http.MethodGet, target, user, nil)
		require.Equal(t, http.StatusOK, w.Code, target)
		view := decode[map[string]interface{}](t, w)
		assert.Equal(t, "R00001/1", view["record"].(map[string]interface{})["srfNumber"], target)
		assert.Equal(t, string(domain.StateOpen), view["state"], target)
	}

	w = s.do(t, http.MethodGet, "/api/v1/out-of-warranty/1/1", user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/warranty/pending", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.ListResponse[domain.LedgerRow]](t, w).Total)

	// discount is an admin field
	w = s.do(t, http.MethodPut, "/api/v1/warranty/1/1", user, map[string]interface{}{"discount": 50})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FieldNotPermitted", decode[domain.APIError](t, w).Code)

	// warranty records close only with registered cross references
	w = s.do(t, http.MethodPut, "/api/v1/warranty/1/1", user, map[string]interface{}{"finalStatus": "Y"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestRouter_OutOfWarrantySettlement(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateTestMaster(t, s.db, "M0001", "ACME PUMPS")
	user := s.token(t, "ravi", domain.RoleUser)
	admin := s.token(t, "meena", domain.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/v1/out-of-warranty", user, warrantyBody("NEW/1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "S00001/1", decode[domain.OutOfWarranty](t, w).SRFNumber)

	w = s.do(t, http.MethodPut, "/api/v1/out-of-warranty/1/1", admin, map[string]interface{}{
		"discount":    50,
		"finalAmount": 950,
		"finalStatus": "Y",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/out-of-warranty/not-settled", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.ListResponse[domain.LedgerRow]](t, w).Total)

	w = s.do(t, http.MethodPut, "/api/v1/out-of-warranty/settlement", user, map[string]interface{}{
		"items": []map[string]interface{}{
			{"srfNumber": "S00001/1", "settlementDate": "2024-04-01T00:00:00Z"},
			{"srfNumber": "S00077/1", "settlementDate": "2024-04-01T00:00:00Z"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[domain.BatchResult](t, w)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Skipped)

	// proposing settlement locks the costing block
	w = s.do(t, http.MethodPut, "/api/v1/out-of-warranty/S00001%2F1", admin, map[string]interface{}{"finalAmount": 900})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RecordLocked", decode[domain.APIError](t, w).Code)

	w = s.do(t, http.MethodGet, "/api/v1/out-of-warranty/final-settlement", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/out-of-warranty/final-settlement", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.ListResponse[domain.LedgerRow]](t, w).Total)

	w = s.do(t, http.MethodPut, "/api/v1/out-of-warranty/final-settlement", admin, map[string]interface{}{
		"items": []map[string]interface{}{{"srfNumber": "S00001/1", "finalSettled": "Y"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[domain.BatchResult](t, w).Applied)

	w = s.do(t, http.MethodGet, "/api/v1/out-of-warranty/1/1", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.StateSettled), decode[map[string]interface{}](t, w)["state"])
}

func TestRouter_ErrorDocuments(t *testing.T) {
	s := newTestServer(t)
	user := s.token(t, "ravi", domain.RoleUser)

	tests := []struct {
		name       string
		method     string
		target     string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown record",
			method:     http.MethodGet,
			target:     "/api/v1/warranty/R00099%2F1",
			wantStatus: http.StatusNotFound,
			wantCode:   "RecordNotFound",
		},
		{
			name:       "malformed identifier",
			method:     http.MethodGet,
			target:     "/api/v1/warranty/S00001%2F1",
			wantStatus: http.StatusBadRequest,
			wantCode:   "MalformedIdentifier",
		},
		{
			name:       "unknown customer",
			method:     http.MethodPost,
			target:     "/api/v1/warranty",
			body:       warrantyBody("NEW/1"),
			wantStatus: http.StatusNotFound,
			wantCode:   "MasterNotFound",
		},
		{
			name:       "unknown challan",
			method:     http.MethodGet,
			target:     "/api/v1/vendor/challan/V00404",
			wantStatus: http.StatusNotFound,
			wantCode:   "ChallanNotFound",
		},
		{
			name:       "unknown model",
			method:     http.MethodGet,
			target:     "/api/v1/models/NOPE/cost-details",
			wantStatus: http.StatusNotFound,
			wantCode:   "ModelNotFound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.target, user, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			problem := decode[domain.APIError](t, w)
			assert.Equal(t, tt.wantCode, problem.Code)
			assert.Equal(t, tt.wantStatus, problem.Status)
		})
	}
}

func TestRouter_ValidationErrorsUseJSONNames(t *testing.T) {
	s := newTestServer(t)

	body := warrantyBody("NEW/1")
	delete(body, "serialNumber")
	body["head"] = "SCRAP"

	w := s.do(t, http.MethodPost, "/api/v1/warranty", s.token(t, "ravi", domain.RoleUser), body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	problem := decode[domain.APIError](t, w)
	assert.Equal(t, "ValidationFailure", problem.Code)
	assert.Contains(t, problem.Errors, "serialNumber")
	assert.Contains(t, problem.Errors, "head")

	w = s.do(t, http.MethodPut, "/api/v1/warranty/settlement", s.token(t, "ravi", domain.RoleUser),
		map[string]interface{}{"items": []map[string]interface{}{{"settlementDate": "2024-04-01T00:00:00Z"}}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[domain.APIError](t, w).Errors, "items[0].srfNumber")

	w = s.do(t, http.MethodPost, "/api/v1/warranty", s.token(t, "ravi", domain.RoleUser), bytes.NewBufferString("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartFile(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRouter_RegistryUpload(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "ravi", domain.RoleUser)

	upload := func(content string) *httptest.ResponseRecorder {
		body, contentType := multipartFile(t, "complaints.csv", content)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/complaint-numbers/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		return w
	}

	w := upload("Complaint Number,Status,Remark\nCMP2403000001,OK,\nCMP2403000002,FALSE,duplicate\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[domain.ImportResult](t, w)
	assert.Equal(t, 2, result.Inserted)

	w = upload("Complaint Number,Status,Remark\nCMP2403000003,OK,\nCMP2403000004,LOST,\n")
	require.Equal(t, http.StatusBadRequest, w.Code)
	problem := decode[domain.APIError](t, w)
	assert.Equal(t, 3, problem.Line)
	assert.Equal(t, domain.ErrorTypeValidation, problem.Type)

	w = s.do(t, http.MethodGet, "/api/v1/complaint-numbers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[domain.ListResponse[domain.ComplaintNumber]](t, w).Total)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/complaint-numbers/upload", bytes.NewBufferString("x"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
}

func TestRouter_LedgerExport(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateTestMaster(t, s.db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, s.db, "R00001/1", "M0001", func(w *domain.Warranty) {
		w.FinalStatus = domain.FlagYes
		w.Chargeable = domain.FlagYes
	})
	user := s.token(t, "ravi", domain.RoleUser)
	admin := s.token(t, "meena", domain.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/v1/exports/ledger", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/exports/ledger", admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	export := decode[domain.LedgerExport](t, w)
	assert.Equal(t, "meena", export.CreatedBy)
	// the closed record is on the customer and vendor sheets
	assert.Equal(t, 2, export.Rows)

	w = s.do(t, http.MethodGet, "/api/v1/exports/ledger", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.ListResponse[domain.LedgerExport]](t, w).Total)

	w = s.do(t, http.MethodGet, "/api/v1/exports/ledger/"+export.ID.String()+"/download", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.Filename)
	assert.NotEmpty(t, w.Body.Bytes())

	w = s.do(t, http.MethodGet, "/api/v1/exports/ledger/not-a-uuid/download", user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
