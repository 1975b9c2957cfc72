package service_test

import (
	"testing"

	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	srf        *service.SRFService
	settlement *service.SettlementService
	vendor     *service.VendorService
	masters    *service.MasterService
	registry   *service.RegistryService
	catalog    *service.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	srfRepo := repository.NewSRFRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	modelRepo := repository.NewModelRepository(db)
	centerRepo := repository.NewServiceCenterRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	masters := service.NewMasterService(repository.NewMasterRepository(db), nil, log)
	allocator := service.NewIdentifierAllocator(srfRepo, log)

	return &testEnv{
		db:         db,
		srf:        service.NewSRFService(srfRepo, registryRepo, modelRepo, centerRepo, masters, allocator, log),
		settlement: service.NewSettlementService(srfRepo, log),
		vendor:     service.NewVendorService(srfRepo, repository.NewVendorRepository(db), ledgerRepo, registryRepo, log),
		masters:    masters,
		registry:   service.NewRegistryService(registryRepo, log),
		catalog:    service.NewCatalogService(modelRepo, repository.NewRewindingRateRepository(db), centerRepo, log),
	}
}
