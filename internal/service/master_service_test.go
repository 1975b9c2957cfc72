package service_test

import (
	"context"
	"testing"

	"github.com/motorserv/srf-api/internal/datawarehouse"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWarehouse serves ERP customers keyed by exact name.
type fakeWarehouse struct {
	customers map[string]*datawarehouse.Customer
}

func (f *fakeWarehouse) IsEnabled() bool { return true }

func (f *fakeWarehouse) FindCustomerByName(ctx context.Context, name string) (*datawarehouse.Customer, error) {
	return f.customers[name], nil
}

func (f *fakeWarehouse) FindCustomerByCode(ctx context.Context, code string) (*datawarehouse.Customer, error) {
	for _, c := range f.customers {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func TestMasterService_CreateGeneratesCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()

	first, err := env.masters.Create(ctx, &domain.CreateMasterRequest{Name: " Shree Motors "})
	require.NoError(t, err)
	assert.Equal(t, "M0001", first.Code)
	assert.Equal(t, "Shree Motors", first.Name)
	assert.Equal(t, "operator", first.CreatedBy)

	second, err := env.masters.Create(ctx, &domain.CreateMasterRequest{Name: "Acme Pumps"})
	require.NoError(t, err)
	assert.Equal(t, "M0002", second.Code)

	_, err = env.masters.Create(ctx, &domain.CreateMasterRequest{Name: "SHREE MOTORS"})
	assert.ErrorIs(t, err, service.ErrMasterAlreadyExists)

	got, err := env.masters.Get(ctx, "m0002")
	require.NoError(t, err)
	assert.Equal(t, "Acme Pumps", got.Name)

	_, err = env.masters.Get(ctx, "M0404")
	assert.ErrorIs(t, err, service.ErrMasterNotFound)
}

func TestMasterService_ResolveImportsFromWarehouse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	wh := &fakeWarehouse{customers: map[string]*datawarehouse.Customer{
		"Kiran Electricals": {Code: "K77", Name: "Kiran Electricals", City: "Nashik", Contact1: " 98220 "},
		"Long Code Traders": {Code: "ERP-100245", Name: "Long Code Traders"},
	}}
	masters := service.NewMasterService(repository.NewMasterRepository(db), wh, zap.NewNop())
	ctx := testutil.UserCtx()

	m, err := masters.ResolveByName(ctx, "Kiran Electricals")
	require.NoError(t, err)
	assert.Equal(t, "K77", m.Code)
	assert.Equal(t, "Nashik", *m.City)
	assert.Equal(t, "98220", *m.Contact1)
	assert.Nil(t, m.GST)

	// stored locally now
	stored, err := repository.NewMasterRepository(db).GetByCode(ctx, "K77")
	require.NoError(t, err)
	assert.Equal(t, "operator", stored.CreatedBy)

	m, err = masters.ResolveByName(ctx, "Long Code Traders")
	require.NoError(t, err)
	assert.Equal(t, "M0002", m.Code)

	_, err = masters.ResolveByName(ctx, "Unknown Co")
	assert.ErrorIs(t, err, service.ErrMasterNotFound)
}

func TestMasterService_ResolveReplacesTakenERPCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateTestMaster(t, db, "K77", "Kamal Traders")
	wh := &fakeWarehouse{customers: map[string]*datawarehouse.Customer{
		"Kiran Electricals": {Code: "k77", Name: "Kiran Electricals"},
	}}
	masters := service.NewMasterService(repository.NewMasterRepository(db), wh, zap.NewNop())
	ctx := testutil.UserCtx()

	m, err := masters.ResolveByName(ctx, "Kiran Electricals")
	require.NoError(t, err)
	assert.Equal(t, "M0001", m.Code)

	// the local customer keeps its code
	kamal, err := masters.Get(ctx, "K77")
	require.NoError(t, err)
	assert.Equal(t, "Kamal Traders", kamal.Name)

	again, err := masters.ResolveByName(ctx, "kiran electricals")
	require.NoError(t, err)
	assert.Equal(t, "M0001", again.Code)
}
