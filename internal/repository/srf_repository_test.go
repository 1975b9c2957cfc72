package repository_test

import (
	"context"
	"testing"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSRFRepository_ListSRFNumbersPerKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)
	ctx := context.Background()

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, db, "R00001/1", "M0001", nil)
	testutil.CreateTestWarranty(t, db, "R00002/1", "M0001", nil)
	testutil.CreateTestOutOfWarranty(t, db, "S00007/1", "M0001", nil)

	ids, err := repo.ListSRFNumbers(ctx, domain.KindWarranty)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"R00001/1", "R00002/1"}, ids)

	ids, err = repo.ListSRFNumbers(ctx, domain.KindOutOfWarranty)
	require.NoError(t, err)
	assert.Equal(t, []string{"S00007/1"}, ids)
}

func TestSRFRepository_CreateDuplicateIsUniqueViolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	existing := testutil.CreateTestWarranty(t, db, "R00001/1", "M0001", nil)

	dup := *existing
	err := repo.Create(context.Background(), &dup)
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err))
}

func TestSRFRepository_GetBySRFNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)
	ctx := context.Background()

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	testutil.CreateTestOutOfWarranty(t, db, "S00003/2", "M0001", func(o *domain.OutOfWarranty) {
		o.ServiceCharge = 350
	})

	rec, err := repo.GetBySRFNumber(ctx, domain.KindOutOfWarranty, "S00003/2")
	require.NoError(t, err)
	o, ok := rec.(*domain.OutOfWarranty)
	require.True(t, ok)
	assert.Equal(t, 350.0, o.ServiceCharge)
	assert.Equal(t, domain.FlagYes, o.Chargeable)

	_, err = repo.GetBySRFNumber(ctx, domain.KindWarranty, "S00003/2")
	assert.True(t, repository.IsNotFound(err))
}

func TestSRFRepository_ListFamilyOrdered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, db, "R00005/3", "M0001", nil)
	testutil.CreateTestWarranty(t, db, "R00005/1", "M0001", nil)
	testutil.CreateTestWarranty(t, db, "R00050/1", "M0001", nil)

	family, err := repo.ListFamily(context.Background(), domain.KindWarranty, "R00005")
	require.NoError(t, err)
	require.Len(t, family, 2)
	assert.Equal(t, "R00005/1", family[0].Identity().SRFNumber)
	assert.Equal(t, "R00005/3", family[1].Identity().SRFNumber)
}

func TestSRFRepository_ClaimCountsExcludeSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)
	ctx := context.Background()

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, db, "R00001/1", "M0001", func(w *domain.Warranty) {
		w.ComplaintNumber = testutil.Ptr("CMP0000000001")
		w.CGSRFNumber = testutil.Ptr(int64(9001))
	})

	n, err := repo.CountComplaintNumberClaims(ctx, "CMP0000000001", "R00001/1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.CountComplaintNumberClaims(ctx, "CMP0000000001", "R00002/1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountCGSRFNumberClaims(ctx, 9001, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSRFRepository_TransactionRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSRFRepository(db)
	ctx := context.Background()

	testutil.CreateTestMaster(t, db, "M0001", "ACME PUMPS")
	w := testutil.CreateTestWarranty(t, db, "R00001/1", "M0001", nil)

	err := repo.Transaction(ctx, func(tx *gorm.DB) error {
		w.Problem = "CHANGED"
		require.NoError(t, repo.WithTx(tx).Save(ctx, w))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	rec, err := repo.GetBySRFNumber(ctx, domain.KindWarranty, "R00001/1")
	require.NoError(t, err)
	assert.Equal(t, "NOT STARTING", rec.Identity().Problem)
}
