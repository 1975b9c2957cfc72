package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/database"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a fresh SQLite database in the test's temp dir and
// migrates every model. Unique violations translate to gorm.ErrDuplicatedKey
// as they do against PostgreSQL.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "srf.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// WithUser returns a context carrying an authenticated identity.
func WithUser(ctx context.Context, username string, role domain.UserRole) context.Context {
	return auth.WithUserContext(ctx, &auth.UserContext{
		Username: username,
		Role:     role,
		AuthType: auth.AuthTypeJWT,
	})
}

// UserCtx is WithUser on a background context with the USER role.
func UserCtx() context.Context {
	return WithUser(context.Background(), "operator", domain.RoleUser)
}

// AdminCtx is WithUser on a background context with the ADMIN role.
func AdminCtx() context.Context {
	return WithUser(context.Background(), "admin", domain.RoleAdmin)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CreateTestMaster stores a customer master row.
func CreateTestMaster(t *testing.T, db *gorm.DB, code, name string) *domain.Master {
	t.Helper()
	m := &domain.Master{Code: code, Name: name, City: Ptr("Pune"), CreatedBy: "test"}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreateTestWarranty stores an open warranty record for customer code. mutate
// may adjust fields before insert.
func CreateTestWarranty(t *testing.T, db *gorm.DB, srfNumber, code string, mutate func(*domain.Warranty)) *domain.Warranty {
	t.Helper()
	w := &domain.Warranty{SRFIdentity: testIdentity(srfNumber, code)}
	setFlags(w)
	if mutate != nil {
		mutate(w)
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

// CreateTestOutOfWarranty stores an open chargeable out-of-warranty record.
func CreateTestOutOfWarranty(t *testing.T, db *gorm.DB, srfNumber, code string, mutate func(*domain.OutOfWarranty)) *domain.OutOfWarranty {
	t.Helper()
	o := &domain.OutOfWarranty{SRFIdentity: testIdentity(srfNumber, code), ServiceChargeWaive: domain.FlagNo}
	setFlags(o)
	o.Chargeable = domain.FlagYes
	if mutate != nil {
		mutate(o)
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

// CreateTestModel registers a model in division.
func CreateTestModel(t *testing.T, db *gorm.DB, model, division string) *domain.Model {
	t.Helper()
	m := &domain.Model{Model: model, Division: division, CreatedBy: "test"}
	require.NoError(t, db.Create(m).Error)
	return m
}

func testIdentity(srfNumber, code string) domain.SRFIdentity {
	return domain.SRFIdentity{
		SRFNumber:    srfNumber,
		Code:         code,
		SRFDate:      Date(2024, time.January, 10),
		Head:         domain.HeadRepair,
		Division:     "ALTERNATOR",
		Model:        "ALT-200",
		SerialNumber: "SN-" + srfNumber,
		Problem:      "NOT STARTING",
	}
}

func setFlags(rec domain.SRFRecord) {
	v := rec.Vendor()
	v.Challan, v.VendorPaint, v.VendorStator, v.VendorLeg, v.VendorSettled =
		domain.FlagNo, domain.FlagNo, domain.FlagNo, domain.FlagNo, domain.FlagNo
	rec.Costs().RewindingDone = domain.FlagNo
	rec.Costs().GST = domain.FlagNo
	s := rec.Settlement()
	s.FinalStatus, s.FinalSettled, s.Chargeable = domain.FlagNo, domain.FlagNo, domain.FlagNo
	rec.Audit().CreatedBy = "test"
}
