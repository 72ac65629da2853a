package vehicles

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db"
	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/fipe"
)

func setupVehiclesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	vehicles := `
CREATE TABLE IF NOT EXISTS vehicles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  brand TEXT NOT NULL,
  model TEXT NOT NULL,
  model_year INTEGER NOT NULL,
  engine_displacement TEXT,
  valves INTEGER,
  fuel_type TEXT,
  plate TEXT,
  fipe_code TEXT,
  is_primary BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	index := `CREATE UNIQUE INDEX IF NOT EXISTS vehicles_user_plate_key ON vehicles (user_id, plate);`
	require.NoError(t, conn.Exec(vehicles).Error)
	require.NoError(t, conn.Exec(index).Error)
	return conn
}

func insertVehicle(t *testing.T, repo Repository, userID uuid.UUID, model string, primary bool, createdAt time.Time) models.Vehicle {
	t.Helper()

	v := models.Vehicle{
		UserID:    userID,
		Brand:     "Chevrolet",
		Model:     model,
		ModelYear: 2020,
		IsPrimary: primary,
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), &v))
	return v
}

func TestRepositoryListByUser_primaryFirst(t *testing.T) {
	conn := setupVehiclesTestDB(t)
	repo := NewRepository(conn)

	user := uuid.New()
	now := time.Now().UTC()
	insertVehicle(t, repo, user, "Onix", false, now.Add(-2*time.Hour))
	insertVehicle(t, repo, user, "Tracker", true, now.Add(-time.Hour))
	insertVehicle(t, repo, user, "S10", false, now)
	insertVehicle(t, repo, uuid.New(), "Cruze", true, now)

	list, err := repo.ListByUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Tracker", list[0].Model)
	assert.Equal(t, "Onix", list[1].Model)
	assert.Equal(t, "S10", list[2].Model)

	count, err := repo.CountByUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRepositoryFindPrimary(t *testing.T) {
	conn := setupVehiclesTestDB(t)
	repo := NewRepository(conn)

	user := uuid.New()
	_, err := repo.FindPrimary(context.Background(), user)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	insertVehicle(t, repo, user, "Onix", true, time.Now().UTC())
	got, err := repo.FindPrimary(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Onix", got.Model)
}

func TestRepositoryDuplicatePlateConflicts(t *testing.T) {
	conn := setupVehiclesTestDB(t)
	repo := NewRepository(conn)

	user := uuid.New()
	plate := "ABC1D23"
	first := models.Vehicle{UserID: user, Brand: "Fiat", Model: "Argo", ModelYear: 2021, Plate: &plate}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.Vehicle{UserID: user, Brand: "Fiat", Model: "Argo", ModelYear: 2021, Plate: &plate}
	err := repo.Create(context.Background(), &second)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRepositoryMarkPrimaryMissing(t *testing.T) {
	conn := setupVehiclesTestDB(t)
	repo := NewRepository(conn)

	err := repo.MarkPrimary(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func newSQLiteService(t *testing.T) (Service, Repository) {
	t.Helper()

	conn := setupVehiclesTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceDeps{
		Repo:    repo,
		Tx:      db.NewFromConn(conn),
		Catalog: &stubCatalog{brands: []fipe.Reference{}},
	})
	require.NoError(t, err)
	return svc, repo
}

func TestServiceRegister_firstVehicleBecomesPrimary(t *testing.T) {
	svc, repo := newSQLiteService(t)
	user := uuid.New()

	first, err := svc.Register(context.Background(), user, RegisterInput{Brand: " Chevrolet ", Model: "Onix", ModelYear: 2020, FuelType: "Flex", Plate: "abc-1d23"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, "Chevrolet", first.Brand)
	require.NotNil(t, first.Plate)
	assert.Equal(t, "ABC1D23", *first.Plate)

	second, err := svc.Register(context.Background(), user, RegisterInput{Brand: "Fiat", Model: "Argo", ModelYear: 2022})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	third, err := svc.Register(context.Background(), user, RegisterInput{Brand: "VW", Model: "Polo", ModelYear: 2023, Primary: true})
	require.NoError(t, err)
	assert.True(t, third.IsPrimary)

	primary, err := repo.FindPrimary(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, third.ID, primary.ID)

	list, err := svc.List(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	primaries := 0
	for _, v := range list {
		if v.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestServiceSetPrimary(t *testing.T) {
	svc, _ := newSQLiteService(t)
	user := uuid.New()

	first, err := svc.Register(context.Background(), user, RegisterInput{Brand: "Chevrolet", Model: "Onix", ModelYear: 2020})
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), user, RegisterInput{Brand: "Fiat", Model: "Argo", ModelYear: 2022})
	require.NoError(t, err)

	updated, err := svc.SetPrimary(context.Background(), user, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)

	primary, err := svc.Primary(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)
	assert.NotEqual(t, first.ID, primary.ID)

	_, err = svc.SetPrimary(context.Background(), uuid.New(), first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
