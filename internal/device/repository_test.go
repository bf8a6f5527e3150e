package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('production', 'storage', 'consumption')),
			status TEXT NOT NULL CHECK (status IN ('online', 'offline')),
			output_watts INTEGER,
			is_solar INTEGER,
			total_capacity_wh INTEGER,
			current_level_wh INTEGER,
			charge_discharge_rate_watts INTEGER,
			consumption_rate_watts INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_devices_owner_id ON devices(owner_id);
		CREATE INDEX idx_devices_kind_status ON devices(kind, status);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testProduction creates a production device for testing.
func testProduction(id, ownerID string, watts int) *Device {
	return &Device{
		ID:         id,
		OwnerID:    ownerID,
		Name:       "Solar Panel",
		Kind:       KindProduction,
		Status:     StatusOnline,
		Production: &Production{OutputWatts: watts, IsSolar: true},
	}
}

// testStorage creates a storage device for testing.
func testStorage(id, ownerID string, capacity, level int) *Device {
	return &Device{
		ID:      id,
		OwnerID: ownerID,
		Name:    "Battery",
		Kind:    KindStorage,
		Status:  StatusOnline,
		Storage: &Storage{TotalCapacityWh: capacity, CurrentLevelWh: level},
	}
}

// testConsumption creates a consumption device for testing.
func testConsumption(id, ownerID string, watts int) *Device {
	return &Device{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Heater",
		Kind:        KindConsumption,
		Status:      StatusOffline,
		Consumption: &Consumption{RateWatts: watts},
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	created := testProduction("prod-1", "user-1", 2500)
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "prod-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OwnerID != "user-1" {
		t.Errorf("owner = %q, want user-1", got.OwnerID)
	}
	if got.Kind != KindProduction {
		t.Errorf("kind = %q, want production", got.Kind)
	}
	if got.Production == nil {
		t.Fatal("production payload missing")
	}
	if got.Production.OutputWatts != 2500 {
		t.Errorf("output = %d, want 2500", got.Production.OutputWatts)
	}
	if !got.Production.IsSolar {
		t.Error("is_solar lost on round trip")
	}
	if got.Storage != nil || got.Consumption != nil {
		t.Error("foreign payloads populated for production device")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}
}

func TestSQLiteRepository_Create_Duplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testProduction("prod-1", "user-1", 1000)); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := repo.Create(ctx, testProduction("prod-1", "user-1", 2000))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("duplicate Create = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepository_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_GetByIDForOwner(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testStorage("stor-1", "user-1", 20000, 5000)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.GetByIDForOwner(ctx, "user-1", "stor-1"); err != nil {
		t.Errorf("owner fetch failed: %v", err)
	}

	// Someone else's device reads the same as a missing one.
	_, err := repo.GetByIDForOwner(ctx, "user-2", "stor-1")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("cross-owner fetch = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_ListByOwner(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	seed := []*Device{
		testProduction("prod-1", "user-1", 1000),
		testStorage("stor-1", "user-1", 20000, 100),
		testConsumption("cons-1", "user-2", 800),
	}
	for _, d := range seed {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create %s failed: %v", d.ID, err)
		}
	}

	devices, err := repo.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices for user-1, want 2", len(devices))
	}
	for _, d := range devices {
		if d.OwnerID != "user-1" {
			t.Errorf("device %s owned by %q", d.ID, d.OwnerID)
		}
	}
}

func TestSQLiteRepository_ListByKindStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	online := testProduction("prod-on", "user-1", 1000)
	offline := testProduction("prod-off", "user-1", 1000)
	offline.Status = StatusOffline
	other := testConsumption("cons-1", "user-1", 800)

	for _, d := range []*Device{online, offline, other} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create %s failed: %v", d.ID, err)
		}
	}

	devices, err := repo.ListByKindStatus(ctx, KindProduction, StatusOnline)
	if err != nil {
		t.Fatalf("ListByKindStatus failed: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "prod-on" {
		t.Errorf("got %v, want just prod-on", devices)
	}
}

func TestSQLiteRepository_ListByKindStatus_StableOrder(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	// Insert out of id order; reads must come back sorted by id.
	for _, d := range []*Device{
		testProduction("prod-c", "user-1", 1000),
		testProduction("prod-a", "user-2", 2000),
		testProduction("prod-b", "user-1", 3000),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create %s failed: %v", d.ID, err)
		}
	}

	devices, err := repo.ListByKindStatus(ctx, KindProduction, StatusOnline)
	if err != nil {
		t.Fatalf("ListByKindStatus failed: %v", err)
	}
	want := []string{"prod-a", "prod-b", "prod-c"}
	if len(devices) != len(want) {
		t.Fatalf("got %d devices, want %d", len(devices), len(want))
	}
	for i, id := range want {
		if devices[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, devices[i].ID, id)
		}
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testStorage("stor-1", "user-1", 20000, 5000)
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	d.Name = "Garage Battery"
	d.Status = StatusOffline
	d.Storage.CurrentLevelWh = 7500
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "stor-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Garage Battery" || got.Status != StatusOffline {
		t.Errorf("common fields not updated: %+v", got)
	}
	if got.Storage.CurrentLevelWh != 7500 {
		t.Errorf("level = %d, want 7500", got.Storage.CurrentLevelWh)
	}
}

func TestSQLiteRepository_Update_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Update(context.Background(), testProduction("missing", "user-1", 100))
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Update = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testConsumption("cons-1", "user-1", 800)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Cross-owner delete must not remove the row.
	if err := repo.Delete(ctx, "user-2", "cons-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("cross-owner Delete = %v, want ErrDeviceNotFound", err)
	}

	if err := repo.Delete(ctx, "user-1", "cons-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "cons-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("device still present after delete: %v", err)
	}
}

func TestSQLiteRepository_UpdateProductionReading(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testProduction("prod-1", "user-1", 1000)
	d.Status = StatusOffline
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateProductionReading(ctx, "prod-1", 4200); err != nil {
		t.Fatalf("UpdateProductionReading failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "prod-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Production.OutputWatts != 4200 {
		t.Errorf("output = %d, want 4200", got.Production.OutputWatts)
	}
	// Reading updates never touch status or name.
	if got.Status != StatusOffline || got.Name != "Solar Panel" {
		t.Errorf("reading update touched common fields: %+v", got)
	}
}

func TestSQLiteRepository_UpdateStorageReading(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testStorage("stor-1", "user-1", 20000, 5000)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateStorageReading(ctx, "stor-1", 5600, 600); err != nil {
		t.Fatalf("UpdateStorageReading failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "stor-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Storage.CurrentLevelWh != 5600 {
		t.Errorf("level = %d, want 5600", got.Storage.CurrentLevelWh)
	}
	if got.Storage.ChargeDischargeRateWatts != 600 {
		t.Errorf("flow = %d, want 600", got.Storage.ChargeDischargeRateWatts)
	}
	if got.Storage.TotalCapacityWh != 20000 {
		t.Errorf("capacity changed by reading update: %d", got.Storage.TotalCapacityWh)
	}
}

func TestSQLiteRepository_UpdateReading_KindMismatch(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testConsumption("cons-1", "user-1", 800)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A storage reading against a consumption device matches no row.
	err := repo.UpdateStorageReading(ctx, "cons-1", 100, 100)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("mismatched reading update = %v, want ErrDeviceNotFound", err)
	}

	if err := repo.UpdateConsumptionReading(ctx, "cons-1", 1200); err != nil {
		t.Fatalf("UpdateConsumptionReading failed: %v", err)
	}
	got, err := repo.GetByID(ctx, "cons-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Consumption.RateWatts != 1200 {
		t.Errorf("rate = %d, want 1200", got.Consumption.RateWatts)
	}
}
