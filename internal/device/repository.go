package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// GetByIDForOwner retrieves a device scoped to an owner.
	// Returns ErrDeviceNotFound if the device does not exist or
	// belongs to a different owner.
	GetByIDForOwner(ctx context.Context, ownerID, id string) (*Device, error)

	// ListByOwner retrieves all devices belonging to an owner.
	ListByOwner(ctx context.Context, ownerID string) ([]Device, error)

	// ListByKindStatus retrieves all devices of a kind in a given status.
	ListByKindStatus(ctx context.Context, kind Kind, status Status) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error

	// Update modifies an existing device.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, device *Device) error

	// Delete removes a device scoped to an owner.
	// Returns ErrDeviceNotFound if the device does not exist or
	// belongs to a different owner.
	Delete(ctx context.Context, ownerID, id string) error

	// UpdateProductionReading writes only the instantaneous output of a
	// production device. Never touches status, name, or ownership.
	UpdateProductionReading(ctx context.Context, id string, outputWatts int) error

	// UpdateStorageReading writes only the level and flow of a storage
	// device. Never touches capacity, status, name, or ownership.
	UpdateStorageReading(ctx context.Context, id string, levelWh, flowWatts int) error

	// UpdateConsumptionReading writes only the draw of a consumption device.
	UpdateConsumptionReading(ctx context.Context, id string, rateWatts int) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, owner_id, name, kind, status,
		output_watts, is_solar,
		total_capacity_wh, current_level_wh, charge_discharge_rate_watts,
		consumption_rate_watts,
		created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDeviceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// GetByIDForOwner retrieves a device scoped to an owner. A device owned by
// someone else reads the same as one that does not exist.
func (r *SQLiteRepository) GetByIDForOwner(ctx context.Context, ownerID, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ? AND owner_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, ownerID)
	d, err := scanDeviceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id for owner: %w", err)
	}
	return d, nil
}

// ListByOwner retrieves all devices belonging to an owner.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE owner_id = ? ORDER BY name`
	return r.queryDevices(ctx, query, ownerID)
}

// ListByKindStatus retrieves all devices of a kind in a given status.
// Ordered by id so callers iterating the result see a stable sequence.
func (r *SQLiteRepository) ListByKindStatus(ctx context.Context, kind Kind, status Status) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE kind = ? AND status = ? ORDER BY id`
	return r.queryDevices(ctx, query, string(kind), string(status))
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (` + deviceColumns + `) VALUES (
			?, ?, ?, ?, ?,
			?, ?,
			?, ?, ?,
			?,
			?, ?
		)`

	var outputWatts, isSolar, capacityWh, levelWh, flowWatts, rateWatts sql.NullInt64
	switch device.Kind {
	case KindProduction:
		outputWatts = nullInt(device.Production.OutputWatts)
		isSolar = nullInt(boolToInt(device.Production.IsSolar))
	case KindStorage:
		capacityWh = nullInt(device.Storage.TotalCapacityWh)
		levelWh = nullInt(device.Storage.CurrentLevelWh)
		flowWatts = nullInt(device.Storage.ChargeDischargeRateWatts)
	case KindConsumption:
		rateWatts = nullInt(device.Consumption.RateWatts)
	}

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.OwnerID,
		device.Name,
		string(device.Kind),
		string(device.Status),
		outputWatts,
		isSolar,
		capacityWh,
		levelWh,
		flowWatts,
		rateWatts,
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// Update modifies an existing device. The kind column is immutable;
// only name, status and the kind's own reading columns are written.
func (r *SQLiteRepository) Update(ctx context.Context, device *Device) error {
	device.UpdatedAt = time.Now().UTC()

	var outputWatts, isSolar, capacityWh, levelWh, flowWatts, rateWatts sql.NullInt64
	switch device.Kind {
	case KindProduction:
		outputWatts = nullInt(device.Production.OutputWatts)
		isSolar = nullInt(boolToInt(device.Production.IsSolar))
	case KindStorage:
		capacityWh = nullInt(device.Storage.TotalCapacityWh)
		levelWh = nullInt(device.Storage.CurrentLevelWh)
		flowWatts = nullInt(device.Storage.ChargeDischargeRateWatts)
	case KindConsumption:
		rateWatts = nullInt(device.Consumption.RateWatts)
	}

	query := `
		UPDATE devices SET
			name = ?, status = ?,
			output_watts = ?, is_solar = ?,
			total_capacity_wh = ?, current_level_wh = ?, charge_discharge_rate_watts = ?,
			consumption_rate_watts = ?,
			updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		device.Name,
		string(device.Status),
		outputWatts,
		isSolar,
		capacityWh,
		levelWh,
		flowWatts,
		rateWatts,
		device.UpdatedAt.Format(time.RFC3339),
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	return checkAffected(result)
}

// Delete removes a device scoped to an owner.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM devices WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return checkAffected(result)
}

// UpdateProductionReading writes only the instantaneous output of a
// production device. This is the hot path for the simulation loop.
func (r *SQLiteRepository) UpdateProductionReading(ctx context.Context, id string, outputWatts int) error {
	query := `
		UPDATE devices
		SET output_watts = ?, updated_at = ?
		WHERE id = ? AND kind = 'production'`

	result, err := r.db.ExecContext(ctx, query,
		outputWatts,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating production reading: %w", err)
	}
	return checkAffected(result)
}

// UpdateStorageReading writes only the level and flow of a storage device.
func (r *SQLiteRepository) UpdateStorageReading(ctx context.Context, id string, levelWh, flowWatts int) error {
	query := `
		UPDATE devices
		SET current_level_wh = ?, charge_discharge_rate_watts = ?, updated_at = ?
		WHERE id = ? AND kind = 'storage'`

	result, err := r.db.ExecContext(ctx, query,
		levelWh,
		flowWatts,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating storage reading: %w", err)
	}
	return checkAffected(result)
}

// UpdateConsumptionReading writes only the draw of a consumption device.
func (r *SQLiteRepository) UpdateConsumptionReading(ctx context.Context, id string, rateWatts int) error {
	query := `
		UPDATE devices
		SET consumption_rate_watts = ?, updated_at = ?
		WHERE id = ? AND kind = 'consumption'`

	result, err := r.db.ExecContext(ctx, query,
		rateWatts,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating consumption reading: %w", err)
	}
	return checkAffected(result)
}

// queryDevices executes a query and returns a slice of devices.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDeviceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// checkAffected converts a zero-row write into ErrDeviceNotFound.
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDeviceRow scans a row or rows result into a Device, materialising
// exactly the payload for the row's kind.
func scanDeviceRow(scanner rowScanner) (*Device, error) {
	var d Device
	var kind, status string
	var outputWatts, isSolar sql.NullInt64
	var capacityWh, levelWh, flowWatts sql.NullInt64
	var rateWatts sql.NullInt64
	var createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Name,
		&kind,
		&status,
		&outputWatts,
		&isSolar,
		&capacityWh,
		&levelWh,
		&flowWatts,
		&rateWatts,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Kind = Kind(kind)
	d.Status = Status(status)

	switch d.Kind {
	case KindProduction:
		d.Production = &Production{
			OutputWatts: int(outputWatts.Int64),
			IsSolar:     isSolar.Int64 != 0,
		}
	case KindStorage:
		d.Storage = &Storage{
			TotalCapacityWh:          int(capacityWh.Int64),
			CurrentLevelWh:           int(levelWh.Int64),
			ChargeDischargeRateWatts: int(flowWatts.Int64),
		}
	case KindConsumption:
		d.Consumption = &Consumption{RateWatts: int(rateWatts.Int64)}
	default:
		return nil, fmt.Errorf("device %s: %w: %q", d.ID, ErrUnsupportedKind, kind)
	}

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// nullInt wraps an int as a valid sql.NullInt64.
func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
