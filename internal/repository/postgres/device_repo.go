package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

// DeviceRepo implements DeviceRepository using PostgreSQL.
type DeviceRepo struct{ db *DB }

// NewDeviceRepo constructs a device repository.
func NewDeviceRepo(db *DB) *DeviceRepo { return &DeviceRepo{db: db} }

// GetActiveByDeviceID selects the active device bound to deviceID.
func (r *DeviceRepo) GetActiveByDeviceID(ctx context.Context, deviceID string) (*model.Device, error) {
	const q = `
SELECT id, employee_id, device_id, COALESCE(device_name, ''), secret_hash, created_at
FROM employee_devices WHERE device_id=$1 AND revoked_at IS NULL`
	var d model.Device
	if err := r.db.Pool.QueryRow(ctx, q, deviceID).
		Scan(&d.ID, &d.EmployeeID, &d.DeviceID, &d.DeviceName, &d.SecretHash, &d.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// IssuePairingCode revokes active devices of the employee and stores the code.
func (r *DeviceRepo) IssuePairingCode(ctx context.Context, c *model.PairingCode) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const revoke = `UPDATE employee_devices SET revoked_at=$2 WHERE employee_id=$1 AND revoked_at IS NULL`
		if _, err := tx.Exec(ctx, revoke, c.EmployeeID, c.CreatedAt); err != nil {
			return err
		}
		const ins = `
INSERT INTO device_pairing_codes (id, employee_id, code_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)`
		_, err := tx.Exec(ctx, ins, c.ID, c.EmployeeID, c.CodeHash, c.ExpiresAt, c.CreatedAt)
		return err
	})
}

// PendingCodes selects unconsumed, unexpired codes, newest first.
func (r *DeviceRepo) PendingCodes(ctx context.Context, now time.Time, limit int) ([]model.PairingCode, error) {
	const q = `
SELECT id, employee_id, code_hash, expires_at, created_at
FROM device_pairing_codes
WHERE consumed_at IS NULL AND expires_at > $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PairingCode, 0)
	for rows.Next() {
		var c model.PairingCode
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Pair consumes the code, revokes prior devices and inserts the new device.
// Devices bound to the same device id under another employee are revoked too.
func (r *DeviceRepo) Pair(ctx context.Context, p *model.PairDevice) error {
	d := p.Device
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const consume = `
UPDATE device_pairing_codes
SET consumed_at=$2, consumed_device_id=$3
WHERE id=$1 AND consumed_at IS NULL AND expires_at > $2`
		tag, err := tx.Exec(ctx, consume, p.CodeID, d.CreatedAt, d.DeviceID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrPairingCodeInvalid
		}

		const revoke = `
UPDATE employee_devices SET revoked_at=$3
WHERE (employee_id=$1 OR device_id=$2) AND revoked_at IS NULL`
		if _, err := tx.Exec(ctx, revoke, d.EmployeeID, d.DeviceID, d.CreatedAt); err != nil {
			return err
		}

		const ins = `
INSERT INTO employee_devices (id, employee_id, device_id, device_name, secret_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = tx.Exec(ctx, ins, d.ID, d.EmployeeID, d.DeviceID, nullIfEmpty(d.DeviceName), d.SecretHash, d.CreatedAt)
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return err
	})
}
