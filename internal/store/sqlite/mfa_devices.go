package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
)

type mfaDevicesRepo struct {
	db dbtx
}

const mfaDeviceColumns = `id, user_id, name, secret, created_at`

func (r *mfaDevicesRepo) CreateDevice(ctx context.Context, d domain.MFADevice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_devices (id, user_id, name, secret, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, d.Secret, now())
	return mapConstraint(err)
}

func (r *mfaDevicesRepo) GetDevice(ctx context.Context, userID, deviceID string) (domain.MFADevice, error) {
	var d domain.MFADevice
	err := r.db.QueryRowContext(ctx,
		`SELECT `+mfaDeviceColumns+` FROM mfa_devices WHERE id = ? AND user_id = ?`,
		deviceID, userID).
		Scan(&d.ID, &d.UserID, &d.Name, &d.Secret, &d.CreatedAt)
	if err != nil {
		return domain.MFADevice{}, mapNotFound(err)
	}
	return d, nil
}

func (r *mfaDevicesRepo) ListUserDevices(ctx context.Context, userID string) ([]domain.MFADevice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mfaDeviceColumns+` FROM mfa_devices WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []domain.MFADevice
	for rows.Next() {
		var d domain.MFADevice
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Secret, &d.CreatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *mfaDevicesRepo) CountUserDevices(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mfa_devices WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *mfaDevicesRepo) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM mfa_devices WHERE id = ? AND user_id = ?`, deviceID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
