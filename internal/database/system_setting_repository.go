package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tourdesk/booking-backend/internal/models"
)

// SystemSettingRepository handles database operations for system_settings table
type SystemSettingRepository struct {
	db   DB
	exec *Executor
}

// NewSystemSettingRepository creates a new SystemSettingRepository
func NewSystemSettingRepository(db DB, exec *Executor) *SystemSettingRepository {
	return &SystemSettingRepository{db: db, exec: exec}
}

// GetAll retrieves all system settings
func (r *SystemSettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	settings := []models.SystemSetting{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "setting.get_all", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &settings, `
			SELECT id, setting_key, setting_value, description, created_at, updated_at
			FROM system_settings
			ORDER BY setting_key`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

// GetByKey retrieves a system setting by its key
func (r *SystemSettingRepository) GetByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	err := r.exec.Run(ctx, r.exec.Defaults(), "setting.get_by_key", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &setting, `
			SELECT id, setting_key, setting_value, description, created_at, updated_at
			FROM system_settings
			WHERE setting_key = $1`, key)
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to get setting")
	}
	return &setting, nil
}

// GetValue returns the setting's value, or defaultValue when it is missing or unreadable
func (r *SystemSettingRepository) GetValue(ctx context.Context, key, defaultValue string) string {
	return SafeRun(ctx, r.exec, r.exec.Defaults(), "setting.get_value", defaultValue, func(ctx context.Context) (string, error) {
		var value string
		err := r.db.GetContext(ctx, &value, `SELECT setting_value FROM system_settings WHERE setting_key = $1`, key)
		return value, err
	})
}

// GetIntValue retrieves a system setting as an integer
func (r *SystemSettingRepository) GetIntValue(ctx context.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(r.GetValue(ctx, key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// Upsert creates or updates a setting
func (r *SystemSettingRepository) Upsert(ctx context.Context, key, value string, description *string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	err := r.exec.Run(ctx, r.exec.Defaults(), "setting.upsert", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &setting, `
			INSERT INTO system_settings (setting_key, setting_value, description, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (setting_key) DO UPDATE SET
				setting_value = EXCLUDED.setting_value,
				description = COALESCE(EXCLUDED.description, system_settings.description),
				updated_at = NOW()
			RETURNING id, setting_key, setting_value, description, created_at, updated_at`,
			key, value, description)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return &setting, nil
}
