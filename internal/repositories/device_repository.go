package repositories

import (
	"time"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository defines the interface for push-token registrations
type DeviceRepository interface {
	// RegisterDevice upserts on (user_id, push_token); re-registering an
	// existing token just refreshes its timestamps.
	RegisterDevice(device *models.Device) error
	UnregisterDevice(userID uint, pushToken string) error
	// ListActiveDevices returns at most limit non-disabled registrations,
	// most recently refreshed first.
	ListActiveDevices(userID uint, limit int) ([]models.Device, error)
	// DisableDevice tombstones a token: disabled_at is set once and the
	// device never re-enters a fan-out.
	DisableDevice(userID uint, pushToken string) error
}

// PostgresDeviceRepository implements DeviceRepository for PostgreSQL
type PostgresDeviceRepository struct {
	db *gorm.DB
}

// NewPostgresDeviceRepository creates a new PostgresDeviceRepository
func NewPostgresDeviceRepository(db *gorm.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) RegisterDevice(device *models.Device) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "push_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "updated_at"}),
	}).Create(device).Error
}

func (r *PostgresDeviceRepository) UnregisterDevice(userID uint, pushToken string) error {
	return r.db.Where("user_id = ? AND push_token = ?", userID, pushToken).
		Delete(&models.Device{}).Error
}

func (r *PostgresDeviceRepository) ListActiveDevices(userID uint, limit int) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.Where("user_id = ? AND disabled_at IS NULL", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&devices).Error
	return devices, err
}

func (r *PostgresDeviceRepository) DisableDevice(userID uint, pushToken string) error {
	now := time.Now()
	return r.db.Model(&models.Device{}).
		Where("user_id = ? AND push_token = ? AND disabled_at IS NULL", userID, pushToken).
		Update("disabled_at", &now).Error
}
