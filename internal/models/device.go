package models

import "time"

// Device is a push-token registration for one of a user's devices. Once
// DisabledAt is set the device is excluded from every future fan-out; there
// is no re-enable path.
type Device struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"index;uniqueIndex:idx_user_push_token"`
	PushToken  string     `json:"push_token" gorm:"size:255;uniqueIndex:idx_user_push_token"`
	Platform   string     `json:"platform" gorm:"size:20;default:'unknown'"` // android, ios, web
	DisabledAt *time.Time `json:"disabled_at,omitempty" gorm:"index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RegisterDeviceRequest defines the request body for registering a push token
type RegisterDeviceRequest struct {
	PushToken string `json:"push_token" validate:"required"`
	Platform  string `json:"platform" validate:"omitempty,oneof=android ios web"`
}
