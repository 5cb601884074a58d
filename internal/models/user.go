package models

import "time"

// User is the identity record consulted for display names.
// Registration and credentials live outside this service.
type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
