package entity

import (
	"time"
)

// User is the public projection of the shared users table. Credentials live with the auth service.
type User struct {
	ID        string    `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex"`
	Email     string    `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
